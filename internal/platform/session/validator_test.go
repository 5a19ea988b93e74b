package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
	"Fpublisher/internal/platform/browser/browsertest"
)

const marker = "div.logged-in"

func probeProfile(mode platform.MarkerMode) platform.Profile {
	return platform.Profile{
		Name: "demo",
		Probe: platform.Probe{
			URL:    "https://creator.example.com/home",
			Marker: marker,
			Mode:   mode,
		},
	}
}

func demoSession() *Session {
	return &Session{Platform: "demo", Account: "main", State: []byte(`{"cookies":[{"name":"sid","value":"1","domain":"127.0.0.1"}]}`)}
}

func TestValidatorPage(t *testing.T) {
	tests := []struct {
		name   string
		mode   platform.MarkerMode
		show   bool
		navErr error
		want   Status
	}{
		{name: "标记出现即有效", mode: platform.MarkerPresentMeansValid, show: true, want: Valid},
		{name: "标记缺失即过期", mode: platform.MarkerPresentMeansValid, show: false, want: Expired},
		{name: "失效标记出现", mode: platform.MarkerPresentMeansExpired, show: true, want: Expired},
		{name: "失效标记未出现", mode: platform.MarkerPresentMeansExpired, show: false, want: Valid},
		{name: "导航失败按过期处理", mode: platform.MarkerPresentMeansExpired, navErr: errors.New("net::ERR_CONNECTION_RESET"), want: Expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			launcher := browsertest.NewLauncher()
			if tt.show {
				launcher.Page.Show(marker)
			}
			if tt.navErr != nil {
				launcher.Page.Fail("navigate", "", tt.navErr)
			}

			v := NewValidator(launcher, 20*time.Millisecond)
			if got := v.Validate(context.Background(), probeProfile(tt.mode), demoSession()); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}

			if launcher.OpenCount() != 1 {
				t.Fatalf("OpenCount = %d, want 1", launcher.OpenCount())
			}
			if launcher.Opened[0].Visible {
				t.Error("校验应使用无头浏览器")
			}
			if launcher.CloseCount() != 1 {
				t.Error("校验上下文未关闭")
			}
		})
	}
}

func TestValidatorFailClosed(t *testing.T) {
	p := probeProfile(platform.MarkerPresentMeansExpired)

	t.Run("浏览器启动失败", func(t *testing.T) {
		launcher := browsertest.NewLauncher()
		launcher.OpenErr = errors.New("launch failed")
		if got := NewValidator(launcher, 10*time.Millisecond).Validate(context.Background(), p, demoSession()); got != Expired {
			t.Errorf("got %v, want expired", got)
		}
	})

	t.Run("页面查询异常", func(t *testing.T) {
		launcher := browsertest.NewLauncher()
		launcher.Page.Fail("count", marker, errors.New("target closed"))
		if got := NewValidator(launcher, 10*time.Millisecond).Validate(context.Background(), p, demoSession()); got != Expired {
			t.Errorf("got %v, want expired", got)
		}
	})

	t.Run("空会话", func(t *testing.T) {
		launcher := browsertest.NewLauncher()
		if got := NewValidator(launcher, 10*time.Millisecond).Validate(context.Background(), p, &Session{}); got != Expired {
			t.Errorf("got %v, want expired", got)
		}
		if launcher.OpenCount() != 0 {
			t.Error("空会话不应打开浏览器")
		}
	})

	t.Run("缺少必需 Cookie", func(t *testing.T) {
		launcher := browsertest.NewLauncher()
		p := p
		p.Cookies = []browser.CookieDomainConfig{{RequiredCookies: []string{"sessionid"}}}
		if got := NewValidator(launcher, 10*time.Millisecond).Validate(context.Background(), p, demoSession()); got != Expired {
			t.Errorf("got %v, want expired", got)
		}
	})

	t.Run("已取消", func(t *testing.T) {
		launcher := browsertest.NewLauncher()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if got := NewValidator(launcher, 10*time.Millisecond).Validate(ctx, p, demoSession()); got != Expired {
			t.Errorf("got %v, want expired", got)
		}
	})
}

func TestValidatorAPI(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		want Status
	}{
		{name: "已登录", body: `{"code":0,"data":{"isLogin":true,"uname":"u"}}`, code: http.StatusOK, want: Valid},
		{name: "未登录", body: `{"code":-101,"message":"账号未登录","data":{"isLogin":false}}`, code: http.StatusOK, want: Expired},
		{name: "code 正常但未登录", body: `{"code":0,"data":{"isLogin":false}}`, code: http.StatusOK, want: Expired},
		{name: "非 JSON", body: `<html></html>`, code: http.StatusOK, want: Expired},
		{name: "服务端错误", body: `{}`, code: http.StatusBadGateway, want: Expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCookie, gotReferer string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotCookie = r.Header.Get("Cookie")
				gotReferer = r.Header.Get("Referer")
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := platform.Profile{
				Name: "demo",
				Probe: platform.Probe{API: &platform.APIProbe{
					URL:        srv.URL + "/x/web-interface/nav",
					CookieHost: "127.0.0.1",
					Headers:    map[string]string{"Referer": "https://www.example.com"},
					CodePath:   "code",
					LoginPath:  "data.isLogin",
				}},
			}
			launcher := browsertest.NewLauncher()
			got := NewValidator(launcher, time.Second).Validate(context.Background(), p, demoSession())
			if got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(gotCookie, "sid=1") {
				t.Errorf("Cookie header = %q", gotCookie)
			}
			if gotReferer != "https://www.example.com" {
				t.Errorf("Referer = %q", gotReferer)
			}
			if launcher.OpenCount() != 0 {
				t.Error("接口校验不应打开浏览器")
			}
		})
	}
}
