package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/tidwall/gjson"

	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
	"Fpublisher/internal/utils"
)

// Status 校验结果
type Status int

const (
	Expired Status = iota
	Valid
)

func (s Status) String() string {
	if s == Valid {
		return "valid"
	}
	return "expired"
}

const defaultProbeTimeout = 5 * time.Second

// Validator 会话校验。只读：在无头临时上下文中探测，不改动已保存的会话。
// 任何意外错误都判为过期
type Validator struct {
	launcher browser.Launcher
	client   *req.Client
	timeout  time.Duration
}

// NewValidator 创建校验器，timeout 为等待登录标记的上限
func NewValidator(launcher browser.Launcher, timeout time.Duration) *Validator {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	client := req.C().
		SetTimeout(timeout + 5*time.Second).
		SetUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	return &Validator{launcher: launcher, client: client, timeout: timeout}
}

// Validate 判断会话是否可用
func (v *Validator) Validate(ctx context.Context, p platform.Profile, sess *Session) Status {
	if sess == nil || len(sess.State) == 0 {
		return Expired
	}
	if missing := browser.MissingCookies(sess.State, p.Cookies); len(missing) > 0 {
		utils.WarnWithPlatform(p.Name, fmt.Sprintf("缺少登录 Cookie: %s", strings.Join(missing, ", ")))
		return Expired
	}
	if p.Probe.API != nil {
		return v.validateAPI(ctx, p, sess)
	}
	return v.validatePage(ctx, p, sess)
}

func (v *Validator) validatePage(ctx context.Context, p platform.Profile, sess *Session) Status {
	bctx, err := v.launcher.Open(ctx, browser.ContextOptions{Platform: p.Name, State: sess.State})
	if err != nil {
		utils.WarnWithPlatform(p.Name, fmt.Sprintf("打开校验浏览器失败: %v", err))
		return Expired
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		utils.WarnWithPlatform(p.Name, fmt.Sprintf("创建校验页面失败: %v", err))
		return Expired
	}
	defer page.Close()

	if err := page.Navigate(ctx, p.Probe.URL); err != nil {
		utils.WarnWithPlatform(p.Name, fmt.Sprintf("打开校验页面失败: %v", err))
		return Expired
	}

	found := page.WaitFor(ctx, p.Probe.Marker, v.timeout) == nil
	if !found {
		if ctx.Err() != nil {
			return Expired
		}
		// 区分“确实没有”与“页面已不可用”
		if _, err := page.Count(p.Probe.Marker); err != nil {
			utils.WarnWithPlatform(p.Name, fmt.Sprintf("校验页面异常: %v", err))
			return Expired
		}
	}

	switch p.Probe.Mode {
	case platform.MarkerPresentMeansExpired:
		if found {
			utils.InfoWithPlatform(p.Name, "检测到未登录标记，会话已失效")
			return Expired
		}
		return Valid
	default:
		if found {
			return Valid
		}
		utils.InfoWithPlatform(p.Name, "未检测到登录标记，会话已失效")
		return Expired
	}
}

func (v *Validator) validateAPI(ctx context.Context, p platform.Profile, sess *Session) Status {
	probe := p.Probe.API
	r := v.client.R().SetContext(ctx).
		SetHeader("Cookie", browser.CookieHeader(sess.State, probe.CookieHost))
	if len(probe.Headers) > 0 {
		r.SetHeaders(probe.Headers)
	}

	resp, err := r.Get(probe.URL)
	if err != nil {
		utils.WarnWithPlatform(p.Name, fmt.Sprintf("校验接口请求失败: %v", err))
		return Expired
	}
	if !resp.IsSuccessState() {
		utils.WarnWithPlatform(p.Name, fmt.Sprintf("校验接口状态码异常: %d", resp.StatusCode))
		return Expired
	}

	body := resp.Bytes()
	if probe.CodePath != "" {
		code := gjson.GetBytes(body, probe.CodePath)
		if !code.Exists() || code.Int() != probe.OKCode {
			utils.WarnWithPlatform(p.Name, fmt.Sprintf("校验接口返回错误: code=%s message=%s",
				code.Raw, gjson.GetBytes(body, "message").String()))
			return Expired
		}
	}
	if probe.LoginPath != "" && !gjson.GetBytes(body, probe.LoginPath).Bool() {
		utils.InfoWithPlatform(p.Name, "接口显示未登录，会话已失效")
		return Expired
	}
	return Valid
}
