package service

import (
	"context"
	"errors"
	"testing"

	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/session"
	"Fpublisher/internal/types"
)

type stubValidator struct {
	status session.Status
	calls  int
}

func (v *stubValidator) Validate(ctx context.Context, p platform.Profile, sess *session.Session) session.Status {
	v.calls++
	return v.status
}

type stubCapturer struct {
	interactive bool
	store       *session.Store
	err         error
	calls       int
}

func (c *stubCapturer) Interactive() bool { return c.interactive }

func (c *stubCapturer) Capture(ctx context.Context, p platform.Profile, account string) (*session.Session, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	sess := &session.Session{Platform: p.Name, Account: account, State: []byte(`{"cookies":[{"name":"fresh"}]}`)}
	return sess, c.store.Save(sess)
}

var demo = platform.Profile{Name: "demo"}

func saveSession(t *testing.T, store *session.Store, account string) {
	t.Helper()
	if err := store.Save(&session.Session{Platform: "demo", Account: account, State: []byte(`{"cookies":[]}`)}); err != nil {
		t.Fatal(err)
	}
}

func TestEnsureSessionValid(t *testing.T) {
	store := session.NewStore(t.TempDir())
	saveSession(t, store, "main")
	validator := &stubValidator{status: session.Valid}
	capturer := &stubCapturer{interactive: true, store: store}

	var events []string
	svc := NewAccountService(store, validator, capturer, func(e types.Event) { events = append(events, e.EventType()) })
	sess, err := svc.EnsureSession(context.Background(), demo, "main")
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil || sess.LastValidated.IsZero() {
		t.Fatalf("sess = %+v", sess)
	}
	if capturer.calls != 0 {
		t.Error("会话有效时不应登录")
	}
	if len(events) != 1 || events[0] != "session_checked" {
		t.Errorf("events = %v", events)
	}
	loaded, _ := store.Load("demo", "main")
	if loaded.LastValidated.IsZero() {
		t.Error("应记录校验时间")
	}
}

func TestEnsureSessionExpiredNonInteractive(t *testing.T) {
	store := session.NewStore(t.TempDir())
	saveSession(t, store, "main")
	validator := &stubValidator{status: session.Expired}
	capturer := &stubCapturer{interactive: false, store: store}
	svc := NewAccountService(store, validator, capturer, nil)

	_, err := svc.EnsureSession(context.Background(), demo, "main")
	if !errors.Is(err, types.ErrSessionInvalid) {
		t.Fatalf("err = %v, want ErrSessionInvalid", err)
	}
	if capturer.calls != 0 {
		t.Error("非交互模式不应登录")
	}
	loaded, _ := store.Load("demo", "main")
	if !loaded.Stale {
		t.Error("失效的会话应被标记")
	}

	// 同一账号在本次运行内不再探测
	if _, err := svc.EnsureSession(context.Background(), demo, "main"); !errors.Is(err, types.ErrSessionInvalid) {
		t.Errorf("err = %v", err)
	}
	if validator.calls != 1 {
		t.Errorf("validator.calls = %d, want 1", validator.calls)
	}
}

func TestEnsureSessionMissingInteractive(t *testing.T) {
	store := session.NewStore(t.TempDir())
	validator := &stubValidator{status: session.Valid}
	capturer := &stubCapturer{interactive: true, store: store}
	svc := NewAccountService(store, validator, capturer, nil)

	sess, err := svc.EnsureSession(context.Background(), demo, "new")
	if err != nil {
		t.Fatal(err)
	}
	if capturer.calls != 1 || string(sess.State) != `{"cookies":[{"name":"fresh"}]}` {
		t.Errorf("calls = %d, sess = %+v", capturer.calls, sess)
	}
	if validator.calls != 0 {
		t.Error("没有会话文件时不应探测")
	}
}

func TestEnsureSessionCaptureFailure(t *testing.T) {
	store := session.NewStore(t.TempDir())
	capturer := &stubCapturer{interactive: true, store: store, err: errors.New("等待登录被中断")}
	svc := NewAccountService(store, &stubValidator{}, capturer, nil)

	if _, err := svc.EnsureSession(context.Background(), demo, "main"); !errors.Is(err, types.ErrSessionInvalid) {
		t.Errorf("err = %v, want ErrSessionInvalid", err)
	}

	capturer.err = types.NewStateIOError("保存会话", errors.New("disk full"))
	if _, err := svc.EnsureSession(context.Background(), demo, "other"); !errors.Is(err, types.ErrStateIO) {
		t.Errorf("致命错误应原样返回: %v", err)
	}
}

func TestAccountCheckAndLogin(t *testing.T) {
	store := session.NewStore(t.TempDir())
	capturer := &stubCapturer{interactive: false, store: store}
	svc := NewAccountService(store, &stubValidator{status: session.Valid}, capturer, nil)

	status, err := svc.Check(context.Background(), demo, "main")
	if err != nil || status != session.Expired {
		t.Errorf("Check() = %v, %v", status, err)
	}
	if _, err := svc.Login(context.Background(), demo, "main"); !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("非交互模式登录应返回配置错误: %v", err)
	}

	capturer.interactive = true
	if _, err := svc.Login(context.Background(), demo, "main"); err != nil {
		t.Fatal(err)
	}
	if status, _ := svc.Check(context.Background(), demo, "main"); status != session.Valid {
		t.Errorf("登录后 Check() = %v", status)
	}
}
