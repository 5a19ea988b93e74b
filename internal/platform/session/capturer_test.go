package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser/browsertest"
	"Fpublisher/internal/types"
)

func loginProfile() platform.Profile {
	return platform.Profile{Name: "demo", DisplayName: "演示", LoginURL: "https://creator.example.com/login"}
}

func TestCaptureRefusedWhenNotInteractive(t *testing.T) {
	launcher := browsertest.NewLauncher()
	called := false
	cp := CheckpointFunc(func(ctx context.Context, prompt string) error {
		called = true
		return nil
	})

	c := NewCapturer(launcher, NewStore(t.TempDir()), cp, false)
	_, err := c.Capture(context.Background(), loginProfile(), "main")
	if !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("Capture() error = %v, want ErrConfiguration", err)
	}
	if called {
		t.Error("非交互模式不应进入人工检查点")
	}
	if launcher.OpenCount() != 0 {
		t.Error("非交互模式不应打开浏览器")
	}
}

func TestCapture(t *testing.T) {
	launcher := browsertest.NewLauncher()
	launcher.State = []byte(`{"cookies":[{"name":"sessionid","value":"x","domain":".example.com"}],"origins":[]}`)
	store := NewStore(t.TempDir())

	var prompt string
	cp := CheckpointFunc(func(ctx context.Context, p string) error {
		prompt = p
		if launcher.Page.Did("navigate:https://creator.example.com/login") != 1 {
			t.Error("检查点前应已打开登录页")
		}
		return nil
	})

	sess, err := NewCapturer(launcher, store, cp, true).Capture(context.Background(), loginProfile(), "main")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if !launcher.Opened[0].Visible {
		t.Error("登录需要可见窗口")
	}
	if !strings.Contains(prompt, "演示") {
		t.Errorf("prompt = %q", prompt)
	}

	loaded, err := store.Load("demo", "main")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(loaded.State, sess.State) || !bytes.Contains(loaded.State, []byte("sessionid")) {
		t.Errorf("保存的状态 = %s", loaded.State)
	}
	if loaded.LastValidated.IsZero() {
		t.Error("登录后应记录校验时间")
	}
	if launcher.CloseCount() != 1 {
		t.Error("登录浏览器未关闭")
	}
}

func TestCaptureCheckpointInterrupted(t *testing.T) {
	launcher := browsertest.NewLauncher()
	store := NewStore(t.TempDir())
	cp := CheckpointFunc(func(ctx context.Context, prompt string) error {
		return context.Canceled
	})

	if _, err := NewCapturer(launcher, store, cp, true).Capture(context.Background(), loginProfile(), "main"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if ok, _ := store.Exists("demo", "main"); ok {
		t.Error("中断后不应保存会话")
	}
}

func TestStdinCheckpoint(t *testing.T) {
	var out bytes.Buffer
	cp := &StdinCheckpoint{In: strings.NewReader("\n"), Out: &out}
	if err := cp.Await(context.Background(), "请登录"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "请登录") {
		t.Errorf("output = %q", out.String())
	}
}

func TestStdinCheckpointQueuedLines(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	cp := &StdinCheckpoint{In: pr, Out: io.Discard}
	go pw.Write([]byte("\n\n"))

	for i, account := range []string{"main", "backup"} {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := cp.Await(ctx, "请登录 "+account)
		cancel()
		if err != nil {
			t.Fatalf("第 %d 次 Await() error = %v", i+1, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := cp.Await(ctx, "请登录 third"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("没有输入时 Await() = %v, want DeadlineExceeded", err)
	}
}

func TestStdinCheckpointOneLinePerPrompt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	cp := &StdinCheckpoint{In: pr, Out: io.Discard}

	done := make(chan error, 2)
	for _, account := range []string{"main", "backup"} {
		go func() { done <- cp.Await(context.Background(), "请登录 "+account) }()
	}

	next := func() error {
		select {
		case err := <-done:
			return err
		case <-time.After(time.Second):
			t.Fatal("Await() 未返回")
			return nil
		}
	}

	if _, err := pw.Write([]byte("\n")); err != nil {
		t.Fatal(err)
	}
	if err := next(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		t.Fatalf("一次回车应答了两个提示: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := pw.Write([]byte("\n")); err != nil {
		t.Fatal(err)
	}
	if err := next(); err != nil {
		t.Fatal(err)
	}
}
