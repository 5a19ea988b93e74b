package poll

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUntil(t *testing.T) {
	opts := Options{Interval: time.Millisecond}

	t.Run("第三次就绪", func(t *testing.T) {
		n := 0
		res := Until(context.Background(), opts, func(context.Context) (Status, error) {
			n++
			if n == 3 {
				return Ready, nil
			}
			return Pending, errors.New("元素未出现")
		})
		if res.Status != Ready || res.Attempts != 3 || res.Err != nil {
			t.Errorf("res = %+v", res)
		}
	})

	t.Run("失败立即返回", func(t *testing.T) {
		banner := errors.New("上传失败")
		res := Until(context.Background(), opts, func(context.Context) (Status, error) {
			return Failed, banner
		})
		if res.Status != Failed || !errors.Is(res.Err, banner) || res.Attempts != 1 {
			t.Errorf("res = %+v", res)
		}
	})

	t.Run("超时", func(t *testing.T) {
		res := Until(context.Background(), Options{Interval: time.Millisecond, Timeout: 20 * time.Millisecond},
			func(context.Context) (Status, error) { return Pending, nil })
		if res.Status != TimedOut {
			t.Errorf("Status = %v, want timed_out", res.Status)
		}
		if res.Attempts < 1 {
			t.Errorf("Attempts = %d", res.Attempts)
		}
	})

	t.Run("取消", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		res := Until(ctx, opts, func(context.Context) (Status, error) {
			cancel()
			return Pending, nil
		})
		if res.Status != Canceled || !errors.Is(res.Err, context.Canceled) {
			t.Errorf("res = %+v", res)
		}
	})

	t.Run("已取消的 ctx 不执行探测", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		res := Until(ctx, opts, func(context.Context) (Status, error) {
			called = true
			return Ready, nil
		})
		if called || res.Status != Canceled {
			t.Errorf("called = %v, res = %+v", called, res)
		}
	})
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() = %v", err)
	}
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep() = %v", err)
	}
}
