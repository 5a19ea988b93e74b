package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(retries int) *Config {
	return &Config{MaxRetries: retries, InitialDelay: time.Millisecond, Strategy: FixedInterval}
}

func TestDo(t *testing.T) {
	t.Run("第二次成功", func(t *testing.T) {
		calls := 0
		err := NewRetry(fastConfig(2)).Do(context.Background(), func() error {
			calls++
			if calls < 2 {
				return errors.New("net::ERR_CONNECTION_RESET")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Do() = %v", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("耗尽后返回最后一次错误", func(t *testing.T) {
		calls := 0
		last := errors.New("last")
		err := NewRetry(fastConfig(2)).Do(context.Background(), func() error {
			calls++
			if calls == 3 {
				return last
			}
			return errors.New("earlier")
		})
		if !errors.Is(err, last) {
			t.Errorf("Do() = %v, want last", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("条件拒绝则不重试", func(t *testing.T) {
		calls := 0
		cfg := fastConfig(5)
		cfg.Condition = func(error) bool { return false }
		_ = NewRetry(cfg).Do(context.Background(), func() error {
			calls++
			return errors.New("fatal")
		})
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("ctx 取消", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cfg := &Config{MaxRetries: 3, InitialDelay: time.Hour, Strategy: FixedInterval}
		calls := 0
		err := NewRetry(cfg).Do(ctx, func() error {
			calls++
			cancel()
			return errors.New("boom")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Do() = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}

func TestDelay(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		attempt int
		want    time.Duration
	}{
		{"固定", Config{InitialDelay: time.Second, Strategy: FixedInterval}, 3, time.Second},
		{"线性", Config{InitialDelay: time.Second, Strategy: LinearBackoff}, 3, 3 * time.Second},
		{"指数", Config{InitialDelay: time.Second, Strategy: ExponentialBackoff, BackoffFactor: 2}, 3, 4 * time.Second},
		{"上限", Config{InitialDelay: time.Second, MaxDelay: 3 * time.Second, Strategy: ExponentialBackoff, BackoffFactor: 2}, 4, 3 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			if got := NewRetry(&cfg).Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(1), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("first")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Errorf("DoWithResult() = %q, %v", got, err)
	}
}
