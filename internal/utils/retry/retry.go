// Package retry 提供导航、浏览器启动等瞬时失败操作的重试
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Strategy 重试间隔策略
type Strategy string

const (
	ExponentialBackoff Strategy = "exponential_backoff"
	FixedInterval      Strategy = "fixed_interval"
	LinearBackoff      Strategy = "linear_backoff"
)

// Condition 判断错误是否值得重试
type Condition func(error) bool

// Callback 每次重试前回调
type Callback func(attempt int, delay time.Duration, err error)

// Config 重试配置
type Config struct {
	MaxRetries    int // 不含首次执行
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	Strategy      Strategy
	BackoffFactor float64
	JitterFactor  float64 // 0 表示不抖动
	Condition     Condition
	OnRetry       Callback
}

// DefaultConfig 默认重试配置
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:    3,
		InitialDelay:  2 * time.Second,
		MaxDelay:      30 * time.Second,
		Strategy:      ExponentialBackoff,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// NavigationConfig 页面跳转：固定间隔，少量重试
func NavigationConfig() *Config {
	return &Config{
		MaxRetries:   2,
		InitialDelay: 2 * time.Second,
		MaxDelay:     2 * time.Second,
		Strategy:     FixedInterval,
	}
}

// Retry 重试器
type Retry struct {
	config *Config
}

// NewRetry 创建重试器
func NewRetry(config *Config) *Retry {
	if config == nil {
		config = DefaultConfig()
	}
	return &Retry{config: config}
}

// Do 执行带重试的操作，ctx 取消时立即返回
func (r *Retry) Do(ctx context.Context, operation func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.Delay(attempt)
			if r.config.OnRetry != nil {
				r.config.OnRetry(attempt, delay, lastErr)
			}
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(ctx.Err(), lastErr)
			case <-timer.C:
			}
		}

		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.shouldRetry(err) {
			break
		}
	}
	return lastErr
}

// DoWithResult 执行带重试的操作并返回结果
func DoWithResult[T any](ctx context.Context, config *Config, operation func() (T, error)) (T, error) {
	var result T
	err := NewRetry(config).Do(ctx, func() error {
		var err error
		result, err = operation()
		return err
	})
	return result, err
}

// Delay 第 attempt 次重试前的等待时间
func (r *Retry) Delay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Strategy {
	case ExponentialBackoff:
		factor := r.config.BackoffFactor
		if factor <= 0 {
			factor = 2
		}
		delay = time.Duration(float64(r.config.InitialDelay) * math.Pow(factor, float64(attempt-1)))
	case LinearBackoff:
		delay = r.config.InitialDelay * time.Duration(attempt)
	default:
		delay = r.config.InitialDelay
	}

	if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.JitterFactor > 0 {
		delay += time.Duration(float64(delay) * r.config.JitterFactor * (rand.Float64()*2 - 1))
	}
	return delay
}

func (r *Retry) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if r.config.Condition != nil {
		return r.config.Condition(err)
	}
	return true
}
