// Package poll 带超时、可取消的轮询
package poll

import (
	"context"
	"time"
)

// Status 单次检查或整次轮询的结果
type Status int

const (
	Pending Status = iota // 继续轮询
	Ready
	Failed
	TimedOut
	Canceled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Probe 单次检查。返回 Pending 时继续，错误只作记录
type Probe func(ctx context.Context) (Status, error)

// Options 轮询参数
type Options struct {
	Interval time.Duration
	Timeout  time.Duration // 0 表示只受 ctx 约束
}

// Result 轮询结果
type Result struct {
	Status   Status
	Err      error // Failed 时为探测返回的错误，其余为最后一次探测错误
	Attempts int
	Elapsed  time.Duration
}

// Until 反复执行 probe 直到 Ready/Failed、超时或 ctx 取消
func Until(ctx context.Context, opts Options, probe Probe) Result {
	start := time.Now()
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}

	var deadline <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	res := Result{}
	for {
		if err := ctx.Err(); err != nil {
			res.Status, res.Err, res.Elapsed = Canceled, err, time.Since(start)
			return res
		}

		status, err := probe(ctx)
		res.Attempts++
		if err != nil {
			res.Err = err
		}
		switch status {
		case Ready:
			res.Status, res.Err, res.Elapsed = Ready, nil, time.Since(start)
			return res
		case Failed:
			res.Status, res.Elapsed = Failed, time.Since(start)
			return res
		}

		select {
		case <-ctx.Done():
			res.Status, res.Err, res.Elapsed = Canceled, ctx.Err(), time.Since(start)
			return res
		case <-deadline:
			res.Status, res.Elapsed = TimedOut, time.Since(start)
			return res
		case <-ticker.C:
		}
	}
}

// Sleep 可被 ctx 打断的等待
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
