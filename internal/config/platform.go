package config

import (
	"fmt"
	"time"
)

const (
	TagOverflowTruncate = "truncate"
	TagOverflowReject   = "reject"
)

// Timing 状态机的轮询与重试参数
type Timing struct {
	UploadPollInterval  time.Duration
	PublishPollInterval time.Duration
	UploadTimeout       time.Duration // 0 表示不限
	PublishTimeout      time.Duration // 0 表示只受调用方 ctx 约束
	FileAcceptTimeout   time.Duration
	PublishClickWait    time.Duration // 点击发布后等待结果的时间，期间不再点击
	MaxUploadRetries    int
}

// DefaultTiming 通用默认值
func DefaultTiming() Timing {
	return Timing{
		UploadPollInterval:  2 * time.Second,
		PublishPollInterval: time.Second,
		FileAcceptTimeout:   60 * time.Second,
		PublishClickWait:    5 * time.Second,
		MaxUploadRetries:    1,
	}
}

// PlatformOptions 合并后的平台运行参数
type PlatformOptions struct {
	Timing
	TagCap      *int
	TagOverflow string
	Category    string
}

// Resolve 用配置覆盖 base
func (p PlatformConfig) Resolve(base Timing) (PlatformOptions, error) {
	opts := PlatformOptions{Timing: base, TagOverflow: TagOverflowTruncate, Category: p.Category}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"upload_poll_interval", p.UploadPollInterval, &opts.UploadPollInterval},
		{"publish_poll_interval", p.PublishPollInterval, &opts.PublishPollInterval},
		{"upload_timeout", p.UploadTimeout, &opts.UploadTimeout},
		{"publish_timeout", p.PublishTimeout, &opts.PublishTimeout},
		{"file_accept_timeout", p.FileAcceptTimeout, &opts.FileAcceptTimeout},
		{"publish_click_wait", p.PublishClickWait, &opts.PublishClickWait},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := ParseDuration(d.value)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}

	if p.PublishPollInterval != "" {
		if opts.PublishPollInterval < 500*time.Millisecond || opts.PublishPollInterval > 2*time.Second {
			return opts, fmt.Errorf("publish_poll_interval 必须在 0.5s 到 2s 之间")
		}
	}
	if p.PublishClickWait != "" && opts.PublishClickWait <= 0 {
		return opts, fmt.Errorf("publish_click_wait 必须大于 0")
	}
	if p.UploadPollInterval != "" && opts.UploadPollInterval <= 0 {
		return opts, fmt.Errorf("upload_poll_interval 必须大于 0")
	}

	if p.MaxUploadRetries != nil {
		if *p.MaxUploadRetries < 0 {
			return opts, fmt.Errorf("max_upload_retries 不能为负")
		}
		opts.MaxUploadRetries = *p.MaxUploadRetries
	}
	if p.TagCap != nil {
		if *p.TagCap < 0 {
			return opts, fmt.Errorf("tag_cap 不能为负")
		}
		opts.TagCap = p.TagCap
	}

	switch p.TagOverflow {
	case "", TagOverflowTruncate:
	case TagOverflowReject:
		opts.TagOverflow = TagOverflowReject
	default:
		return opts, fmt.Errorf("tag_overflow 不支持: %q", p.TagOverflow)
	}
	return opts, nil
}

// PlatformOptions 取平台运行参数，base 为平台自身默认值
func (c *AppConfig) PlatformOptions(platform string, base Timing) (PlatformOptions, error) {
	return c.Platforms[platform].Resolve(base)
}
