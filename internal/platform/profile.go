// Package platform 描述各平台的页面结构。平台是数据而不是实现：
// 发布状态机只依赖 Profile 中的选择器、标记与能力开关。
package platform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform/browser"
)

// MarkerMode 会话探测标记的语义
type MarkerMode string

const (
	MarkerPresentMeansValid   MarkerMode = "present-means-valid"
	MarkerPresentMeansExpired MarkerMode = "present-means-expired"
)

// Probe 会话探测
type Probe struct {
	URL    string
	Marker string
	Mode   MarkerMode
	API    *APIProbe // 非空时改用接口探测
}

// APIProbe 接口方式的会话探测，响应为 JSON
type APIProbe struct {
	URL        string
	CookieHost string
	Headers    map[string]string
	CodePath   string // 为空则不检查
	OKCode     int64
	LoginPath  string // 布尔字段路径，如 data.isLogin
}

// Indicator 页面状态判定，Selectors 任一存在或 URL 包含 URLContains 即命中
type Indicator struct {
	Selectors     []string
	URLContains   string
	ClassExcludes string // 命中元素的 class 不得包含该值，用于判断按钮是否可用
}

// IsZero 未配置
func (i Indicator) IsZero() bool {
	return len(i.Selectors) == 0 && i.URLContains == ""
}

// Check 判定页面是否满足
func (i Indicator) Check(page browser.Page) (bool, error) {
	if i.URLContains != "" && strings.Contains(page.URL(), i.URLContains) {
		return true, nil
	}
	var lastErr error
	for _, sel := range i.Selectors {
		n, err := page.Count(sel)
		if err != nil {
			lastErr = err
			continue
		}
		if n == 0 {
			continue
		}
		if i.ClassExcludes == "" {
			return true, nil
		}
		class, err := page.Attribute(sel, "class")
		if err != nil {
			lastErr = err
			continue
		}
		if !strings.Contains(class, i.ClassExcludes) {
			return true, nil
		}
	}
	return false, lastErr
}

// TitleEntry 标题输入
type TitleEntry struct {
	Selectors  []string // 依次尝试
	Clear      bool     // 输入前全选删除
	PressEnter bool     // 标题与话题在同一编辑器时换行
}

// TagEntry 话题输入
type TagEntry struct {
	Cap        int    // 0 不限
	Trigger    string // 每个话题前点击
	Input      string // 输入框，空则使用当前焦点
	Prefix     string
	Commit     string // 提交按键，如 Space、Enter
	Suggestion string // 候选列表项，存在时点击第一个
}

// ShortTitle 短标题
type ShortTitle struct {
	Selector string
	Min      int
	Max      int
}

// Cover 封面上传
type Cover struct {
	Open    string
	Input   string
	Confirm string
}

// Category 原创声明与分类
type Category struct {
	Open    string
	Option  string // fmt 模板，%s 为分类名
	Confirm string
}

// ScheduleKind 定时控件类型
type ScheduleKind string

const (
	ScheduleTyped       ScheduleKind = "typed"        // 直接在输入框键入完整时间
	ScheduleMonthPicker ScheduleKind = "month-picker" // 翻月后点选日期，再键入时间
)

// Schedule 定时发布控件
type Schedule struct {
	Kind          ScheduleKind
	Toggle        string
	ToggleIndex   int
	DateInput     string
	TypedLayout   string // time.Format 布局
	MonthLabel    string
	MonthFormat   string // fmt 模板，参数为月份
	NextMonth     string
	DayCells      string
	DisabledClass string
	TimeInput     string
	TimeLayout    string
	Commit        string // 输入后点击的位置，空则按 Enter
	MinuteStep    int    // 分钟向上取整到该步长
}

// Recovery 上传失败后的恢复方式
type Recovery struct {
	Delete        string
	DeleteConfirm string
	FileInput     string // 重新选择文件的输入框，空则沿用 FileInputs
	ResetsForm    bool   // 恢复后表单被清空，需要重新填写
}

// Publish 发布与确认
type Publish struct {
	Button          string
	ScheduledButton string // 定时发布使用的按钮，空则同 Button
	Confirm         string
	Success         Indicator
	Failure         Indicator
}

// Profile 一个平台的完整描述
type Profile struct {
	Name          string
	DisplayName   string
	LoginURL      string
	CreateURL     string
	Probe         Probe
	Cookies       []browser.CookieDomainConfig
	FileInputs    []string
	EditSurface   Indicator
	Dismiss       []string // 上传后可能弹出的提示
	Title         TitleEntry
	Tags          TagEntry
	ShortTitle    *ShortTitle
	Cover         *Cover
	Category      *Category
	UploadSuccess Indicator
	UploadFailure Indicator
	Recovery      Recovery
	Schedule      *Schedule
	Publish       Publish
	Timing        config.Timing
}

// SupportsCover 是否支持封面
func (p Profile) SupportsCover() bool { return p.Cover != nil }

// SupportsSchedule 是否支持定时
func (p Profile) SupportsSchedule() bool { return p.Schedule != nil }

// CanRecover 上传失败时能否自动恢复
func (p Profile) CanRecover() bool {
	return p.Recovery.Delete != "" || p.Recovery.FileInput != ""
}

// RetryInputs 恢复时重新选择文件的输入框
func (p Profile) RetryInputs() []string {
	if p.Recovery.FileInput != "" {
		return append([]string{p.Recovery.FileInput}, p.FileInputs...)
	}
	return p.FileInputs
}

// Validate 检查必填项
func (p Profile) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("缺少 Name"))
	}
	if p.CreateURL == "" {
		errs = append(errs, errors.New("缺少 CreateURL"))
	}
	if len(p.FileInputs) == 0 {
		errs = append(errs, errors.New("缺少 FileInputs"))
	}
	if len(p.Title.Selectors) == 0 {
		errs = append(errs, errors.New("缺少 Title.Selectors"))
	}
	if p.UploadSuccess.IsZero() {
		errs = append(errs, errors.New("缺少 UploadSuccess"))
	}
	if p.Publish.Button == "" || p.Publish.Success.IsZero() {
		errs = append(errs, errors.New("缺少 Publish 配置"))
	}
	if p.Probe.API == nil && (p.Probe.URL == "" || p.Probe.Marker == "") {
		errs = append(errs, errors.New("缺少 Probe 配置"))
	}
	if s := p.Schedule; s != nil {
		switch s.Kind {
		case ScheduleTyped:
			if s.DateInput == "" || s.TypedLayout == "" {
				errs = append(errs, errors.New("typed 定时控件缺少 DateInput/TypedLayout"))
			}
		case ScheduleMonthPicker:
			if s.MonthLabel == "" || s.NextMonth == "" || s.DayCells == "" || s.TimeInput == "" {
				errs = append(errs, errors.New("month-picker 定时控件不完整"))
			}
		default:
			errs = append(errs, fmt.Errorf("未知定时控件类型 %q", s.Kind))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("平台 %s: %w", p.Name, errors.Join(errs...))
	}
	return nil
}

// baseTiming 平台未声明的参数取通用默认值
func (p Profile) baseTiming() config.Timing {
	t := config.DefaultTiming()
	if p.Timing.UploadPollInterval > 0 {
		t.UploadPollInterval = p.Timing.UploadPollInterval
	}
	if p.Timing.PublishPollInterval > 0 {
		t.PublishPollInterval = p.Timing.PublishPollInterval
	}
	if p.Timing.UploadTimeout > 0 {
		t.UploadTimeout = p.Timing.UploadTimeout
	}
	if p.Timing.PublishTimeout > 0 {
		t.PublishTimeout = p.Timing.PublishTimeout
	}
	if p.Timing.FileAcceptTimeout > 0 {
		t.FileAcceptTimeout = p.Timing.FileAcceptTimeout
	}
	if p.Timing.PublishClickWait > 0 {
		t.PublishClickWait = p.Timing.PublishClickWait
	}
	if p.Timing.MaxUploadRetries > 0 {
		t.MaxUploadRetries = p.Timing.MaxUploadRetries
	}
	return t
}

// Options 合并平台默认值与配置覆盖
func (p Profile) Options(cfg *config.AppConfig) (config.PlatformOptions, error) {
	if cfg == nil {
		return config.PlatformConfig{}.Resolve(p.baseTiming())
	}
	return cfg.PlatformOptions(p.Name, p.baseTiming())
}

// TagCap 实际生效的话题上限，0 不限
func TagCap(p Profile, opts config.PlatformOptions) int {
	if opts.TagCap != nil {
		return *opts.TagCap
	}
	return p.Tags.Cap
}

// RoundUp 按步长向上取整分钟
func RoundUp(t time.Time, step int) time.Time {
	if step <= 1 {
		return t
	}
	rem := t.Minute() % step
	if rem == 0 {
		return t
	}
	return t.Add(time.Duration(step-rem) * time.Minute)
}

// Registry 平台注册表
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry 注册平台，重名时后者覆盖前者
func NewRegistry(profiles ...Profile) *Registry {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		r.profiles[p.Name] = p
	}
	return r
}

// Get 按名称获取
func (r *Registry) Get(name string) (Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("不支持的平台: %s", name)
	}
	return p, nil
}

// Names 已注册平台，按名称排序
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate 校验全部平台
func (r *Registry) Validate() error {
	var errs []error
	for _, name := range r.Names() {
		if err := r.profiles[name].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
