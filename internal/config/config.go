package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	yamlenv "github.com/ifuryst/go-yaml-env"

	"Fpublisher/internal/types"
)

const (
	DefaultStorageDir  = "storage"
	DefaultCookieDir   = "cookies"
	DefaultLedgerDir   = "ledger"
	DefaultLockDir     = "locks"
	DefaultLogDir      = "logs"
	DefaultDbFile      = "fpublisher.db"
	DefaultAccount     = "default"
	DefaultJobInterval = "30s"
)

// DefaultDailyTimes 默认每日发布时段（小时）
var DefaultDailyTimes = []int{6, 11, 14, 16, 22}

type AppConfig struct {
	Storage   StorageConfig             `yaml:"storage"`
	Database  DatabaseConfig            `yaml:"database"`
	Logger    LoggerConfig              `yaml:"logger"`
	Browser   BrowserConfig             `yaml:"browser"`
	Session   SessionConfig             `yaml:"session"`
	Schedule  ScheduleConfig            `yaml:"schedule"`
	Content   ContentConfig             `yaml:"content"`
	Runner    RunnerConfig              `yaml:"runner"`
	Platforms map[string]PlatformConfig `yaml:"platforms"`
}

type StorageConfig struct {
	Dir          string `yaml:"dir"`
	CookieDir    string `yaml:"cookie_dir"`
	LedgerDir    string `yaml:"ledger_dir"`
	LockDir      string `yaml:"lock_dir"`
	LogDir       string `yaml:"log_dir"`
	LedgerFormat string `yaml:"ledger_format"` // txt | json | db
	IdentityKey  string `yaml:"identity_key"`  // path | name | sha256
}

type DatabaseConfig struct {
	Type     string `yaml:"type"` // sqlite | postgres
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
	History  bool   `yaml:"history"` // 记录每次任务执行结果
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	TimeFormat string `yaml:"time_format"`
	Timezone   string `yaml:"timezone"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type BrowserConfig struct {
	Headed         bool   `yaml:"headed"` // 默认无头
	ExecutablePath string `yaml:"executable_path"`
	Locale         string `yaml:"locale"`
	TimezoneID     string `yaml:"timezone_id"`
	MaxContexts    int    `yaml:"max_contexts"`
	SlowMoMs       int    `yaml:"slow_mo_ms"`
	ScreenshotDir  string `yaml:"screenshot_dir"`
}

type SessionConfig struct {
	Interactive  bool   `yaml:"interactive"`
	ProbeTimeout string `yaml:"probe_timeout"`
}

type ScheduleConfig struct {
	Immediate      bool  `yaml:"immediate"` // 不定时，全部立即发布
	DailyTimes     []int `yaml:"daily_times"`
	VideosPerDay   int   `yaml:"videos_per_day"`
	StartDayOffset *int  `yaml:"start_day_offset"`
	JitterMinutes  int   `yaml:"jitter_minutes"`
}

type ContentConfig struct {
	Policy        string   `yaml:"policy"` // sidecar | pool
	TitlePool     []string `yaml:"title_pool"`
	TitlePoolFile string   `yaml:"title_pool_file"`
	Tags          []string `yaml:"tags"`
	PoolSuffix    string   `yaml:"pool_suffix"`
	CoverDir      string   `yaml:"cover_dir"`
	CoverFrameAt  int      `yaml:"cover_frame_at"` // 无封面图时用 ffmpeg 抽取该秒的画面，0 不抽取
	FrameDir      string   `yaml:"frame_dir"`
	Decorate      bool     `yaml:"decorate"`
	Emojis        []string `yaml:"emojis"`
}

type RunnerConfig struct {
	JobInterval           string `yaml:"job_interval"`
	JobTimeout            string `yaml:"job_timeout"`
	MaxPerRun             int    `yaml:"max_per_run"`
	Shuffle               bool   `yaml:"shuffle"`
	MaxConcurrentAccounts int    `yaml:"max_concurrent_accounts"`
}

// PlatformConfig 平台级覆盖项，未填写的使用平台默认值
type PlatformConfig struct {
	Accounts            []string `yaml:"accounts"`
	UploadPollInterval  string   `yaml:"upload_poll_interval"`
	PublishPollInterval string   `yaml:"publish_poll_interval"`
	UploadTimeout       string   `yaml:"upload_timeout"`
	PublishTimeout      string   `yaml:"publish_timeout"`
	FileAcceptTimeout   string   `yaml:"file_accept_timeout"`
	PublishClickWait    string   `yaml:"publish_click_wait"`
	MaxUploadRetries    *int     `yaml:"max_upload_retries"`
	TagCap              *int     `yaml:"tag_cap"`
	TagOverflow         string   `yaml:"tag_overflow"` // truncate | reject
	Category            string   `yaml:"category"`
}

// Load 读取 YAML 配置（支持环境变量展开），补全默认值并校验
func Load(path string) (*AppConfig, error) {
	cfg, err := yamlenv.LoadConfig[AppConfig](path)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 无配置文件时的默认配置，存储目录位于 baseDir 下
func Default(baseDir string) *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults(baseDir)
	return cfg
}

func (c *AppConfig) applyDefaults(baseDir string) {
	if c.Storage.Dir == "" {
		c.Storage.Dir = filepath.Join(baseDir, DefaultStorageDir)
	}
	if c.Storage.CookieDir == "" {
		c.Storage.CookieDir = filepath.Join(c.Storage.Dir, DefaultCookieDir)
	}
	if c.Storage.LedgerDir == "" {
		c.Storage.LedgerDir = filepath.Join(c.Storage.Dir, DefaultLedgerDir)
	}
	if c.Storage.LockDir == "" {
		c.Storage.LockDir = filepath.Join(c.Storage.Dir, DefaultLockDir)
	}
	if c.Storage.LogDir == "" {
		c.Storage.LogDir = filepath.Join(c.Storage.Dir, DefaultLogDir)
	}
	if c.Storage.LedgerFormat == "" {
		c.Storage.LedgerFormat = "txt"
	}
	if c.Storage.IdentityKey == "" {
		c.Storage.IdentityKey = "path"
	}

	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type == "sqlite" && c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.Storage.Dir, DefaultDbFile)
	}
	if c.Database.Type == "postgres" {
		if c.Database.Host == "" {
			c.Database.Host = "localhost"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
		if c.Database.TimeZone == "" {
			c.Database.TimeZone = "UTC"
		}
	}

	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "console"
	}
	if c.Logger.MaxSizeMB == 0 {
		c.Logger.MaxSizeMB = 50
	}

	if c.Browser.MaxContexts == 0 {
		c.Browser.MaxContexts = 4
	}
	if c.Browser.Locale == "" {
		c.Browser.Locale = "zh-CN"
	}
	if c.Browser.TimezoneID == "" {
		c.Browser.TimezoneID = "Asia/Shanghai"
	}

	if c.Session.ProbeTimeout == "" {
		c.Session.ProbeTimeout = "5s"
	}

	if len(c.Schedule.DailyTimes) == 0 {
		c.Schedule.DailyTimes = append([]int(nil), DefaultDailyTimes...)
	}
	if c.Schedule.VideosPerDay == 0 {
		c.Schedule.VideosPerDay = 1
	}
	if c.Schedule.StartDayOffset == nil {
		one := 1
		c.Schedule.StartDayOffset = &one
	}

	if c.Content.Policy == "" {
		c.Content.Policy = "sidecar"
	}

	if c.Runner.JobInterval == "" {
		c.Runner.JobInterval = DefaultJobInterval
	}
	if c.Runner.MaxConcurrentAccounts == 0 {
		c.Runner.MaxConcurrentAccounts = 2
	}

	if c.Platforms == nil {
		c.Platforms = map[string]PlatformConfig{}
	}
}

// Validate 校验配置，所有问题都以 ConfigurationError 返回
func (c *AppConfig) Validate() error {
	switch c.Storage.LedgerFormat {
	case "txt", "json", "db":
	default:
		return types.NewConfigurationError("storage.ledger_format 不支持: %q", c.Storage.LedgerFormat)
	}
	switch c.Storage.IdentityKey {
	case "path", "name", "sha256":
	default:
		return types.NewConfigurationError("storage.identity_key 不支持: %q", c.Storage.IdentityKey)
	}
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return types.NewConfigurationError("database.type 不支持: %q", c.Database.Type)
	}
	switch c.Content.Policy {
	case "sidecar", "pool":
	default:
		return types.NewConfigurationError("content.policy 不支持: %q", c.Content.Policy)
	}
	if c.Schedule.VideosPerDay <= 0 {
		return types.NewConfigurationError("schedule.videos_per_day 必须大于 0")
	}
	for _, h := range c.Schedule.DailyTimes {
		if h < 0 || h > 23 {
			return types.NewConfigurationError("schedule.daily_times 小时越界: %d", h)
		}
	}
	if *c.Schedule.StartDayOffset < 0 {
		return types.NewConfigurationError("schedule.start_day_offset 不能为负")
	}
	if c.Schedule.JitterMinutes < 0 || c.Schedule.JitterMinutes >= 60 {
		return types.NewConfigurationError("schedule.jitter_minutes 必须在 [0,60) 内")
	}
	if c.Runner.MaxConcurrentAccounts < 0 || c.Runner.MaxPerRun < 0 {
		return types.NewConfigurationError("runner 数值不能为负")
	}

	for _, d := range []struct{ name, value string }{
		{"session.probe_timeout", c.Session.ProbeTimeout},
		{"runner.job_interval", c.Runner.JobInterval},
		{"runner.job_timeout", c.Runner.JobTimeout},
	} {
		if _, err := ParseDuration(d.value); err != nil {
			return types.NewConfigurationError("%s: %v", d.name, err)
		}
	}

	for name, p := range c.Platforms {
		if _, err := p.Resolve(Timing{}); err != nil {
			return types.NewConfigurationError("platforms.%s: %v", name, err)
		}
	}
	return nil
}

// EnsureDirs 创建存储目录
func (c *AppConfig) EnsureDirs() error {
	dirs := []string{
		c.Storage.Dir,
		c.Storage.CookieDir,
		c.Storage.LedgerDir,
		c.Storage.LockDir,
		c.Storage.LogDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s failed: %w", dir, err)
		}
	}
	return nil
}

// CookiePath 会话文件路径
func (c *AppConfig) CookiePath(platform, account string) string {
	return filepath.Join(c.Storage.CookieDir, fmt.Sprintf("%s_%s.json", platform, account))
}

// LedgerPath 台账文件路径
func (c *AppConfig) LedgerPath(platform, account string) string {
	ext := "txt"
	if c.Storage.LedgerFormat == "json" {
		ext = "json"
	}
	return filepath.Join(c.Storage.LedgerDir, fmt.Sprintf("%s_%s.%s", platform, account, ext))
}

// Accounts 平台下配置的账号，未配置时为 default
func (c *AppConfig) Accounts(platform string) []string {
	if p, ok := c.Platforms[platform]; ok && len(p.Accounts) > 0 {
		return p.Accounts
	}
	return []string{DefaultAccount}
}

func (c *AppConfig) ProbeTimeout() time.Duration {
	d, _ := ParseDuration(c.Session.ProbeTimeout)
	if d <= 0 {
		return 5 * time.Second
	}
	return d
}

func (c *AppConfig) JobInterval() time.Duration {
	d, _ := ParseDuration(c.Runner.JobInterval)
	return d
}

func (c *AppConfig) JobTimeout() time.Duration {
	d, _ := ParseDuration(c.Runner.JobTimeout)
	return d
}

// ParseDuration 空串视为 0
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("时长不能为负: %s", s)
	}
	return d, nil
}
