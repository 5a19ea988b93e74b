package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"Fpublisher/internal/config"
	"Fpublisher/internal/utils"
	"Fpublisher/internal/utils/retry"
)

// PoolStats 浏览器池统计信息
type PoolStats struct {
	BrowserCount int       `json:"browser_count"`
	OpenContexts int       `json:"open_contexts"`
	MaxContexts  int       `json:"max_contexts"`
	Opened       int       `json:"opened"` // 累计打开次数
	Timestamp    time.Time `json:"timestamp"`
}

// PoolConfig 浏览器池配置
type PoolConfig struct {
	MaxContexts    int
	Headed         bool
	ExecutablePath string
	Locale         string
	TimezoneID     string
	SlowMo         time.Duration
	AntiDetect     bool
	ActionTimeout  time.Duration
	ScreenshotDir  string
}

// PoolConfigFrom 从应用配置生成
func PoolConfigFrom(c config.BrowserConfig) PoolConfig {
	return PoolConfig{
		MaxContexts:    c.MaxContexts,
		Headed:         c.Headed,
		ExecutablePath: c.ExecutablePath,
		Locale:         c.Locale,
		TimezoneID:     c.TimezoneID,
		SlowMo:         time.Duration(c.SlowMoMs) * time.Millisecond,
		AntiDetect:     true,
		ActionTimeout:  30 * time.Second,
		ScreenshotDir:  c.ScreenshotDir,
	}
}

// Pool 浏览器池
// 共享一个 playwright 进程，无头与可见各一个浏览器实例，同时打开的上下文数受 MaxContexts 限制
type Pool struct {
	cfg      PoolConfig
	pw       *playwright.Playwright
	browsers map[bool]playwright.Browser // key: 是否可见
	slots    chan struct{}
	mutex    sync.Mutex
	opened   int
}

// NewPool 创建浏览器池，浏览器在首次 Open 时启动
func NewPool(cfg PoolConfig) *Pool {
	if cfg.MaxContexts <= 0 {
		cfg.MaxContexts = 4
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 30 * time.Second
	}
	return &Pool{
		cfg:      cfg,
		browsers: make(map[bool]playwright.Browser),
		slots:    make(chan struct{}, cfg.MaxContexts),
	}
}

// Open 打开一个上下文，池满时阻塞直到有空位或 ctx 取消
func (p *Pool) Open(ctx context.Context, opts ContextOptions) (Context, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	pooled, err := p.open(ctx, opts)
	if err != nil {
		<-p.slots
		return nil, err
	}
	return pooled, nil
}

func (p *Pool) open(ctx context.Context, opts ContextOptions) (*PooledContext, error) {
	visible := opts.Visible || p.cfg.Headed
	b, err := retry.DoWithResult(ctx, launchRetryConfig(), func() (playwright.Browser, error) {
		return p.browserFor(visible)
	})
	if err != nil {
		return nil, err
	}

	contextOptions := playwright.BrowserNewContextOptions{
		Locale:      playwright.String(p.cfg.Locale),
		TimezoneId:  playwright.String(p.cfg.TimezoneID),
		ColorScheme: playwright.ColorSchemeLight,
	}
	if p.cfg.AntiDetect {
		applyFingerprint(&contextOptions)
	}

	if len(opts.State) > 0 {
		statePath, cleanup, err := writeTempState(opts.State)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		contextOptions.StorageStatePath = playwright.String(statePath)
	}

	bctx, err := b.NewContext(contextOptions)
	if err != nil {
		return nil, fmt.Errorf("create context failed: %w", err)
	}
	if p.cfg.AntiDetect {
		if err := injectStealthScript(bctx); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("inject stealth script failed: %w", err)
		}
	}

	p.mutex.Lock()
	p.opened++
	p.mutex.Unlock()

	return &PooledContext{
		context:  bctx,
		pool:     p,
		platform: opts.Platform,
	}, nil
}

func launchRetryConfig() *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = 2
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		utils.Warn(fmt.Sprintf("[-] 启动浏览器失败，第 %d 次重试（%v 后）: %v", attempt, delay, err))
	}
	return cfg
}

// browserFor 获取或启动浏览器实例
func (p *Pool) browserFor(visible bool) (playwright.Browser, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if b, ok := p.browsers[visible]; ok && b.IsConnected() {
		return b, nil
	}

	if p.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("start playwright failed: %w", err)
		}
		p.pw = pw
	}

	launchOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!visible),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-dev-shm-usage",
			"--window-size=1920,1080",
			"--disable-infobars",
			"--disable-extensions",
			"--disable-sync",
			"--disable-translate",
		},
	}
	if p.cfg.SlowMo > 0 {
		launchOptions.SlowMo = playwright.Float(float64(p.cfg.SlowMo.Milliseconds()))
	}
	if chromePath := p.chromePath(); chromePath != "" {
		launchOptions.ExecutablePath = playwright.String(chromePath)
		utils.Info(fmt.Sprintf("[-] 浏览器池使用本地 Chrome: %s", chromePath))
	}

	b, err := p.pw.Chromium.Launch(launchOptions)
	if err != nil {
		return nil, fmt.Errorf("launch browser failed: %w", err)
	}
	p.browsers[visible] = b
	return b, nil
}

func (p *Pool) chromePath() string {
	if p.cfg.ExecutablePath != "" {
		return p.cfg.ExecutablePath
	}
	for _, path := range []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		os.Getenv("LOCALAPPDATA") + `\Google\Chrome\Application\chrome.exe`,
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Stats 获取浏览器池统计信息
func (p *Pool) Stats() PoolStats {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return PoolStats{
		BrowserCount: len(p.browsers),
		OpenContexts: len(p.slots),
		MaxContexts:  p.cfg.MaxContexts,
		Opened:       p.opened,
		Timestamp:    time.Now(),
	}
}

// Close 关闭浏览器池
func (p *Pool) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for visible, b := range p.browsers {
		if err := b.Close(); err != nil {
			utils.Warn(fmt.Sprintf("[-] 关闭浏览器失败: %v", err))
		}
		delete(p.browsers, visible)
	}
	if p.pw != nil {
		if err := p.pw.Stop(); err != nil {
			return fmt.Errorf("stop playwright failed: %w", err)
		}
		p.pw = nil
	}
	return nil
}

// applyFingerprint 随机化 UA 与视口
func applyFingerprint(opts *playwright.BrowserNewContextOptions) {
	chromeVersions := []string{"122", "123", "124", "125", "126"}
	version := chromeVersions[rand.Intn(len(chromeVersions))]

	opts.UserAgent = playwright.String(fmt.Sprintf(
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s.0.0.0 Safari/537.36",
		version,
	))
	opts.Viewport = &playwright.Size{
		Width:  1920 + rand.Intn(100) - 50,
		Height: 1080 + rand.Intn(100) - 50,
	}
	opts.ExtraHttpHeaders = map[string]string{
		"Accept-Language":    "zh-CN,zh;q=0.9,en;q=0.8",
		"Sec-Ch-Ua":          fmt.Sprintf(`"Not_A Brand";v="8", "Chromium";v="%s", "Google Chrome";v="%s"`, version, version),
		"Sec-Ch-Ua-Mobile":   "?0",
		"Sec-Ch-Ua-Platform": `"Windows"`,
	}
}

const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['zh-CN', 'zh', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
window.chrome = window.chrome || { runtime: {} };
`

func injectStealthScript(bctx playwright.BrowserContext) error {
	return bctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)})
}

// writeTempState playwright 只接受文件路径形式的 storage state
func writeTempState(state []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "fpublisher-state-*.json")
	if err != nil {
		return "", nil, fmt.Errorf("create state file failed: %w", err)
	}
	if _, err := f.Write(state); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("write state file failed: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

// PooledContext 池化的浏览器上下文
type PooledContext struct {
	context   playwright.BrowserContext
	pool      *Pool
	platform  string
	closeOnce sync.Once
	closeErr  error
}

// NewPage 创建页面
func (c *PooledContext) NewPage() (Page, error) {
	page, err := c.context.NewPage()
	if err != nil {
		return nil, err
	}

	timeout := float64(c.pool.cfg.ActionTimeout.Milliseconds())
	page.SetDefaultTimeout(timeout)
	page.SetDefaultNavigationTimeout(timeout)

	page.On("close", func() {
		utils.DebugWithPlatform(c.platform, "浏览器页面已关闭")
	})

	return &PlaywrightPage{
		page:          page,
		platform:      c.platform,
		screenshotDir: c.pool.cfg.ScreenshotDir,
	}, nil
}

// StorageState 导出 storage state JSON
func (c *PooledContext) StorageState() ([]byte, error) {
	state, err := c.context.StorageState()
	if err != nil {
		return nil, err
	}
	return json.Marshal(state)
}

// Close 关闭上下文并归还池位
func (c *PooledContext) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.context.Close()
		<-c.pool.slots
	})
	return c.closeErr
}
