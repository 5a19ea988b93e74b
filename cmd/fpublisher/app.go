package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"Fpublisher/internal/config"
	"Fpublisher/internal/database"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
	"Fpublisher/internal/platform/builtin"
	"Fpublisher/internal/platform/session"
	"Fpublisher/internal/service"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"
)

// app 一次命令执行所需的全部组件
type app struct {
	cfg      *config.AppConfig
	registry *platform.Registry
	pool     *browser.Pool
	store    *session.Store
	accounts *service.AccountService
	db       *gorm.DB
	logs     *service.LogService
}

// loadConfig 未显式指定且默认配置文件不存在时使用内置默认值
func loadConfig() (*config.AppConfig, error) {
	var cfg *config.AppConfig
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
		cfg = config.Default(".")
	} else {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, types.NewStateIOError("创建存储目录", err)
	}
	return cfg, nil
}

func newApp(interactive bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := utils.InitLogger(cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logs := service.NewLogService(0)
	utils.SetLogService(logs)

	registry := builtin.Registry()
	if err := registry.Validate(); err != nil {
		return nil, types.NewConfigurationError("%v", err)
	}

	a := &app{
		cfg:      cfg,
		registry: registry,
		pool:     browser.NewPool(browser.PoolConfigFrom(cfg.Browser)),
		store:    session.NewStore(cfg.Storage.CookieDir),
		logs:     logs,
	}

	if cfg.Storage.LedgerFormat == "db" || cfg.Database.History {
		db, err := database.Open(cfg.Database)
		if err != nil {
			a.close()
			return nil, types.NewStateIOError("打开数据库", err)
		}
		a.db = db
	}

	interactive = interactive || cfg.Session.Interactive
	validator := session.NewValidator(a.pool, cfg.ProbeTimeout())
	capturer := session.NewCapturer(a.pool, a.store, session.NewStdinCheckpoint(), interactive)
	a.accounts = service.NewAccountService(a.store, validator, capturer, a.onEvent)
	return a, nil
}

func (a *app) onEvent(e types.Event) {
	switch ev := e.(type) {
	case types.LoginRequiredEvent:
		if !ev.Interactive {
			utils.WarnWithPlatform(ev.Platform, fmt.Sprintf("账号 %s 需要登录，请运行 fpublisher login -p %s -a %s", ev.Account, ev.Platform, ev.Account))
		}
	case types.PhaseChangedEvent:
		utils.DebugWithPlatform(ev.Platform, fmt.Sprintf("%s: %s -> %s", ev.Key, ev.From, ev.To))
	}
}

// accountsFor 命令行指定的账号优先，否则取配置
func (a *app) accountsFor(platformName string, flagAccounts []string) []string {
	if len(flagAccounts) > 0 {
		return flagAccounts
	}
	return a.cfg.Accounts(platformName)
}

// platformsFor 命令行指定的平台优先，否则取配置中出现的平台
func (a *app) platformsFor(flagPlatforms []string) ([]platform.Profile, error) {
	names := flagPlatforms
	if len(names) == 0 {
		for _, name := range a.registry.Names() {
			if _, ok := a.cfg.Platforms[name]; ok {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		return nil, types.NewConfigurationError("请用 --platform 指定平台，或在配置的 platforms 中列出")
	}
	profiles := make([]platform.Profile, 0, len(names))
	for _, name := range names {
		p, err := a.registry.Get(name)
		if err != nil {
			return nil, types.NewConfigurationError("%v", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (a *app) close() {
	if a.logs != nil {
		a.logs.Close()
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			utils.Warn(fmt.Sprintf("[-] 关闭浏览器池失败: %v", err))
		}
	}
	if err := database.Close(a.db); err != nil {
		utils.Warn(fmt.Sprintf("[-] 关闭数据库失败: %v", err))
	}
	utils.Sync()
}

// signalContext 收到中断信号时取消
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
