package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"
)

// Capturer 人工登录并保存会话
type Capturer struct {
	launcher    browser.Launcher
	store       *Store
	checkpoint  Checkpoint
	interactive bool
}

// NewCapturer 创建登录器。interactive 为 false 时 Capture 一律拒绝
func NewCapturer(launcher browser.Launcher, store *Store, checkpoint Checkpoint, interactive bool) *Capturer {
	return &Capturer{launcher: launcher, store: store, checkpoint: checkpoint, interactive: interactive}
}

// Interactive 是否允许人工登录
func (c *Capturer) Interactive() bool { return c.interactive }

// Capture 打开可见浏览器等待人工登录，确认后保存 storage state
func (c *Capturer) Capture(ctx context.Context, p platform.Profile, account string) (*Session, error) {
	if !c.interactive {
		return nil, types.NewConfigurationError("%s/%s 需要登录，但未开启交互模式", p.Name, account)
	}
	if c.checkpoint == nil {
		return nil, types.NewConfigurationError("交互模式缺少人工检查点")
	}

	bctx, err := c.launcher.Open(ctx, browser.ContextOptions{Platform: p.Name, Visible: true})
	if err != nil {
		return nil, fmt.Errorf("打开登录浏览器失败: %w", err)
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("创建登录页面失败: %w", err)
	}

	loginURL := p.LoginURL
	if loginURL == "" {
		loginURL = p.CreateURL
	}
	if err := page.Navigate(ctx, loginURL); err != nil {
		return nil, err
	}

	name := p.DisplayName
	if name == "" {
		name = p.Name
	}
	utils.InfoWithPlatform(p.Name, fmt.Sprintf("等待账号 %s 在浏览器中完成登录", account))
	if err := c.checkpoint.Await(ctx, fmt.Sprintf("请在浏览器中登录 %s（账号 %s）", name, account)); err != nil {
		return nil, fmt.Errorf("等待登录被中断: %w", err)
	}

	state, err := bctx.StorageState()
	if err != nil {
		return nil, fmt.Errorf("导出登录状态失败: %w", err)
	}
	if missing := browser.MissingCookies(state, p.Cookies); len(missing) > 0 {
		utils.WarnWithPlatform(p.Name, fmt.Sprintf("登录后仍缺少 Cookie: %s，会话可能不可用", strings.Join(missing, ", ")))
	}

	sess := &Session{Platform: p.Name, Account: account, State: state, LastValidated: time.Now()}
	if err := c.store.Save(sess); err != nil {
		return nil, err
	}
	utils.SuccessWithPlatform(p.Name, fmt.Sprintf("账号 %s 登录状态已保存", account))
	return sess, nil
}
