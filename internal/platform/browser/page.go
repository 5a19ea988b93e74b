package browser

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"Fpublisher/internal/utils"
)

// PlaywrightPage 基于 playwright 的 Page 实现
type PlaywrightPage struct {
	page          playwright.Page
	platform      string
	screenshotDir string
}

// NewPlaywrightPage 包装已有的 playwright 页面
func NewPlaywrightPage(page playwright.Page, platform string) *PlaywrightPage {
	return &PlaywrightPage{page: page, platform: platform}
}

func (p *PlaywrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("打开 %s 失败: %w", url, err)
	}
	return nil
}

func (p *PlaywrightPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *PlaywrightPage) Count(selector string) (int, error) {
	return p.page.Locator(selector).Count()
}

func (p *PlaywrightPage) Click(selector string) error {
	humanLikeDelay(200 * time.Millisecond)
	return p.page.Locator(selector).First().Click()
}

func (p *PlaywrightPage) ClickNth(selector string, n int) error {
	humanLikeDelay(200 * time.Millisecond)
	return p.page.Locator(selector).Nth(n).Click()
}

func (p *PlaywrightPage) Fill(selector, text string) error {
	return p.page.Locator(selector).First().Fill(text)
}

// Type 逐字输入，带随机间隔
func (p *PlaywrightPage) Type(text string) error {
	return p.page.Keyboard().Type(text, playwright.KeyboardTypeOptions{
		Delay: playwright.Float(float64(50 + rand.Intn(80))),
	})
}

func (p *PlaywrightPage) Press(key string) error {
	return p.page.Keyboard().Press(key)
}

func (p *PlaywrightPage) SetInputFiles(selector, path string) error {
	return p.page.Locator(selector).First().SetInputFiles(path)
}

func (p *PlaywrightPage) InnerText(selector string) (string, error) {
	return p.page.Locator(selector).First().InnerText()
}

func (p *PlaywrightPage) Attribute(selector, name string) (string, error) {
	return p.page.Locator(selector).First().GetAttribute(name)
}

func (p *PlaywrightPage) Elements(selector string) ([]Element, error) {
	loc := p.page.Locator(selector)
	n, err := loc.Count()
	if err != nil {
		return nil, err
	}
	elements := make([]Element, 0, n)
	for i := 0; i < n; i++ {
		item := loc.Nth(i)
		text, err := item.InnerText()
		if err != nil {
			return nil, err
		}
		class, _ := item.GetAttribute("class")
		elements = append(elements, Element{Text: text, Class: class})
	}
	return elements, nil
}

func (p *PlaywrightPage) URL() string {
	return p.page.URL()
}

func (p *PlaywrightPage) Evaluate(script string, arg any) (any, error) {
	if arg == nil {
		return p.page.Evaluate(script)
	}
	return p.page.Evaluate(script, arg)
}

// Screenshot 整页截图，未配置目录时跳过
func (p *PlaywrightPage) Screenshot(name string) error {
	if p.screenshotDir == "" {
		return nil
	}
	path := filepath.Join(p.screenshotDir, fmt.Sprintf("screenshot_%s_%s_%s.png", p.platform, time.Now().Format("20060102_150405"), name))
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		utils.WarnWithPlatform(p.platform, fmt.Sprintf("截图失败: %v", err))
		return err
	}
	utils.InfoWithPlatform(p.platform, fmt.Sprintf("截图已保存: %s", path))
	return nil
}

func (p *PlaywrightPage) Close() error {
	return p.page.Close()
}

// humanLikeDelay 模拟人类操作间隔
func humanLikeDelay(base time.Duration) {
	time.Sleep(base + time.Duration(rand.Int63n(int64(base))))
}
