package browser

import (
	"context"
	"time"
)

// Page 发布流程依赖的页面原语，selector 均为 playwright 选择器语法，操作作用于首个匹配元素
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Count(selector string) (int, error)
	Click(selector string) error
	ClickNth(selector string, n int) error
	Fill(selector, text string) error
	Type(text string) error // 键盘输入到当前焦点
	Press(key string) error
	SetInputFiles(selector, path string) error
	InnerText(selector string) (string, error)
	Attribute(selector, name string) (string, error)
	Elements(selector string) ([]Element, error)
	URL() string
	Evaluate(script string, arg any) (any, error)
	Screenshot(name string) error
	Close() error
}

// Element 元素快照
type Element struct {
	Text  string
	Class string
}

// Context 独立的浏览器上下文（独立 cookie 空间）
type Context interface {
	NewPage() (Page, error)
	// StorageState 导出当前会话（cookie + localStorage）
	StorageState() ([]byte, error)
	Close() error
}

// Launcher 打开浏览器上下文
type Launcher interface {
	Open(ctx context.Context, opts ContextOptions) (Context, error)
}

// ContextOptions 上下文选项
type ContextOptions struct {
	Platform string
	State    []byte // 为空时以全新会话打开
	Visible  bool   // 人工登录时需要可见窗口
}
