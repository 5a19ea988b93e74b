// Package browsertest 提供可编排的内存浏览器，用于测试发布流程
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"Fpublisher/internal/platform/browser"
)

// ErrNotFound 选择器无匹配
var ErrNotFound = errors.New("element not found")

// Launcher 记录每次 Open，并返回同一个 Page
type Launcher struct {
	mu       sync.Mutex
	Page     *Page
	State    []byte // StorageState 的返回值
	StateErr error
	OpenErr  error
	Opened   []browser.ContextOptions
	Closed   int
}

// NewLauncher 创建假浏览器
func NewLauncher() *Launcher {
	return &Launcher{Page: NewPage(), State: []byte(`{"cookies":[],"origins":[]}`)}
}

func (l *Launcher) Open(ctx context.Context, opts browser.ContextOptions) (browser.Context, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.Opened = append(l.Opened, opts)
	if l.OpenErr != nil {
		return nil, l.OpenErr
	}
	return &fakeContext{launcher: l}, nil
}

// OpenCount 打开次数
func (l *Launcher) OpenCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Opened)
}

// CloseCount 关闭次数
func (l *Launcher) CloseCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Closed
}

type fakeContext struct {
	launcher *Launcher
	closed   bool
}

func (c *fakeContext) NewPage() (browser.Page, error) {
	return c.launcher.Page, nil
}

func (c *fakeContext) StorageState() ([]byte, error) {
	c.launcher.mu.Lock()
	defer c.launcher.mu.Unlock()
	if c.launcher.StateErr != nil {
		return nil, c.launcher.StateErr
	}
	return append([]byte(nil), c.launcher.State...), nil
}

func (c *fakeContext) Close() error {
	c.launcher.mu.Lock()
	defer c.launcher.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.launcher.Closed++
	}
	return nil
}

// Page 内存页面。元素以选择器字符串计数，可按需动态计算
type Page struct {
	mu         sync.Mutex
	url        string
	counts     map[string]int
	dynamic    map[string]func() int
	attrs      map[string]map[string]string
	texts      map[string]string
	elements   map[string][]browser.Element
	onClick    map[string]func(n int)
	onNavigate func(url string)
	onFiles    func(selector, path string)
	errs       map[string]error
	actions    []string
}

// NewPage 创建空页面
func NewPage() *Page {
	return &Page{
		counts:   make(map[string]int),
		dynamic:  make(map[string]func() int),
		attrs:    make(map[string]map[string]string),
		texts:    make(map[string]string),
		elements: make(map[string][]browser.Element),
		onClick:  make(map[string]func(int)),
		errs:     make(map[string]error),
	}
}

// Show 让选择器存在
func (p *Page) Show(selectors ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		p.counts[s] = 1
	}
}

// Hide 移除选择器
func (p *Page) Hide(selectors ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		delete(p.counts, s)
		delete(p.dynamic, s)
	}
}

// Dynamic 由函数决定选择器匹配数，每次查询时调用（不持有锁）
func (p *Page) Dynamic(selector string, fn func() int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dynamic[selector] = fn
}

// SetAttribute 设置元素属性
func (p *Page) SetAttribute(selector, name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.attrs[selector] == nil {
		p.attrs[selector] = make(map[string]string)
	}
	p.attrs[selector][name] = value
}

// SetText 设置元素文本
func (p *Page) SetText(selector, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts[selector] = text
}

// SetElements 设置多元素快照，同时更新计数
func (p *Page) SetElements(selector string, elements []browser.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = elements
	p.counts[selector] = len(elements)
}

// SetURL 设置当前地址
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

// OnClick 点击回调，n 为 ClickNth 的序号（Click 为 0），回调中可调用 Page 的其它方法
func (p *Page) OnClick(selector string, fn func(n int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick[selector] = fn
}

// OnNavigate 跳转回调
func (p *Page) OnNavigate(fn func(url string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onNavigate = fn
}

// OnFiles 选择文件回调
func (p *Page) OnFiles(fn func(selector, path string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFiles = fn
}

// Fail 让指定动作返回错误，action 形如 "click"、"navigate"、"files"，selector 可为空
func (p *Page) Fail(action, selector string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[action+":"+selector] = err
}

// Actions 已执行的动作记录
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

// Did 统计以 prefix 开头的动作数
func (p *Page) Did(prefix string) int {
	n := 0
	for _, a := range p.Actions() {
		if strings.HasPrefix(a, prefix) {
			n++
		}
	}
	return n
}

func (p *Page) record(action string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
}

func (p *Page) failure(action, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.errs[action+":"+selector]; ok {
		return err
	}
	return nil
}

func (p *Page) count(selector string) int {
	p.mu.Lock()
	fn, ok := p.dynamic[selector]
	n := p.counts[selector]
	p.mu.Unlock()
	if ok {
		return fn()
	}
	return n
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("navigate:" + url)
	if err := p.failure("navigate", ""); err != nil {
		return err
	}
	p.mu.Lock()
	p.url = url
	fn := p.onNavigate
	p.mu.Unlock()
	if fn != nil {
		fn(url)
	}
	return nil
}

func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if p.count(selector) > 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("wait for %s: timeout %v", selector, timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

func (p *Page) Count(selector string) (int, error) {
	if err := p.failure("count", selector); err != nil {
		return 0, err
	}
	return p.count(selector), nil
}

func (p *Page) Click(selector string) error {
	return p.ClickNth(selector, 0)
}

func (p *Page) ClickNth(selector string, n int) error {
	if err := p.failure("click", selector); err != nil {
		return err
	}
	if p.count(selector) <= n {
		return fmt.Errorf("click %s[%d]: %w", selector, n, ErrNotFound)
	}
	if n == 0 {
		p.record("click:" + selector)
	} else {
		p.record(fmt.Sprintf("click:%s#%d", selector, n))
	}
	p.mu.Lock()
	fn := p.onClick[selector]
	p.mu.Unlock()
	if fn != nil {
		fn(n)
	}
	return nil
}

func (p *Page) Fill(selector, text string) error {
	if p.count(selector) == 0 {
		return fmt.Errorf("fill %s: %w", selector, ErrNotFound)
	}
	p.record("fill:" + selector + "=" + text)
	return nil
}

func (p *Page) Type(text string) error {
	p.record("type:" + text)
	return nil
}

func (p *Page) Press(key string) error {
	p.record("press:" + key)
	return nil
}

func (p *Page) SetInputFiles(selector, path string) error {
	if err := p.failure("files", selector); err != nil {
		return err
	}
	if p.count(selector) == 0 {
		return fmt.Errorf("set files %s: %w", selector, ErrNotFound)
	}
	p.record("files:" + selector + "=" + path)
	p.mu.Lock()
	fn := p.onFiles
	p.mu.Unlock()
	if fn != nil {
		fn(selector, path)
	}
	return nil
}

func (p *Page) InnerText(selector string) (string, error) {
	if p.count(selector) == 0 {
		return "", fmt.Errorf("text %s: %w", selector, ErrNotFound)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.texts[selector], nil
}

func (p *Page) Attribute(selector, name string) (string, error) {
	if p.count(selector) == 0 {
		return "", fmt.Errorf("attribute %s: %w", selector, ErrNotFound)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attrs[selector][name], nil
}

func (p *Page) Elements(selector string) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]browser.Element(nil), p.elements[selector]...), nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Evaluate(script string, arg any) (any, error) {
	p.record("evaluate:" + script)
	return nil, nil
}

func (p *Page) Screenshot(name string) error {
	p.record("screenshot:" + name)
	return nil
}

func (p *Page) Close() error {
	p.record("close")
	return nil
}
