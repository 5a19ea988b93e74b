package publisher

import (
	"context"
	"errors"
	"fmt"

	"Fpublisher/internal/content"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
)

// enterMetadata 填写标题、话题、短标题、分类与封面。封面与分类失败只记日志
func (m *Machine) enterMetadata(ctx context.Context, r *run) error {
	page := r.page
	if err := m.enterTitle(page, r.job.Title); err != nil {
		return fmt.Errorf("填写标题: %w", err)
	}
	if err := m.enterTags(page, r.tags); err != nil {
		return fmt.Errorf("填写话题: %w", err)
	}
	if st := m.profile.ShortTitle; st != nil {
		short := r.job.ShortTitle
		if short == "" {
			short = content.ShortTitle(r.job.Title, st.Min, st.Max)
		}
		if err := page.Fill(st.Selector, short); err != nil {
			return fmt.Errorf("填写短标题: %w", err)
		}
	}

	if category := m.categoryFor(r); category != "" && m.profile.Category != nil {
		if err := m.selectCategory(ctx, page, m.profile.Category, category); err != nil {
			m.warn("设置分类 %s 失败: %v", category, err)
		}
	}
	if r.job.Thumbnail != "" {
		if !m.profile.SupportsCover() {
			m.log("平台不支持自定义封面，已忽略")
		} else if err := m.setCover(ctx, page, m.profile.Cover, r.job.Thumbnail); err != nil {
			m.warn("设置封面失败: %v", err)
		}
	}
	m.log("标题与 %d 个话题已填写", len(r.tags))
	return nil
}

func (m *Machine) enterTitle(page browser.Page, title string) error {
	entry := m.profile.Title
	sel, err := firstPresent(page, entry.Selectors)
	if err != nil {
		return err
	}
	if err := page.Click(sel); err != nil {
		return err
	}
	if entry.Clear {
		if err := page.Press("Control+KeyA"); err != nil {
			return err
		}
		if err := page.Press("Delete"); err != nil {
			return err
		}
	}
	if err := page.Type(title); err != nil {
		return err
	}
	if entry.PressEnter {
		return page.Press("Enter")
	}
	return nil
}

// enterTags 逐个输入话题
func (m *Machine) enterTags(page browser.Page, tags []string) error {
	entry := m.profile.Tags
	for _, tag := range tags {
		if entry.Trigger != "" {
			if err := page.Click(entry.Trigger); err != nil {
				return err
			}
		}
		if entry.Input != "" {
			if err := page.Click(entry.Input); err != nil {
				return err
			}
		}
		if err := page.Type(entry.Prefix + tag); err != nil {
			return err
		}
		if entry.Suggestion != "" {
			if n, _ := page.Count(entry.Suggestion); n > 0 {
				if err := page.Click(entry.Suggestion); err != nil {
					return err
				}
				continue
			}
		}
		if entry.Commit != "" {
			if err := page.Press(entry.Commit); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Machine) categoryFor(r *run) string {
	if r.job.Category != "" {
		return r.job.Category
	}
	return m.opts.Platform.Category
}

func (m *Machine) selectCategory(ctx context.Context, page browser.Page, c *platform.Category, category string) error {
	if err := page.Click(c.Open); err != nil {
		return err
	}
	option := fmt.Sprintf(c.Option, category)
	if err := page.WaitFor(ctx, option, widgetTimeout); err != nil {
		return err
	}
	if err := page.Click(option); err != nil {
		return err
	}
	if c.Confirm != "" {
		return page.Click(c.Confirm)
	}
	return nil
}

func (m *Machine) setCover(ctx context.Context, page browser.Page, c *platform.Cover, path string) error {
	if c.Open != "" {
		if err := page.Click(c.Open); err != nil {
			return err
		}
	}
	if err := page.WaitFor(ctx, c.Input, widgetTimeout); err != nil {
		return err
	}
	if err := page.SetInputFiles(c.Input, path); err != nil {
		return err
	}
	if c.Confirm != "" {
		if err := page.WaitFor(ctx, c.Confirm, widgetTimeout); err != nil {
			return err
		}
		if err := page.Click(c.Confirm); err != nil {
			return err
		}
	}
	m.log("封面已设置: %s", path)
	return nil
}

var errNoSelector = errors.New("页面上没有匹配的元素")

// firstPresent 返回第一个存在的选择器
func firstPresent(page browser.Page, selectors []string) (string, error) {
	for _, sel := range selectors {
		if n, err := page.Count(sel); err == nil && n > 0 {
			return sel, nil
		}
	}
	return "", fmt.Errorf("%w: %v", errNoSelector, selectors)
}
