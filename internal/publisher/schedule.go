package publisher

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
)

const maxMonthClicks = 24

// setSchedule 操作定时发布控件
func (m *Machine) setSchedule(ctx context.Context, page browser.Page, at time.Time) error {
	s := m.profile.Schedule
	at = platform.RoundUp(at, s.MinuteStep)

	if s.Toggle != "" {
		if err := page.WaitFor(ctx, s.Toggle, widgetTimeout); err != nil {
			return fmt.Errorf("未找到定时开关: %w", err)
		}
		if err := page.ClickNth(s.Toggle, s.ToggleIndex); err != nil {
			return fmt.Errorf("打开定时开关: %w", err)
		}
	}

	switch s.Kind {
	case platform.ScheduleTyped:
		return typeDateTime(ctx, page, s, at)
	case platform.ScheduleMonthPicker:
		return pickDateTime(ctx, page, s, at)
	}
	return fmt.Errorf("未知定时控件类型 %q", s.Kind)
}

// typeDateTime 在输入框中直接键入完整时间
func typeDateTime(ctx context.Context, page browser.Page, s *platform.Schedule, at time.Time) error {
	if err := page.WaitFor(ctx, s.DateInput, widgetTimeout); err != nil {
		return fmt.Errorf("未找到时间输入框: %w", err)
	}
	if err := page.Click(s.DateInput); err != nil {
		return err
	}
	if err := page.Press("Control+KeyA"); err != nil {
		return err
	}
	if err := page.Type(at.Format(s.TypedLayout)); err != nil {
		return err
	}
	return commit(page, s)
}

// pickDateTime 翻到目标月份，点选日期，再键入时间
func pickDateTime(ctx context.Context, page browser.Page, s *platform.Schedule, at time.Time) error {
	if s.DateInput != "" {
		if err := page.WaitFor(ctx, s.DateInput, widgetTimeout); err != nil {
			return fmt.Errorf("未找到日期选择器: %w", err)
		}
		if err := page.Click(s.DateInput); err != nil {
			return err
		}
	}

	want := monthLabel(s.MonthFormat, at)
	for clicks := 0; ; clicks++ {
		if err := page.WaitFor(ctx, s.MonthLabel, widgetTimeout); err != nil {
			return fmt.Errorf("未找到月份标签: %w", err)
		}
		text, err := page.InnerText(s.MonthLabel)
		if err != nil {
			return err
		}
		if monthMatches(text, want) {
			break
		}
		if clicks >= maxMonthClicks {
			return fmt.Errorf("翻页 %d 次仍未到达 %s（当前 %s）", clicks, want, strings.TrimSpace(text))
		}
		if err := page.Click(s.NextMonth); err != nil {
			return fmt.Errorf("切换到下个月: %w", err)
		}
	}

	cells, err := page.Elements(s.DayCells)
	if err != nil {
		return err
	}
	day := strconv.Itoa(at.Day())
	index := -1
	for i, c := range cells {
		if strings.TrimSpace(c.Text) != day {
			continue
		}
		if s.DisabledClass != "" && strings.Contains(c.Class, s.DisabledClass) {
			continue
		}
		index = i
		break
	}
	if index < 0 {
		return fmt.Errorf("日期 %s 不可选", at.Format("2006-01-02"))
	}
	if err := page.ClickNth(s.DayCells, index); err != nil {
		return err
	}

	if err := page.Click(s.TimeInput); err != nil {
		return fmt.Errorf("打开时间输入框: %w", err)
	}
	if err := page.Press("Control+KeyA"); err != nil {
		return err
	}
	if err := page.Type(at.Format(s.TimeLayout)); err != nil {
		return err
	}
	return commit(page, s)
}

func commit(page browser.Page, s *platform.Schedule) error {
	if s.Commit != "" {
		return page.Click(s.Commit)
	}
	return page.Press("Enter")
}

// monthLabel 含 %s 时使用英文月份名，否则使用数字月份
func monthLabel(format string, at time.Time) string {
	if strings.Contains(format, "%s") {
		return fmt.Sprintf(format, at.Month().String())
	}
	return fmt.Sprintf(format, int(at.Month()))
}

func monthMatches(text, want string) bool {
	text = strings.TrimSpace(text)
	return text == want || strings.HasPrefix(text, want+" ") || strings.HasSuffix(text, " "+want)
}
