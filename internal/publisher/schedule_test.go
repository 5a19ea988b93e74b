package publisher

import (
	"context"
	"fmt"
	"testing"
	"time"

	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
	"Fpublisher/internal/platform/browser/browsertest"
	"Fpublisher/internal/platform/tencent"
)

func TestMonthLabel(t *testing.T) {
	at := time.Date(2024, 5, 3, 16, 0, 0, 0, time.Local)
	tests := []struct {
		format string
		want   string
	}{
		{"%02d月", "05月"},
		{"%d月", "5月"},
		{"%s", "May"},
	}
	for _, tt := range tests {
		if got := monthLabel(tt.format, at); got != tt.want {
			t.Errorf("monthLabel(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestMonthMatches(t *testing.T) {
	tests := []struct {
		text, want string
		match      bool
	}{
		{" 05月 ", "05月", true},
		{"May 2024", "May", true},
		{"2024 May", "May", true},
		{"15月", "5月", false},
		{"Mayday", "May", false},
	}
	for _, tt := range tests {
		if got := monthMatches(tt.text, tt.want); got != tt.match {
			t.Errorf("monthMatches(%q, %q) = %v", tt.text, tt.want, got)
		}
	}
}

// pickerPage 模拟视频号的翻月日期选择器，当前月份为 start
func pickerPage(t *testing.T, s *platform.Schedule, start int) *browsertest.Page {
	t.Helper()
	p := browsertest.NewPage()
	month := start
	p.SetElements(s.Toggle, []browser.Element{{Text: "不定时"}, {Text: "定时"}})
	p.Show(s.DateInput, s.TimeInput, s.Commit)
	p.OnClick(s.DateInput, func(int) {
		p.Show(s.MonthLabel, s.NextMonth)
		p.SetText(s.MonthLabel, fmt.Sprintf("%02d月", month))
	})
	p.OnClick(s.NextMonth, func(int) {
		month = month%12 + 1
		p.SetText(s.MonthLabel, fmt.Sprintf("%02d月", month))
	})
	p.SetElements(s.DayCells, []browser.Element{
		{Text: "30", Class: s.DisabledClass},
		{Text: "3", Class: s.DisabledClass},
		{Text: "1"},
		{Text: "2"},
		{Text: " 3 "},
	})
	return p
}

func TestSetScheduleMonthPicker(t *testing.T) {
	profile := tencent.Profile()
	s := profile.Schedule
	m := New(browsertest.NewLauncher(), nil, profile, fastOptions())
	page := pickerPage(t, s, 3)

	at := time.Date(2024, 5, 3, 16, 0, 0, 0, time.Local)
	if err := m.setSchedule(context.Background(), page, at); err != nil {
		t.Fatalf("setSchedule() error = %v", err)
	}

	if n := page.Did("click:" + s.NextMonth); n != 2 {
		t.Errorf("翻月次数 = %d, want 2", n)
	}
	if page.Did(fmt.Sprintf("click:%s#1", s.Toggle)) != 1 {
		t.Errorf("未点击第二个定时选项: %v", page.Actions())
	}
	if page.Did(fmt.Sprintf("click:%s#4", s.DayCells)) != 1 {
		t.Errorf("应跳过不可选的日期: %v", page.Actions())
	}
	if page.Did("type:16") != 1 || page.Did("click:"+s.Commit) != 1 {
		t.Errorf("时间未输入: %v", page.Actions())
	}
}

func TestSetScheduleMonthPickerSameMonth(t *testing.T) {
	profile := tencent.Profile()
	s := profile.Schedule
	m := New(browsertest.NewLauncher(), nil, profile, fastOptions())
	page := pickerPage(t, s, 5)

	at := time.Date(2024, 5, 2, 9, 0, 0, 0, time.Local)
	if err := m.setSchedule(context.Background(), page, at); err != nil {
		t.Fatal(err)
	}
	if page.Did("click:"+s.NextMonth) != 0 {
		t.Error("同月不应翻页")
	}
	if page.Did(fmt.Sprintf("click:%s#3", s.DayCells)) != 1 || page.Did("type:09") != 1 {
		t.Errorf("actions = %v", page.Actions())
	}
}

func TestSetScheduleDayDisabled(t *testing.T) {
	profile := tencent.Profile()
	s := profile.Schedule
	m := New(browsertest.NewLauncher(), nil, profile, fastOptions())
	page := pickerPage(t, s, 5)

	at := time.Date(2024, 5, 30, 9, 0, 0, 0, time.Local)
	if err := m.setSchedule(context.Background(), page, at); err == nil {
		t.Fatal("不可选的日期应返回错误")
	}
	if page.Did("type:") != 0 {
		t.Error("日期失败后不应输入时间")
	}
}

func TestSetScheduleRoundsMinutes(t *testing.T) {
	profile := demoProfile()
	profile.Schedule.MinuteStep = 5
	m := New(browsertest.NewLauncher(), nil, profile, fastOptions())
	page := browsertest.NewPage()
	page.Show("label.schedule", "input.date")

	at := time.Date(2024, 5, 3, 16, 2, 0, 0, time.Local)
	if err := m.setSchedule(context.Background(), page, at); err != nil {
		t.Fatal(err)
	}
	if page.Did("type:2024-05-03 16:05") != 1 || page.Did("press:Enter") != 1 {
		t.Errorf("actions = %v", page.Actions())
	}
}
