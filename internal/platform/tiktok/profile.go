// Package tiktok TikTok Studio
package tiktok

import (
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
)

const Name = "tiktok"

// Profile TikTok Studio 页面描述（英文界面）
func Profile() platform.Profile {
	return platform.Profile{
		Name:        Name,
		DisplayName: "TikTok",
		LoginURL:    "https://www.tiktok.com/login?lang=en",
		CreateURL:   "https://www.tiktok.com/tiktokstudio/upload",
		Probe: platform.Probe{
			URL:    "https://www.tiktok.com/tiktokstudio/upload",
			Marker: `button:has-text("Select video"), input[type="file"]`,
			Mode:   platform.MarkerPresentMeansValid,
		},
		Cookies: []browser.CookieDomainConfig{
			{RequiredCookies: []string{"sessionid"}},
		},
		FileInputs: []string{`input[type="file"][accept*="video"]`, `input[type="file"]`},
		EditSurface: platform.Indicator{
			Selectors: []string{`div.public-DraftEditor-content`, `div[contenteditable="true"]`},
		},
		Title: platform.TitleEntry{
			Selectors: []string{`div.public-DraftEditor-content`, `div[contenteditable="true"]`},
			Clear:     true,
		},
		Tags: platform.TagEntry{
			Prefix: "#",
			Commit: "Enter",
		},
		Cover: &platform.Cover{
			Open:    `.cover-container`,
			Input:   `input[type="file"][accept*="image"]`,
			Confirm: `button:has-text("Confirm")`,
		},
		UploadSuccess: platform.Indicator{
			Selectors:     []string{`div.btn-post > button`},
			ClassExcludes: "disabled",
		},
		UploadFailure: platform.Indicator{
			Selectors: []string{`text=/Upload failed|Couldn't upload/`},
		},
		Recovery: platform.Recovery{
			Delete:        `button:has-text("Replace")`,
			DeleteConfirm: `button:has-text("Replace"):visible`,
			ResetsForm:    true,
		},
		Schedule: &platform.Schedule{
			Kind:        platform.ScheduleMonthPicker,
			Toggle:      `[aria-label="Schedule"]`,
			DateInput:   `div.scheduled-picker div.TUXInputBox >> nth=1`,
			MonthLabel:  `span.month-title`,
			MonthFormat: "%s",
			NextMonth:   `span.arrow >> nth=-1`,
			DayCells:    `span.day.valid`,
			TimeInput:   `div.scheduled-picker div.TUXInputBox >> nth=0`,
			TimeLayout:  "15:04",
			MinuteStep:  5,
		},
		Publish: platform.Publish{
			Button:  `div.btn-post > button`,
			Confirm: `div.TUXButton-content >> text=Post now`,
			Success: platform.Indicator{
				URLContains: "tiktokstudio/content",
				Selectors:   []string{`text=/Your video has been uploaded|Manage your posts/`},
			},
			Failure: platform.Indicator{
				Selectors: []string{`text=/Couldn't post|Something went wrong/`},
			},
		},
		Timing: config.Timing{
			UploadPollInterval:  2 * time.Second,
			PublishPollInterval: time.Second,
			FileAcceptTimeout:   90 * time.Second,
		},
	}
}
