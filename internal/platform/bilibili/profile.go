// Package bilibili 哔哩哔哩创作中心
package bilibili

import (
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
)

const Name = "bilibili"

// Profile 哔哩哔哩页面描述，会话通过 nav 接口校验
func Profile() platform.Profile {
	return platform.Profile{
		Name:        Name,
		DisplayName: "哔哩哔哩",
		LoginURL:    "https://passport.bilibili.com/login",
		CreateURL:   "https://member.bilibili.com/platform/upload/video/frame",
		Probe: platform.Probe{
			API: &platform.APIProbe{
				URL:        "https://api.bilibili.com/x/web-interface/nav",
				CookieHost: "api.bilibili.com",
				Headers: map[string]string{
					"Referer": "https://www.bilibili.com",
					"Origin":  "https://www.bilibili.com",
				},
				CodePath:  "code",
				OKCode:    0,
				LoginPath: "data.isLogin",
			},
		},
		Cookies: []browser.CookieDomainConfig{
			{RequiredCookies: []string{"SESSDATA", "bili_jct"}},
		},
		FileInputs: []string{
			`div.bcc-upload-wrapper input[type="file"]`,
			`input[type="file"][accept*=".mp4"]`,
			`input[type="file"]`,
		},
		EditSurface: platform.Indicator{
			Selectors: []string{`input[type="text"][placeholder="请输入稿件标题"]`, `div.video-title-container input[type="text"]`},
		},
		Title: platform.TitleEntry{
			Selectors: []string{`input[type="text"][placeholder="请输入稿件标题"]`, `div.video-title-container input[type="text"]`},
			Clear:     true,
		},
		Tags: platform.TagEntry{
			Cap:    10,
			Input:  `input[type="text"][placeholder="按回车键Enter创建标签"]`,
			Commit: "Enter",
		},
		Cover: &platform.Cover{
			Open:    `div.cover-main`,
			Input:   `input[type="file"][accept="image/png, image/jpeg"]`,
			Confirm: `div.cover-editor-button div.button.submit`,
		},
		UploadSuccess: platform.Indicator{
			Selectors: []string{`text=/上传完成|视频上传成功/`},
		},
		UploadFailure: platform.Indicator{
			Selectors: []string{`text=/上传失败|Upload failed/`},
		},
		Recovery: platform.Recovery{
			Delete:        `span.upload-delete`,
			DeleteConfirm: `button:has-text("确定")`,
		},
		Schedule: &platform.Schedule{
			Kind:        platform.ScheduleTyped,
			Toggle:      `div.switch-container`,
			DateInput:   `div.date-picker-date-wrp input`,
			TypedLayout: "2006-01-02 15:04",
		},
		Publish: platform.Publish{
			Button:  `span.submit-add:text("立即投稿")`,
			Confirm: `div.bcc-dialog button:has-text("确定")`,
			Success: platform.Indicator{
				Selectors: []string{`text=/投稿成功|稿件已提交/`},
			},
			Failure: platform.Indicator{
				Selectors: []string{`text=/投稿失败|提交失败/`},
			},
		},
		Timing: config.Timing{
			UploadPollInterval:  3 * time.Second,
			PublishPollInterval: time.Second,
			FileAcceptTimeout:   60 * time.Second,
		},
	}
}
