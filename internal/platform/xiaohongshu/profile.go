// Package xiaohongshu 小红书创作服务平台
package xiaohongshu

import (
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
)

const Name = "xiaohongshu"

// Profile 小红书页面描述
func Profile() platform.Profile {
	return platform.Profile{
		Name:        Name,
		DisplayName: "小红书",
		LoginURL:    "https://creator.xiaohongshu.com/login",
		CreateURL:   "https://creator.xiaohongshu.com/publish/publish?from=menu&target=video",
		Probe: platform.Probe{
			URL:    "https://creator.xiaohongshu.com/creator-micro/content/upload",
			Marker: `text=/手机号登录|扫码登录/`,
			Mode:   platform.MarkerPresentMeansExpired,
		},
		Cookies: []browser.CookieDomainConfig{
			{Domain: "https://xiaohongshu.com", RequiredCookies: []string{"web_session", "a1"}},
			{Domain: "https://creator.xiaohongshu.com", RequiredCookies: []string{"galaxy_creator_session_id"}},
		},
		FileInputs: []string{
			`div.drag-over input.upload-input[type="file"][accept*=".mp4"]`,
			`input[type="file"]`,
		},
		EditSurface: platform.Indicator{
			Selectors: []string{`input.d-text[placeholder*="标题"]`, `input.d-text[type="text"]`},
		},
		Title: platform.TitleEntry{
			Selectors: []string{`input.d-text[placeholder*="标题"]`, `input.d-text[type="text"]`},
		},
		Tags: platform.TagEntry{
			Input:      ".tiptap.ProseMirror",
			Prefix:     "#",
			Suggestion: `#creator-editor-topic-container .item`,
			Commit:     "Space",
		},
		Cover: &platform.Cover{
			Open:    `div.cover-container`,
			Input:   `input[type="file"][accept*="image"]`,
			Confirm: `button:has-text("确定")`,
		},
		UploadSuccess: platform.Indicator{
			Selectors: []string{`div.stage:has-text("上传成功")`, `[class^="long-card"] div:has-text("重新上传")`},
		},
		UploadFailure: platform.Indicator{
			Selectors: []string{`div.progress-div > div:has-text("上传失败")`},
		},
		Recovery: platform.Recovery{
			FileInput: `div.progress-div [class^="upload-btn-input"]`,
		},
		Schedule: &platform.Schedule{
			Kind:        platform.ScheduleTyped,
			Toggle:      `label:has-text("定时发布")`,
			DateInput:   `.el-input__inner[placeholder="选择日期和时间"]`,
			TypedLayout: "2006-01-02 15:04",
		},
		Publish: platform.Publish{
			Button:          `button:has-text("发布")`,
			ScheduledButton: `button:has-text("定时发布")`,
			Success: platform.Indicator{
				URLContains: "https://creator.xiaohongshu.com/publish/success",
			},
			Failure: platform.Indicator{
				Selectors: []string{`text=/发布失败|提交失败/`},
			},
		},
		Timing: config.Timing{
			UploadPollInterval:  2 * time.Second,
			PublishPollInterval: 500 * time.Millisecond,
			FileAcceptTimeout:   60 * time.Second,
		},
	}
}
