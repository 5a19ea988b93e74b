// Package douyin 抖音创作者中心
package douyin

import (
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
)

const Name = "douyin"

// Profile 抖音页面描述
func Profile() platform.Profile {
	return platform.Profile{
		Name:        Name,
		DisplayName: "抖音",
		LoginURL:    "https://creator.douyin.com/",
		CreateURL:   "https://creator.douyin.com/creator-micro/content/upload",
		Probe: platform.Probe{
			URL:    "https://creator.douyin.com/creator-micro/content/upload",
			Marker: `text=/手机号登录|扫码登录/`,
			Mode:   platform.MarkerPresentMeansExpired,
		},
		Cookies: []browser.CookieDomainConfig{
			{RequiredCookies: []string{"sessionid"}},
		},
		FileInputs: []string{
			`div[class^="container"] input[type="file"]`,
			`input[type="file"]`,
		},
		EditSurface: platform.Indicator{
			URLContains: "creator.douyin.com/creator-micro/content/post/video",
			Selectors:   []string{`input[placeholder="填写作品标题，为作品获得更多流量"]`},
		},
		Title: platform.TitleEntry{
			Selectors: []string{`input[placeholder="填写作品标题，为作品获得更多流量"]`},
		},
		Tags: platform.TagEntry{
			Input:  ".zone-container",
			Prefix: "#",
			Commit: "Space",
		},
		Cover: &platform.Cover{
			Open:    `text=选择封面`,
			Input:   `div[class^="semi-upload upload"] input.semi-upload-hidden-input`,
			Confirm: `div[class^="extractFooter"] button:visible:has-text("完成")`,
		},
		UploadSuccess: platform.Indicator{
			Selectors: []string{`[class^="long-card"] div:has-text("重新上传")`},
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
			DateInput:   `.semi-input[placeholder="日期和时间"]`,
			TypedLayout: "2006-01-02 15:04",
		},
		Publish: platform.Publish{
			Button: `button:text-is("发布")`,
			Success: platform.Indicator{
				URLContains: "creator.douyin.com/creator-micro/content/manage",
			},
			Failure: platform.Indicator{
				Selectors: []string{`text=/发布失败|提交失败/`},
			},
		},
		Timing: config.Timing{
			UploadPollInterval:  2 * time.Second,
			PublishPollInterval: time.Second,
			FileAcceptTimeout:   60 * time.Second,
		},
	}
}
