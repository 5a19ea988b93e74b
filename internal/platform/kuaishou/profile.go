// Package kuaishou 快手创作者服务平台
package kuaishou

import (
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
)

const Name = "kuaishou"

// Profile 快手页面描述
func Profile() platform.Profile {
	return platform.Profile{
		Name:        Name,
		DisplayName: "快手",
		LoginURL:    "https://cp.kuaishou.com",
		CreateURL:   "https://cp.kuaishou.com/article/publish/video",
		Probe: platform.Probe{
			URL:    "https://cp.kuaishou.com/article/publish/video",
			Marker: `div.names div.container div.name:text("机构服务")`, // 未登录时的首页入口
			Mode:   platform.MarkerPresentMeansExpired,
		},
		Cookies: []browser.CookieDomainConfig{
			{RequiredCookies: []string{"kuaishou.web.cp.api_ph", "kuaishou.web.cp.api_st"}},
		},
		FileInputs: []string{
			`button[class^="_upload-btn"] + input[type="file"]`,
			`input[type="file"]`,
		},
		EditSurface: platform.Indicator{
			Selectors: []string{`text=封面编辑`, `text=填写描述`},
		},
		Dismiss: []string{`button[type="button"] span:text("我知道了")`},
		Title: platform.TitleEntry{
			Selectors:  []string{`#work-description-edit`, `div[contenteditable="true"]`},
			Clear:      true,
			PressEnter: true,
		},
		Tags: platform.TagEntry{
			Cap:    3,
			Prefix: "#",
			Commit: "Space",
		},
		Cover: &platform.Cover{
			Open:    `text=封面设置`,
			Input:   `div[class^="_upload-box"] input[type="file"]`,
			Confirm: `div[class^="_footer"] button:has-text("确认")`,
		},
		UploadSuccess: platform.Indicator{
			Selectors: []string{`div > span:text("上传成功")`},
		},
		UploadFailure: platform.Indicator{
			Selectors: []string{`div.progress-div > div:has-text("上传失败")`, `text=/上传失败|上传出错/`},
		},
		Recovery: platform.Recovery{
			FileInput: `div.progress-div [class^="upload-btn-input"]`,
		},
		Schedule: &platform.Schedule{
			Kind:        platform.ScheduleTyped,
			Toggle:      `label:text("发布时间") + div .ant-radio-input`,
			ToggleIndex: 1,
			DateInput:   `div.ant-picker-input input[placeholder="选择日期时间"]`,
			TypedLayout: "2006-01-02 15:04:05",
		},
		Publish: platform.Publish{
			Button:  `button:text-is("发布")`,
			Confirm: `button > span:text("确认发布")`,
			Success: platform.Indicator{
				URLContains: "https://cp.kuaishou.com/article/manage/video?status=2&from=publish",
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
