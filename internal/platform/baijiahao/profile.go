// Package baijiahao 百家号
package baijiahao

import (
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
)

const Name = "baijiahao"

// Profile 百家号页面描述，不支持定时发布
func Profile() platform.Profile {
	return platform.Profile{
		Name:        Name,
		DisplayName: "百家号",
		LoginURL:    "https://baijiahao.baidu.com/builder/theme/bjh/login",
		CreateURL:   "https://baijiahao.baidu.com/builder/rc/edit?type=videoV2",
		Probe: platform.Probe{
			URL:    "https://baijiahao.baidu.com/builder/rc/home",
			Marker: `text=/登录百家号|注册百家号/`,
			Mode:   platform.MarkerPresentMeansExpired,
		},
		Cookies: []browser.CookieDomainConfig{
			{RequiredCookies: []string{"BDUSS"}},
		},
		FileInputs: []string{
			`div[class^="video-main-container"] input[type="file"]`,
			`input[type="file"]`,
		},
		EditSurface: platform.Indicator{
			Selectors: []string{`div[class*="cover-container"]`, `textarea[placeholder*="标题"]`},
		},
		Title: platform.TitleEntry{
			Selectors: []string{`textarea[placeholder*="标题"]`, `input[placeholder*="标题"]`},
			Clear:     true,
		},
		Tags: platform.TagEntry{
			Cap:    5,
			Input:  `input[placeholder*="标签"]`,
			Commit: "Enter",
		},
		Cover: &platform.Cover{
			Open:    `div.cheetah-spin-container div[class^="cover"]`,
			Input:   `input[type="file"][accept*="image"]`,
			Confirm: `button:has-text("确定")`,
		},
		UploadSuccess: platform.Indicator{
			Selectors: []string{`div[class*="cover-container"] img[class*="coverImg"]`},
		},
		UploadFailure: platform.Indicator{
			Selectors: []string{`text=/上传失败|上传出错/`},
		},
		Publish: platform.Publish{
			Button:  `button:has-text("发布")`,
			Confirm: `div.cheetah-modal button:has-text("确定")`,
			Success: platform.Indicator{
				URLContains: "baijiahao.baidu.com/builder/rc/manage",
				Selectors:   []string{`text=/发布成功|提交成功/`},
			},
			Failure: platform.Indicator{
				Selectors: []string{`text=/发布失败|内容违规/`},
			},
		},
		Timing: config.Timing{
			UploadPollInterval:  2 * time.Second,
			PublishPollInterval: time.Second,
			FileAcceptTimeout:   60 * time.Second,
		},
	}
}
