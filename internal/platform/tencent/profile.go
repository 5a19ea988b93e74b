// Package tencent 微信视频号
package tencent

import (
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
)

const Name = "tencent"

// Profile 视频号页面描述
func Profile() platform.Profile {
	return platform.Profile{
		Name:        Name,
		DisplayName: "微信视频号",
		LoginURL:    "https://channels.weixin.qq.com",
		CreateURL:   "https://channels.weixin.qq.com/platform/post/create",
		Probe: platform.Probe{
			URL:    "https://channels.weixin.qq.com/platform/post/create",
			Marker: `div.title-name:has-text("微信小店")`, // 只出现在登录页
			Mode:   platform.MarkerPresentMeansExpired,
		},
		Cookies: []browser.CookieDomainConfig{
			{Domain: "https://channels.weixin.qq.com", RequiredCookies: []string{"sessionid", "wxuin"}},
		},
		FileInputs: []string{`input[type="file"]`},
		EditSurface: platform.Indicator{
			Selectors: []string{"div.input-editor"},
		},
		Title: platform.TitleEntry{
			Selectors:  []string{"div.input-editor"},
			PressEnter: true,
		},
		Tags: platform.TagEntry{
			Prefix: "#",
			Commit: "Space",
		},
		ShortTitle: &platform.ShortTitle{
			Selector: `div.short-title-wrap input.weui-desktop-form__input`,
			Min:      6,
			Max:      16,
		},
		Cover: &platform.Cover{
			Open:    `div.finder-tag-wrap.btn:has-text("更换封面")`,
			Input:   `div.single-cover-uploader-wrap input[type="file"]`,
			Confirm: `div.cover-set-footer button:has-text("确认")`,
		},
		Category: &platform.Category{
			Open:    `div.declare-original-checkbox input.ant-checkbox-input`,
			Option:  `div.form-content:visible li:has-text("%s")`,
			Confirm: `button:has-text("声明原创"):visible`,
		},
		UploadSuccess: platform.Indicator{
			Selectors:     []string{`div.form-btns button:has-text("发表")`},
			ClassExcludes: "weui-desktop-btn_disabled",
		},
		UploadFailure: platform.Indicator{
			Selectors: []string{`div.status-msg.error`},
		},
		Recovery: platform.Recovery{
			Delete:        `div.media-status-content div.tag-inner:has-text("删除")`,
			DeleteConfirm: `div.weui-desktop-dialog__ft button:has-text("删除")`,
		},
		Schedule: &platform.Schedule{
			Kind:          platform.ScheduleMonthPicker,
			Toggle:        `label:has-text("定时")`,
			ToggleIndex:   1,
			DateInput:     `input[placeholder="请选择发表时间"]`,
			MonthLabel:    `span.weui-desktop-picker__panel__label:has-text("月")`,
			MonthFormat:   "%02d月",
			NextMonth:     `button.weui-desktop-btn__icon__right`,
			DayCells:      `table.weui-desktop-picker__table a`,
			DisabledClass: "weui-desktop-picker__disabled",
			TimeInput:     `input[placeholder="请选择时间"]`,
			TimeLayout:    "15",
			Commit:        "div.input-editor",
		},
		Publish: platform.Publish{
			Button: `div.form-btns button:has-text("发表")`,
			Success: platform.Indicator{
				URLContains: "https://channels.weixin.qq.com/platform/post/list",
			},
			Failure: platform.Indicator{
				Selectors: []string{`div.weui-desktop-toast__content:has-text("失败")`},
			},
		},
		Timing: config.Timing{
			UploadPollInterval:  2 * time.Second,
			PublishPollInterval: 500 * time.Millisecond,
			FileAcceptTimeout:   30 * time.Second,
		},
	}
}
