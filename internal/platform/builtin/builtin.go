// Package builtin 汇总内置平台
package builtin

import (
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/baijiahao"
	"Fpublisher/internal/platform/bilibili"
	"Fpublisher/internal/platform/douyin"
	"Fpublisher/internal/platform/kuaishou"
	"Fpublisher/internal/platform/tencent"
	"Fpublisher/internal/platform/tiktok"
	"Fpublisher/internal/platform/xiaohongshu"
)

// Registry 全部内置平台
func Registry() *platform.Registry {
	return platform.NewRegistry(
		tencent.Profile(),
		kuaishou.Profile(),
		douyin.Profile(),
		xiaohongshu.Profile(),
		bilibili.Profile(),
		baijiahao.Profile(),
		tiktok.Profile(),
	)
}
