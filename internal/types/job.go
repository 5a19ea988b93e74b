package types

import (
	"fmt"
	"time"
)

// Job 一个待发布的视频
// 交给状态机后不再修改
type Job struct {
	Platform   string     `json:"platform"`
	Account    string     `json:"account"`
	VideoPath  string     `json:"videoPath"`
	Title      string     `json:"title"`
	ShortTitle string     `json:"shortTitle,omitempty"`
	Tags       []string   `json:"tags"`
	Thumbnail  string     `json:"thumbnail,omitempty"`
	PublishAt  *time.Time `json:"publishAt,omitempty"` // 为空表示立即发布
	Category   string     `json:"category,omitempty"`
	Key        string     `json:"key"` // 台账去重键
}

// IsScheduled 是否定时发布
func (j Job) IsScheduled() bool {
	return j.PublishAt != nil && !j.PublishAt.IsZero()
}

// Scope 平台+账号，台账与会话都按此隔离
func (j Job) Scope() string {
	return Scope(j.Platform, j.Account)
}

func (j Job) String() string {
	return fmt.Sprintf("%s/%s %s", j.Platform, j.Account, j.Key)
}

// Scope 拼接平台与账号
func Scope(platform, account string) string {
	return platform + "_" + account
}

// JobHint 队列构建阶段的内容选择提示
type JobHint struct {
	VideoPath string
	UsePool   bool // true 时从标题池随机选取
}
