package service

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"Fpublisher/internal/types"
)

// MergeRule 日志归并规则
type MergeRule struct {
	Pattern    *regexp.Regexp
	TimeWindow time.Duration
	MaxCount   int
	ShowFirst  bool // 归并前先原样输出第一条
	ShowLast   bool
}

// MergedLog 归并后的日志
type MergedLog struct {
	types.SimpleLog
	IsMerged    bool   `json:"isMerged"`
	RepeatCount int    `json:"repeatCount"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

type logGroup struct {
	rule     *MergeRule
	firstLog types.SimpleLog
	lastLog  types.SimpleLog
	count    int
	lastTime time.Time
}

// LogDeduplicator 合并轮询过程中反复出现的日志
type LogDeduplicator struct {
	rules  []MergeRule
	groups map[string]*logGroup
	mutex  sync.Mutex
}

// NewLogDeduplicator 使用默认规则
func NewLogDeduplicator() *LogDeduplicator {
	return NewLogDeduplicatorWithRules(defaultRules())
}

// NewLogDeduplicatorWithRules 使用自定义规则
func NewLogDeduplicatorWithRules(rules []MergeRule) *LogDeduplicator {
	return &LogDeduplicator{
		rules:  rules,
		groups: make(map[string]*logGroup),
	}
}

func defaultRules() []MergeRule {
	return []MergeRule{
		// 上传进度轮询
		{
			Pattern:    regexp.MustCompile(`视频上传中|正在上传`),
			TimeWindow: 30 * time.Second,
			MaxCount:   500,
			ShowFirst:  true,
		},
		// 发布按钮重复点击
		{
			Pattern:    regexp.MustCompile(`点击发布`),
			TimeWindow: 20 * time.Second,
			MaxCount:   100,
			ShowFirst:  true,
			ShowLast:   true,
		},
		// 会话探测失败
		{
			Pattern:    regexp.MustCompile(`(?i)会话.*(失效|校验失败)|playwright.*target closed`),
			TimeWindow: 30 * time.Second,
			MaxCount:   100,
			ShowFirst:  true,
		},
		// 重试类
		{
			Pattern:    regexp.MustCompile(`(?i)重试|retry`),
			TimeWindow: 15 * time.Second,
			MaxCount:   30,
		},
	}
}

// extractLevel 条目未带级别时从消息前缀推断
func extractLevel(log types.SimpleLog) types.LogLevel {
	if log.Level != "" {
		return log.Level
	}
	message := strings.ToLower(log.Message)
	switch {
	case strings.Contains(message, "[error]"):
		return types.LogLevelError
	case strings.Contains(message, "[warn]"):
		return types.LogLevelWarn
	case strings.Contains(message, "[debug]"):
		return types.LogLevelDebug
	case strings.Contains(message, "[success]"):
		return types.LogLevelSuccess
	}
	return types.LogLevelInfo
}

var volatilePattern = regexp.MustCompile(`\d{2}:\d{2}:\d{2}|第\s*\d+\s*次|\d+次|\d+(\.\d+)?%`)

// normalizeMessage 去掉时间、次数、百分比等变化部分
func normalizeMessage(message string) string {
	return volatilePattern.ReplaceAllString(message, "")
}

func (d *LogDeduplicator) matchRule(message string) *MergeRule {
	for i := range d.rules {
		if d.rules[i].Pattern.MatchString(message) {
			return &d.rules[i]
		}
	}
	return nil
}

func groupKey(level types.LogLevel, platform, normalized string) string {
	return string(level) + "|" + platform + "|" + normalized
}

// Process 处理单条日志，返回需要立即输出的条目。被归并的条目返回 nil
func (d *LogDeduplicator) Process(log types.SimpleLog) []MergedLog {
	rule := d.matchRule(log.Message)
	if rule == nil {
		return []MergedLog{{SimpleLog: log}}
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	key := groupKey(extractLevel(log), log.Platform, normalizeMessage(log.Message))
	logTime, err := time.Parse("15:04:05", log.Time)
	if err != nil {
		logTime = time.Now()
	}

	if group, ok := d.groups[key]; ok {
		if logTime.Sub(group.lastTime) <= rule.TimeWindow && group.count < rule.MaxCount {
			group.count++
			group.lastTime = logTime
			group.lastLog = log
			return nil
		}
		result := d.flushGroup(key)
		d.groups[key] = &logGroup{rule: rule, firstLog: log, lastLog: log, count: 1, lastTime: logTime}
		return result
	}

	d.groups[key] = &logGroup{rule: rule, firstLog: log, lastLog: log, count: 1, lastTime: logTime}
	return nil
}

// flushGroup 调用方持有锁
func (d *LogDeduplicator) flushGroup(key string) []MergedLog {
	group, ok := d.groups[key]
	if !ok || group.count == 0 {
		return nil
	}
	delete(d.groups, key)

	rule := group.rule
	if group.count == 1 {
		return []MergedLog{{SimpleLog: group.firstLog, RepeatCount: 1}}
	}

	var results []MergedLog
	merged := MergedLog{
		IsMerged:    true,
		RepeatCount: group.count,
		StartTime:   group.firstLog.Time,
		EndTime:     group.lastLog.Time,
	}
	merged.SimpleLog = group.firstLog
	merged.Count = group.count

	if rule.ShowFirst {
		results = append(results, MergedLog{SimpleLog: group.firstLog, RepeatCount: 1})
		merged.Message = fmt.Sprintf("  ↳ 该消息在后续 %s 内重复出现 %d 次 (%s ~ %s)",
			rule.TimeWindow, group.count, group.firstLog.Time, group.lastLog.Time)
	}
	results = append(results, merged)
	if rule.ShowLast {
		results = append(results, MergedLog{SimpleLog: group.lastLog, RepeatCount: 1})
	}
	return results
}

// FlushAll 输出所有待归并的组
func (d *LogDeduplicator) FlushAll() []MergedLog {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	var results []MergedLog
	for key := range d.groups {
		results = append(results, d.flushGroup(key)...)
	}
	return results
}

// PendingCount 待归并的组数
func (d *LogDeduplicator) PendingCount() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.groups)
}
