package service

import (
	"strings"
	"testing"
	"time"

	"Fpublisher/internal/types"
)

func TestLogDeduplicator_Process(t *testing.T) {
	t.Run("unmatched_log_direct_output", func(t *testing.T) {
		dedup := NewLogDeduplicator()
		log := types.SimpleLog{Time: "10:00:00", Message: "视频文件已选择: /videos/cat.mp4", Level: types.LogLevelInfo}
		result := dedup.Process(log)
		if len(result) != 1 || result[0].Message != log.Message {
			t.Fatalf("期望原样输出，实际 %v", result)
		}
	})

	t.Run("matched_log_merged", func(t *testing.T) {
		dedup := NewLogDeduplicator()
		for i, ts := range []string{"10:00:00", "10:00:02", "10:00:04"} {
			log := types.SimpleLog{Time: ts, Message: "视频上传中...", Platform: "douyin", Level: types.LogLevelInfo}
			if result := dedup.Process(log); result != nil {
				t.Errorf("第 %d 条应被归并，实际 %v", i, result)
			}
		}
		// 超出时间窗口，旧组被输出
		result := dedup.Process(types.SimpleLog{Time: "10:05:00", Message: "视频上传中...", Platform: "douyin", Level: types.LogLevelInfo})
		if len(result) != 2 {
			t.Fatalf("期望首条 + 归并提示，实际 %v", result)
		}
		if result[0].IsMerged || !result[1].IsMerged || result[1].RepeatCount != 3 {
			t.Errorf("result = %+v", result)
		}
		if !strings.Contains(result[1].Message, "重复出现 3 次") {
			t.Errorf("归并提示 = %q", result[1].Message)
		}
	})

	t.Run("platforms_not_merged_together", func(t *testing.T) {
		dedup := NewLogDeduplicator()
		dedup.Process(types.SimpleLog{Time: "10:00:00", Message: "视频上传中...", Platform: "douyin"})
		dedup.Process(types.SimpleLog{Time: "10:00:00", Message: "视频上传中...", Platform: "bilibili"})
		if n := dedup.PendingCount(); n != 2 {
			t.Errorf("PendingCount() = %d, want 2", n)
		}
	})

	t.Run("attempt_numbers_normalized", func(t *testing.T) {
		dedup := NewLogDeduplicator()
		for i, msg := range []string{"点击发布（第 1 次）", "点击发布（第 2 次）", "点击发布（第 3 次）"} {
			dedup.Process(types.SimpleLog{Time: "10:00:0" + string(rune('0'+i)), Message: msg, Platform: "tencent"})
		}
		result := dedup.FlushAll()
		// 首条、归并提示、末条
		if len(result) != 3 {
			t.Fatalf("result = %+v", result)
		}
		if result[2].Message != "点击发布（第 3 次）" {
			t.Errorf("末条 = %q", result[2].Message)
		}
	})

	t.Run("flush_all", func(t *testing.T) {
		dedup := NewLogDeduplicator()
		log := types.SimpleLog{Time: "10:00:00", Message: "导航失败，准备重试"}
		dedup.Process(log)
		dedup.Process(log)
		dedup.Process(log)

		result := dedup.FlushAll()
		if len(result) != 1 || !result[0].IsMerged || result[0].RepeatCount != 3 || result[0].Count != 3 {
			t.Errorf("result = %+v", result)
		}
		if dedup.PendingCount() != 0 {
			t.Error("FlushAll 后不应有待归并的组")
		}
	})

	t.Run("single_entry_flushed_as_is", func(t *testing.T) {
		dedup := NewLogDeduplicator()
		log := types.SimpleLog{Time: "10:00:00", Message: "视频上传中..."}
		dedup.Process(log)
		result := dedup.FlushAll()
		if len(result) != 1 || result[0].IsMerged || result[0].Message != log.Message {
			t.Errorf("result = %+v", result)
		}
	})
}

func TestExtractLevel(t *testing.T) {
	tests := []struct {
		log  types.SimpleLog
		want types.LogLevel
	}{
		{types.SimpleLog{Message: "[ERROR] 错误消息"}, types.LogLevelError},
		{types.SimpleLog{Message: "[WARN] 警告消息"}, types.LogLevelWarn},
		{types.SimpleLog{Message: "[DEBUG] 调试消息"}, types.LogLevelDebug},
		{types.SimpleLog{Message: "[SUCCESS] 成功消息"}, types.LogLevelSuccess},
		{types.SimpleLog{Message: "普通消息"}, types.LogLevelInfo},
		{types.SimpleLog{Message: "[ERROR] 以字段为准", Level: types.LogLevelWarn}, types.LogLevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.log.Message, func(t *testing.T) {
			if got := extractLevel(tt.log); got != tt.want {
				t.Errorf("extractLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogService(t *testing.T) {
	service := newLogService(4, time.Hour)
	defer service.Close()

	service.Add(types.SimpleLog{Time: "10:00:00", Message: "开始发布", Level: types.LogLevelInfo})
	service.Add(types.SimpleLog{Time: "10:00:01", Message: "视频上传中...", Platform: "douyin", Level: types.LogLevelInfo})
	service.Add(types.SimpleLog{Time: "10:00:02", Message: "视频上传中...", Platform: "douyin", Level: types.LogLevelInfo})
	service.Add(types.SimpleLog{Time: "10:00:03", Message: "设置封面失败", Platform: "douyin", Level: types.LogLevelWarn})
	service.Flush()

	if n := service.Count(); n != 4 {
		t.Fatalf("Count() = %d, want 4", n)
	}
	if got := service.Query(types.LogQuery{Keyword: "重复出现"}); len(got) != 1 {
		t.Errorf("归并提示 = %v", got)
	}
	if got := service.Errors(0); len(got) != 1 || got[0].Message != "设置封面失败" {
		t.Errorf("Errors() = %v", got)
	}
	if got := service.Platforms(); len(got) != 1 || got[0] != "douyin" {
		t.Errorf("Platforms() = %v", got)
	}

	// 超出上限丢弃最旧的
	service.SetDedupEnabled(false)
	service.Add(types.SimpleLog{Time: "10:00:04", Message: "视频上传中...", Level: types.LogLevelInfo})
	if n := service.Count(); n != 4 {
		t.Errorf("Count() = %d, want 4", n)
	}
	if latest := service.Query(types.LogQuery{Limit: 1}); latest[0].Time != "10:00:04" {
		t.Errorf("最新一条 = %+v", latest[0])
	}
	if service.IsDedupEnabled() {
		t.Error("应能关闭归并")
	}
}
