package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// History 任务执行历史
type History struct {
	db *gorm.DB
}

// NewHistory 创建历史记录器
func NewHistory(db *gorm.DB) *History {
	return &History{db: db}
}

// Add 写入一条记录
func (h *History) Add(ctx context.Context, record *JobRecord) error {
	if err := h.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("save job record failed: %w", err)
	}
	return nil
}

// Recent 最近的记录，platform 为空表示全部
func (h *History) Recent(ctx context.Context, platform string, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := h.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if platform != "" {
		q = q.Where("platform = ?", platform)
	}
	var records []JobRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query job records failed: %w", err)
	}
	return records, nil
}

// ByRun 某次运行的全部记录
func (h *History) ByRun(ctx context.Context, runID string) ([]JobRecord, error) {
	var records []JobRecord
	if err := h.db.WithContext(ctx).Where("run_id = ?", runID).Order("started_at").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query run %s failed: %w", runID, err)
	}
	return records, nil
}
