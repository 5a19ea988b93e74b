package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerEntry 已发布视频，(scope, key) 唯一
type LedgerEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Scope       string    `gorm:"not null;size:255;uniqueIndex:idx_ledger_scope_key" json:"scope"`
	Key         string    `gorm:"not null;size:1024;uniqueIndex:idx_ledger_scope_key" json:"key"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
}

// JobRecord 一次任务执行的历史记录
type JobRecord struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	RunID      string     `gorm:"not null;size:36;index" json:"run_id"`
	Platform   string     `gorm:"not null;size:50;index" json:"platform"`
	Account    string     `gorm:"not null;size:100" json:"account"`
	Key        string     `gorm:"not null;size:1024" json:"key"`
	Title      string     `gorm:"size:500" json:"title"`
	Status     string     `gorm:"size:20;index" json:"status"`
	Phase      string     `gorm:"size:50" json:"phase"`
	Error      string     `gorm:"type:text" json:"error"`
	PublishAt  *time.Time `json:"publish_at"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate 生成 ID
func (r *JobRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
