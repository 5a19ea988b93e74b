// Package ledger 已发布视频台账，保证重复运行不会重复发布
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"Fpublisher/internal/config"
	"Fpublisher/internal/types"
)

// Ledger 只追加的已发布记录。Contains 在任务进入状态机前检查，Record 只在发布成功后调用
type Ledger interface {
	Contains(key string) bool
	Record(key string, at time.Time) error
	Entries() []Entry
}

// Entry 一条记录
type Entry struct {
	Key         string    `json:"key"`
	CompletedAt time.Time `json:"completed_at"`
}

// Open 按配置打开 platform+account 的台账。文件台账在打开时整体读入
func Open(cfg *config.AppConfig, db *gorm.DB, platform, account string) (Ledger, error) {
	switch cfg.Storage.LedgerFormat {
	case "", "txt":
		return OpenText(cfg.LedgerPath(platform, account))
	case "json":
		return OpenJSON(cfg.LedgerPath(platform, account))
	case "db":
		if db == nil {
			return nil, types.NewConfigurationError("台账格式为 db 但未配置数据库")
		}
		return OpenDB(db, types.Scope(platform, account))
	default:
		return nil, types.NewConfigurationError("未知台账格式: %s", cfg.Storage.LedgerFormat)
	}
}

// memory 各实现共用的内存索引，add 与 entries 需在持锁时调用
type memory struct {
	mu   sync.RWMutex
	keys map[string]time.Time
}

func newMemory() *memory {
	return &memory{keys: make(map[string]time.Time)}
}

func (m *memory) Contains(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[key]
	return ok
}

func (m *memory) add(key string, at time.Time) bool {
	if _, ok := m.keys[key]; ok {
		return false
	}
	m.keys[key] = at
	return true
}

func (m *memory) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries()
}

func (m *memory) entries() []Entry {
	entries := make([]Entry, 0, len(m.keys))
	for k, at := range m.keys {
		entries = append(entries, Entry{Key: k, CompletedAt: at})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CompletedAt.Equal(entries[j].CompletedAt) {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].CompletedAt.Before(entries[j].CompletedAt)
	})
	return entries
}

func ledgerError(op string, err error) error {
	return types.NewStateIOError(fmt.Sprintf("台账%s", op), err)
}
