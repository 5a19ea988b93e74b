package ledger

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Fpublisher/internal/database"
)

// DBLedger 数据库台账，多台机器可共享同一个 postgres
type DBLedger struct {
	*memory
	db    *gorm.DB
	scope string
}

// OpenDB 读取 scope 下的全部记录
func OpenDB(db *gorm.DB, scope string) (*DBLedger, error) {
	l := &DBLedger{memory: newMemory(), db: db, scope: scope}

	var rows []database.LedgerEntry
	if err := db.Where("scope = ?", scope).Find(&rows).Error; err != nil {
		return nil, ledgerError("读取", err)
	}
	for _, r := range rows {
		l.add(r.Key, r.CompletedAt)
	}
	return l, nil
}

// Record 插入记录，唯一索引冲突时忽略
func (l *DBLedger) Record(key string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.keys[key]; ok {
		return nil
	}

	entry := database.LedgerEntry{Scope: l.scope, Key: key, CompletedAt: at}
	if err := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
		return ledgerError("写入", err)
	}
	l.add(key, at)
	return nil
}
