// Package session 管理各平台账号的登录态：持久化、校验、人工登录与运行锁
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"
)

// ErrNoSession 从未登录过
var ErrNoSession = errors.New("会话不存在")

// Session 一个账号的 storage state 快照
type Session struct {
	Platform      string
	Account       string
	State         []byte
	LastValidated time.Time
	Stale         bool // 上次校验失败，仅作提示
}

type sessionMeta struct {
	LastValidated time.Time `json:"last_validated,omitempty"`
	Stale         bool      `json:"stale"`
	SavedAt       time.Time `json:"saved_at,omitempty"`
}

// Store 会话文件存储，每个账号一个 <platform>_<account>.json，旁边是 .meta.json
type Store struct {
	dir string
}

// NewStore 创建存储
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path 会话文件路径
func (s *Store) Path(platform, account string) string {
	return filepath.Join(s.dir, types.Scope(platform, account)+".json")
}

func (s *Store) metaPath(platform, account string) string {
	return strings.TrimSuffix(s.Path(platform, account), ".json") + ".meta.json"
}

// Exists 是否有已保存的会话
func (s *Store) Exists(platform, account string) (bool, error) {
	_, err := os.Stat(s.Path(platform, account))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, types.NewStateIOError("检查会话文件", err)
}

// Load 读取会话，不存在时返回 ErrNoSession
func (s *Store) Load(platform, account string) (*Session, error) {
	state, err := os.ReadFile(s.Path(platform, account))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, types.NewStateIOError("读取会话", err)
	}

	sess := &Session{Platform: platform, Account: account, State: state}
	meta, err := s.readMeta(platform, account)
	if err != nil {
		return nil, err
	}
	sess.LastValidated = meta.LastValidated
	sess.Stale = meta.Stale
	return sess, nil
}

// Save 覆盖写入会话。写入新状态会清除 stale 标记
func (s *Store) Save(sess *Session) error {
	if sess == nil || len(sess.State) == 0 {
		return types.NewStateIOError("保存会话", errors.New("空会话"))
	}
	if err := utils.WriteFileAtomic(s.Path(sess.Platform, sess.Account), sess.State); err != nil {
		return types.NewStateIOError("保存会话", err)
	}
	meta, err := s.readMeta(sess.Platform, sess.Account)
	if err != nil {
		return err
	}
	meta.SavedAt = time.Now()
	if !sess.LastValidated.IsZero() {
		meta.LastValidated = sess.LastValidated
	}
	meta.Stale = false
	sess.Stale = false
	return s.writeMeta(sess.Platform, sess.Account, meta)
}

// Invalidate 标记失效。会话文件保留，下次运行重新校验或登录
func (s *Store) Invalidate(platform, account string) error {
	meta, err := s.readMeta(platform, account)
	if err != nil {
		return err
	}
	meta.Stale = true
	return s.writeMeta(platform, account, meta)
}

// MarkValidated 记录校验通过的时间
func (s *Store) MarkValidated(platform, account string, at time.Time) error {
	meta, err := s.readMeta(platform, account)
	if err != nil {
		return err
	}
	meta.LastValidated = at
	meta.Stale = false
	return s.writeMeta(platform, account, meta)
}

func (s *Store) readMeta(platform, account string) (sessionMeta, error) {
	var meta sessionMeta
	err := utils.ReadJSON(s.metaPath(platform, account), &meta)
	if err == nil || os.IsNotExist(err) {
		return meta, nil
	}
	// 元数据损坏不影响会话本身
	utils.WarnWithPlatform(platform, fmt.Sprintf("会话元数据无法解析，已忽略: %v", err))
	return sessionMeta{}, nil
}

func (s *Store) writeMeta(platform, account string, meta sessionMeta) error {
	if err := utils.WriteJSON(s.metaPath(platform, account), meta); err != nil {
		return types.NewStateIOError("写入会话元数据", err)
	}
	return nil
}
