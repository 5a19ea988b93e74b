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

const lockOwnerFile = "owner.json"

// RunLock 账号级运行锁，保证同一账号的会话与台账只有一个写入进程
type RunLock struct {
	dir string
}

type lockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

// AcquireRunLock 以创建目录的方式加锁，已被占用时返回 ErrRunLocked
func AcquireRunLock(lockDir, platform, account string) (*RunLock, error) {
	if strings.TrimSpace(lockDir) == "" {
		return nil, types.NewConfigurationError("未配置锁目录")
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, types.NewStateIOError("创建锁目录", err)
	}

	dir := filepath.Join(lockDir, types.Scope(platform, account)+".lock")
	if err := os.Mkdir(dir, 0o755); err != nil {
		if !os.IsExist(err) {
			return nil, types.NewStateIOError("加锁", err)
		}
		var owner lockOwner
		if readErr := utils.ReadJSON(filepath.Join(dir, lockOwnerFile), &owner); readErr == nil && owner.PID > 0 {
			return nil, fmt.Errorf("%w: %s (pid=%d created_at=%s host=%s)",
				types.ErrRunLocked, types.Scope(platform, account), owner.PID, owner.CreatedAt, owner.Hostname)
		}
		return nil, fmt.Errorf("%w: %s", types.ErrRunLocked, types.Scope(platform, account))
	}

	owner := lockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostname(),
	}
	if err := utils.WriteJSON(filepath.Join(dir, lockOwnerFile), owner); err != nil {
		_ = os.RemoveAll(dir)
		return nil, types.NewStateIOError("写入锁信息", err)
	}
	return &RunLock{dir: dir}, nil
}

// Release 释放锁，可重复调用
func (l *RunLock) Release() error {
	if l == nil || l.dir == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.dir, lockOwnerFile))
	if err := os.Remove(l.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("释放运行锁 %s 失败: %w", l.dir, err)
	}
	l.dir = ""
	return nil
}

func hostname() string {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		return "unknown"
	}
	return host
}
