package ledger

import (
	"errors"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"Fpublisher/internal/utils"
)

// JSONLedger JSON 数组台账。读取兼容字符串数组，写入为记录数组，每次整体原子替换
type JSONLedger struct {
	*memory
	path string
}

// OpenJSON 读取 JSON 台账，文件不存在视为空
func OpenJSON(path string) (*JSONLedger, error) {
	l := &JSONLedger{memory: newMemory(), path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, ledgerError("读取", err)
	}
	if len(data) == 0 {
		return l, nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsArray() {
		return nil, ledgerError("读取", errors.New(path+" 不是 JSON 数组"))
	}

	gjson.ParseBytes(data).ForEach(func(_, item gjson.Result) bool {
		switch {
		case item.Type == gjson.String:
			l.add(item.String(), time.Time{})
		case item.IsObject():
			key := item.Get("key").String()
			if key == "" {
				return true
			}
			at, _ := time.Parse(time.RFC3339, item.Get("completed_at").String())
			l.add(key, at)
		}
		return true
	})
	return l, nil
}

// Record 追加记录并重写文件
func (l *JSONLedger) Record(key string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.add(key, at) {
		return nil
	}

	if err := utils.WriteJSON(l.path, l.entries()); err != nil {
		delete(l.keys, key)
		return ledgerError("写入", err)
	}
	return nil
}

// Path 文件路径
func (l *JSONLedger) Path() string { return l.path }
