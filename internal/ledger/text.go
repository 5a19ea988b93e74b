package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// TextLedger 每行一条：key<TAB>RFC3339，兼容只有 key 的旧格式。
// 含有制表符、换行或以双引号开头的 key 以 Go 字符串字面量形式写入
type TextLedger struct {
	*memory
	path string
}

// OpenText 读取文本台账，文件不存在视为空
func OpenText(path string) (*TextLedger, error) {
	l := &TextLedger{memory: newMemory(), path: path}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, ledgerError("读取", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, stamp, _ := strings.Cut(line, "\t")
		if strings.HasPrefix(key, `"`) {
			if unquoted, err := strconv.Unquote(key); err == nil {
				key = unquoted
			}
		}
		var at time.Time
		if stamp != "" {
			at, _ = time.Parse(time.RFC3339, stamp)
		}
		l.add(key, at)
	}
	if err := scanner.Err(); err != nil {
		return nil, ledgerError("读取", err)
	}
	return l, nil
}

// Record 追加一行，已存在时不重复写入
func (l *TextLedger) Record(key string, at time.Time) error {
	if key == "" {
		return ledgerError("写入", fmt.Errorf("key 为空"))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.keys[key]; ok {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return ledgerError("写入", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return ledgerError("写入", err)
	}
	line := fmt.Sprintf("%s\t%s\n", encodeKey(key), at.Format(time.RFC3339))
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return ledgerError("写入", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return ledgerError("写入", err)
	}
	if err := f.Close(); err != nil {
		return ledgerError("写入", err)
	}
	l.add(key, at)
	return nil
}

// Path 文件路径
func (l *TextLedger) Path() string { return l.path }

func encodeKey(key string) string {
	if strings.ContainsAny(key, "\t\r\n") || strings.HasPrefix(key, `"`) {
		return strconv.Quote(key)
	}
	return key
}
