package utils

import (
	"sync"
	"testing"

	"Fpublisher/internal/config"
	"Fpublisher/internal/types"
)

type collector struct {
	mu   sync.Mutex
	logs []types.SimpleLog
}

func (c *collector) Add(log types.SimpleLog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, log)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.logs)
}

func TestInitLoggerWhileLogging(t *testing.T) {
	logs := &collector{}
	SetLogService(logs)
	defer SetLogService(nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				WarnWithPlatform("douyin", "上传中")
			}
		}()
	}
	for i := 0; i < 10; i++ {
		if err := InitLogger(config.LoggerConfig{Level: "error"}); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	Sync()

	if n := logs.len(); n != 200 {
		t.Errorf("日志服务收到 %d 条, want 200", n)
	}
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	if err := InitLogger(config.LoggerConfig{Level: "loud"}); err == nil {
		t.Error("非法日志级别应返回错误")
	}
}
