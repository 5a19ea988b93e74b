package service

import (
	"sort"
	"strings"
	"sync"
	"time"

	"Fpublisher/internal/types"
)

const defaultLogLimit = 500

// LogService 保留最近的日志供运行结束时汇总，轮询类重复日志先归并再保存
type LogService struct {
	logs         []types.SimpleLog
	mutex        sync.RWMutex
	limit        int
	deduplicator *LogDeduplicator
	enableDedup  bool
	stop         chan struct{}
	stopOnce     sync.Once
}

// NewLogService 创建日志服务，并每秒把超时未满的归并组刷出
func NewLogService(limit int) *LogService {
	return newLogService(limit, time.Second)
}

func newLogService(limit int, flushInterval time.Duration) *LogService {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	s := &LogService{
		logs:         make([]types.SimpleLog, 0, limit),
		limit:        limit,
		deduplicator: NewLogDeduplicator(),
		enableDedup:  true,
		stop:         make(chan struct{}),
	}
	go s.flushLoop(flushInterval)
	return s
}

func (s *LogService) flushLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// Close 停止刷新并输出剩余的归并组
func (s *LogService) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.Flush()
}

// Flush 立即输出待归并的日志
func (s *LogService) Flush() {
	merged := s.deduplicator.FlushAll()
	if len(merged) == 0 {
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, m := range merged {
		s.append(m.SimpleLog)
	}
}

// Add 实现 utils.LogServiceInterface
func (s *LogService) Add(log types.SimpleLog) {
	s.mutex.RLock()
	dedup := s.enableDedup
	s.mutex.RUnlock()

	if !dedup {
		s.mutex.Lock()
		s.append(log)
		s.mutex.Unlock()
		return
	}

	merged := s.deduplicator.Process(log)
	if len(merged) == 0 {
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, m := range merged {
		s.append(m.SimpleLog)
	}
}

// append 调用方持有写锁
func (s *LogService) append(log types.SimpleLog) {
	s.logs = append(s.logs, log)
	if len(s.logs) > s.limit {
		s.logs = s.logs[len(s.logs)-s.limit:]
	}
}

// Query 按条件查询，最新的在前
func (s *LogService) Query(query types.LogQuery) []types.SimpleLog {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}
	result := make([]types.SimpleLog, 0, limit)
	for i := len(s.logs) - 1; i >= 0 && len(result) < limit; i-- {
		log := s.logs[i]
		if query.Keyword != "" && !strings.Contains(log.Message, query.Keyword) {
			continue
		}
		if query.Platform != "" && log.Platform != query.Platform {
			continue
		}
		if query.Level != "" && log.Level != query.Level {
			continue
		}
		result = append(result, log)
	}
	return result
}

// Errors 最近的错误与警告，按时间先后排列
func (s *LogService) Errors(limit int) []types.SimpleLog {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var result []types.SimpleLog
	for i := len(s.logs) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		if lv := s.logs[i].Level; lv == types.LogLevelError || lv == types.LogLevelWarn {
			result = append(result, s.logs[i])
		}
	}
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// Count 当前保存的条数
func (s *LogService) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.logs)
}

// SetDedupEnabled 关闭归并时先输出待归并的日志
func (s *LogService) SetDedupEnabled(enabled bool) {
	if !enabled {
		s.Flush()
	}
	s.mutex.Lock()
	s.enableDedup = enabled
	s.mutex.Unlock()
}

func (s *LogService) IsDedupEnabled() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.enableDedup
}

// Platforms 出现过日志的平台
func (s *LogService) Platforms() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	seen := make(map[string]bool)
	for _, log := range s.logs {
		if log.Platform != "" {
			seen[log.Platform] = true
		}
	}
	platforms := make([]string, 0, len(seen))
	for p := range seen {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	return platforms
}
