package scheduler

import (
	"math/rand"
	"sort"
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/types"
)

// SlotConfig 定时发布的排期参数
type SlotConfig struct {
	DailyTimes     []int // 每天可用的整点
	VideosPerDay   int
	StartDayOffset int // 0 表示当天
	JitterMinutes  int // 在整点后随机偏移 [0, JitterMinutes) 分钟
}

// SlotConfigFrom 从应用配置读取
func SlotConfigFrom(c config.ScheduleConfig) SlotConfig {
	sc := SlotConfig{
		DailyTimes:    c.DailyTimes,
		VideosPerDay:  c.VideosPerDay,
		JitterMinutes: c.JitterMinutes,
	}
	if c.StartDayOffset != nil {
		sc.StartDayOffset = *c.StartDayOffset
	}
	return sc
}

// Validate 检查参数
func (c SlotConfig) Validate() error {
	if c.VideosPerDay <= 0 {
		return types.NewConfigurationError("videos_per_day 必须大于 0，当前为 %d", c.VideosPerDay)
	}
	if len(c.DailyTimes) == 0 {
		return types.NewConfigurationError("daily_times 不能为空")
	}
	for _, h := range c.DailyTimes {
		if h < 0 || h > 23 {
			return types.NewConfigurationError("daily_times 中的 %d 不是有效小时", h)
		}
	}
	if c.StartDayOffset < 0 {
		return types.NewConfigurationError("start_day_offset 不能为负数")
	}
	if c.JitterMinutes < 0 || c.JitterMinutes >= 60 {
		return types.NewConfigurationError("jitter_minutes 必须在 [0, 60) 内")
	}
	return nil
}

// Slots 为 count 个视频生成严格递增的发布时间。
// 第 i 个视频排在 start_day_offset + i/per_day 天的 daily_times[i%per_day] 点，
// per_day = min(videos_per_day, len(daily_times))。当天排期时跳过已过去的时段
func Slots(now time.Time, count int, cfg SlotConfig, rnd *rand.Rand) ([]time.Time, error) {
	if count < 0 {
		return nil, types.NewConfigurationError("视频数量不能为负数")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if count == 0 {
		return []time.Time{}, nil
	}
	if cfg.JitterMinutes > 0 && rnd == nil {
		rnd = rand.New(rand.NewSource(now.UnixNano()))
	}

	hours := normalizeHours(cfg.DailyTimes)
	perDay := cfg.VideosPerDay
	if perDay > len(hours) {
		perDay = len(hours)
	}

	y, m, d := now.Date()
	slots := make([]time.Time, 0, count)
	var prev time.Time
	for i := 0; len(slots) < count; i++ {
		day := cfg.StartDayOffset + i/perDay
		at := time.Date(y, m, d+day, hours[i%perDay], 0, 0, 0, now.Location())
		if !at.After(now) {
			continue
		}
		// 夏令时跳过的整点会被顺延到下一小时，与下一个时段重合
		if !prev.IsZero() && !at.After(prev) {
			continue
		}
		prev = at
		if cfg.JitterMinutes > 0 {
			at = at.Add(time.Duration(rnd.Intn(cfg.JitterMinutes)) * time.Minute)
		}
		slots = append(slots, at)
	}
	return slots, nil
}

// normalizeHours 排序并去重
func normalizeHours(hours []int) []int {
	out := append([]int(nil), hours...)
	sort.Ints(out)
	uniq := out[:0]
	for i, h := range out {
		if i == 0 || h != out[i-1] {
			uniq = append(uniq, h)
		}
	}
	return uniq
}
