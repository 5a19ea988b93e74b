package service

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/content"
	"Fpublisher/internal/ledger"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"
)

// QueueRequest 一个账号的建队参数
type QueueRequest struct {
	Platform string
	Account  string
	Dir      string
	Category string
}

// Queue 建队结果。Rejected 为内容缺失等无法进入状态机的视频，Skipped 为台账中已存在的键
type Queue struct {
	Platform string
	Account  string
	Jobs     []types.Job
	Rejected []types.JobResult
	Skipped  []string
}

// QueueBuilder 把视频目录转换为任务队列
type QueueBuilder struct {
	cfg      *config.AppConfig
	selector *content.Selector
	rnd      *rand.Rand
}

func NewQueueBuilder(cfg *config.AppConfig, selector *content.Selector, rnd *rand.Rand) *QueueBuilder {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &QueueBuilder{cfg: cfg, selector: selector, rnd: rnd}
}

// Build 扫描目录、去重、选择标题与话题。done 为 nil 时不去重。
// 定时时间由调用方在建队之后分配
func (b *QueueBuilder) Build(req QueueRequest, done ledger.Ledger) (*Queue, error) {
	videos, err := ScanVideos(req.Dir)
	if err != nil {
		return nil, types.NewConfigurationError("%v", err)
	}
	if b.cfg.Runner.Shuffle {
		b.rnd.Shuffle(len(videos), func(i, j int) { videos[i], videos[j] = videos[j], videos[i] })
	}

	q := &Queue{Platform: req.Platform, Account: req.Account}
	limit := b.cfg.Runner.MaxPerRun
	for _, video := range videos {
		if limit > 0 && len(q.Jobs) >= limit {
			break
		}

		key, err := ledger.IdentityKey(b.cfg.Storage.IdentityKey, video)
		if err != nil {
			if types.IsFatal(err) {
				return nil, err
			}
			q.Rejected = append(q.Rejected, rejected(req, video, "", types.NewFileSelectionError(err)))
			continue
		}
		if done != nil && done.Contains(key) {
			q.Skipped = append(q.Skipped, key)
			continue
		}

		sel, err := b.selector.Select(types.JobHint{VideoPath: video})
		if err != nil {
			utils.WarnWithPlatform(req.Platform, fmt.Sprintf("跳过 %s: %v", filepath.Base(video), err))
			q.Rejected = append(q.Rejected, rejected(req, video, key, err))
			continue
		}

		q.Jobs = append(q.Jobs, types.Job{
			Platform:  req.Platform,
			Account:   req.Account,
			VideoPath: video,
			Title:     sel.Title,
			Tags:      sel.Tags,
			Thumbnail: sel.Cover,
			Category:  req.Category,
			Key:       key,
		})
	}

	utils.InfoWithPlatform(req.Platform, fmt.Sprintf("账号 %s 待发布 %d 个，已发布跳过 %d 个，内容缺失 %d 个",
		req.Account, len(q.Jobs), len(q.Skipped), len(q.Rejected)))
	return q, nil
}

func rejected(req QueueRequest, video, key string, err error) types.JobResult {
	if key == "" {
		key = video
	}
	job := types.Job{Platform: req.Platform, Account: req.Account, VideoPath: video, Key: key}
	now := time.Now()
	return types.JobResult{
		Job:        job,
		Status:     types.JobStatusFailed,
		Phase:      types.PhaseContent,
		Err:        types.WithKey(err, key),
		StartedAt:  now,
		FinishedAt: now,
	}
}
