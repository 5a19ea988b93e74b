package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"Fpublisher/internal/config"
	"Fpublisher/internal/database"
	"Fpublisher/internal/ledger"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
	"Fpublisher/internal/platform/session"
	"Fpublisher/internal/publisher"
	"Fpublisher/internal/service"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"
	"Fpublisher/internal/utils/poll"
	"Fpublisher/internal/utils/retry"
)

// Pipeline 同一平台同一账号的任务，按顺序逐个执行
type Pipeline struct {
	Platform string
	Account  string
	Jobs     []types.Job
}

// Scope 平台+账号
func (p Pipeline) Scope() string {
	return types.Scope(p.Platform, p.Account)
}

// GroupJobs 按平台+账号分组，保持任务与分组的出现顺序
func GroupJobs(jobs []types.Job) []Pipeline {
	index := make(map[string]int)
	var pipelines []Pipeline
	for _, job := range jobs {
		scope := job.Scope()
		i, ok := index[scope]
		if !ok {
			i = len(pipelines)
			index[scope] = i
			pipelines = append(pipelines, Pipeline{Platform: job.Platform, Account: job.Account})
		}
		pipelines[i].Jobs = append(pipelines[i].Jobs, job)
	}
	return pipelines
}

// AssignSlots 为一个账号的任务依次分配定时时间
func AssignSlots(jobs []types.Job, now time.Time, cfg SlotConfig, rnd *rand.Rand) error {
	slots, err := Slots(now, len(jobs), cfg, rnd)
	if err != nil {
		return err
	}
	for i := range jobs {
		at := slots[i]
		jobs[i].PublishAt = &at
	}
	return nil
}

// Report 一次运行的结果
type Report struct {
	RunID      string
	Results    []types.JobResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Count 按状态统计
func (r *Report) Count(status types.JobStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Runner 批量发布调度器。不同账号并发，同一账号串行
type Runner struct {
	cfg        *config.AppConfig
	registry   *platform.Registry
	launcher   browser.Launcher
	store      *session.Store
	accounts   *service.AccountService
	db         *gorm.DB
	history    *database.History
	onEvent    types.EventHandler
	navigation *retry.Config
}

// Option Runner 选项
type Option func(*Runner)

// WithDatabase 台账格式为 db 或开启运行记录时需要
func WithDatabase(db *gorm.DB) Option {
	return func(r *Runner) {
		r.db = db
		if db != nil && r.cfg.Database.History {
			r.history = database.NewHistory(db)
		}
	}
}

// WithEventHandler 接收任务与阶段事件
func WithEventHandler(h types.EventHandler) Option {
	return func(r *Runner) { r.onEvent = h }
}

// WithNavigationRetry 覆盖打开创作页的重试策略
func WithNavigationRetry(c *retry.Config) Option {
	return func(r *Runner) { r.navigation = c }
}

func NewRunner(cfg *config.AppConfig, registry *platform.Registry, launcher browser.Launcher, store *session.Store, accounts *service.AccountService, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		registry: registry,
		launcher: launcher,
		store:    store,
		accounts: accounts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run 执行全部流水线。任务级失败记录在 Report 中；
// 会话或台账读写失败、账号被占用、配置错误会取消其余流水线并返回错误
func (r *Runner) Run(ctx context.Context, pipelines []Pipeline) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	if err := r.check(pipelines); err != nil {
		return report, err
	}

	limit := r.cfg.Runner.MaxConcurrentAccounts
	if limit <= 0 {
		limit = 1
	}
	utils.Info(fmt.Sprintf("[+] 运行 %s 开始，%d 个账号，并发 %d", report.RunID, len(pipelines), limit))

	results := make([][]types.JobResult, len(pipelines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range pipelines {
		g.Go(func() error {
			res, err := r.runPipeline(gctx, report.RunID, p)
			results[i] = res
			if err != nil {
				utils.ErrorWithPlatform(p.Platform, fmt.Sprintf("账号 %s 中止: %v", p.Account, err))
			}
			return err
		})
	}
	err := g.Wait()

	for _, res := range results {
		report.Results = append(report.Results, res...)
	}
	report.FinishedAt = time.Now()
	utils.Info(fmt.Sprintf("[+] 运行 %s 结束: 成功 %d，失败 %d，跳过 %d，耗时 %v",
		report.RunID, report.Count(types.JobStatusPublished), report.Count(types.JobStatusFailed),
		report.Count(types.JobStatusSkipped), report.FinishedAt.Sub(report.StartedAt).Round(time.Second)))
	if err == nil {
		err = ctx.Err()
	}
	return report, err
}

// check 任务开始前校验平台与配置
func (r *Runner) check(pipelines []Pipeline) error {
	seen := make(map[string]bool)
	for _, p := range pipelines {
		if seen[p.Scope()] {
			return types.NewConfigurationError("账号 %s 出现在多个流水线中", p.Scope())
		}
		seen[p.Scope()] = true
		profile, err := r.registry.Get(p.Platform)
		if err != nil {
			return types.NewConfigurationError("%v", err)
		}
		if _, err := profile.Options(r.cfg); err != nil {
			return types.NewConfigurationError("platforms.%s: %v", p.Platform, err)
		}
		for _, job := range p.Jobs {
			if job.Platform != p.Platform || job.Account != p.Account {
				return types.NewConfigurationError("任务 %s 不属于 %s", job, p.Scope())
			}
		}
	}
	return nil
}

func (r *Runner) runPipeline(ctx context.Context, runID string, p Pipeline) ([]types.JobResult, error) {
	profile, _ := r.registry.Get(p.Platform)
	opts, _ := profile.Options(r.cfg)

	lock, err := session.AcquireRunLock(r.cfg.Storage.LockDir, p.Platform, p.Account)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			utils.WarnWithPlatform(p.Platform, err.Error())
		}
	}()

	led, err := ledger.Open(r.cfg, r.db, p.Platform, p.Account)
	if err != nil {
		return nil, err
	}

	machine := publisher.New(r.launcher, r.store, profile, publisher.Options{
		Platform:   opts,
		Navigation: r.navigation,
		OnEvent:    r.onEvent,
	})

	var (
		results []types.JobResult
		sess    *session.Session
		sessErr error
		ran     bool
	)
	for _, job := range p.Jobs {
		if ctx.Err() != nil {
			break
		}
		if led.Contains(job.Key) {
			utils.InfoWithPlatform(p.Platform, fmt.Sprintf("已发布过，跳过: %s", job.Key))
			results = append(results, skipped(job))
			continue
		}

		if ran {
			if err := poll.Sleep(ctx, r.cfg.JobInterval()); err != nil {
				break
			}
		}

		if sess == nil && sessErr == nil {
			sess, sessErr = r.accounts.EnsureSession(ctx, profile, p.Account)
			if sessErr != nil && (types.IsFatal(sessErr) || errors.Is(sessErr, context.Canceled)) {
				return results, sessErr
			}
		}

		r.emit(types.JobStartedEvent{RunID: runID, Platform: p.Platform, Account: p.Account, Key: job.Key})
		var (
			res   types.JobResult
			fatal error
		)
		if sessErr != nil {
			res = failed(job, types.PhaseSession, types.WithKey(sessErr, job.Key))
		} else {
			res, fatal = r.runJob(ctx, machine, job, sess)
			ran = true
		}

		if res.Published() {
			if err := led.Record(job.Key, res.FinishedAt); err != nil {
				results = append(results, res)
				r.finish(ctx, runID, res)
				return results, err
			}
		}
		results = append(results, res)
		r.finish(ctx, runID, res)
		if fatal != nil {
			return results, fatal
		}
	}
	return results, nil
}

func (r *Runner) runJob(ctx context.Context, m *publisher.Machine, job types.Job, sess *session.Session) (types.JobResult, error) {
	if timeout := r.cfg.JobTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	utils.InfoWithPlatform(job.Platform, fmt.Sprintf("开始发布: %s (%s)", job.Title, job.Key))
	return m.Run(ctx, job, sess)
}

// finish 记录运行历史并发出结束事件。历史记录失败只告警
func (r *Runner) finish(ctx context.Context, runID string, res types.JobResult) {
	job := res.Job
	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
		utils.ErrorWithPlatform(job.Platform, fmt.Sprintf("发布失败: %s", errMsg))
	}

	if r.history != nil {
		record := &database.JobRecord{
			RunID:      runID,
			Platform:   job.Platform,
			Account:    job.Account,
			Key:        job.Key,
			Title:      job.Title,
			Status:     string(res.Status),
			Phase:      string(res.Phase),
			Error:      errMsg,
			PublishAt:  job.PublishAt,
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
		}
		if err := r.history.Add(context.WithoutCancel(ctx), record); err != nil {
			utils.WarnWithPlatform(job.Platform, fmt.Sprintf("写入运行记录失败: %v", err))
		}
	}

	r.emit(types.JobFinishedEvent{
		RunID:    runID,
		Platform: job.Platform,
		Account:  job.Account,
		Key:      job.Key,
		Status:   res.Status,
		Phase:    res.Phase,
		Error:    errMsg,
		Elapsed:  res.Duration(),
	})
}

func (r *Runner) emit(e types.Event) {
	if r.onEvent != nil {
		r.onEvent(e)
	}
}

func skipped(job types.Job) types.JobResult {
	now := time.Now()
	return types.JobResult{Job: job, Status: types.JobStatusSkipped, StartedAt: now, FinishedAt: now}
}

func failed(job types.Job, phase types.Phase, err error) types.JobResult {
	now := time.Now()
	return types.JobResult{Job: job, Status: types.JobStatusFailed, Phase: phase, Err: err, StartedAt: now, FinishedAt: now}
}
