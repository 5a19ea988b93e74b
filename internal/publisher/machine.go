// Package publisher 单个视频的上传发布状态机。
// 各平台的差异全部来自 platform.Profile，这里只有一套流程
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
	"Fpublisher/internal/platform/session"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"
	"Fpublisher/internal/utils/poll"
	"Fpublisher/internal/utils/retry"
)

const (
	fileProbeInterval = 500 * time.Millisecond
	widgetTimeout     = 10 * time.Second
)

var (
	errUploadIndicator  = errors.New("页面提示上传失败")
	errPublishIndicator = errors.New("页面提示发布失败")
)

// Options 状态机参数
type Options struct {
	Platform   config.PlatformOptions
	Navigation *retry.Config // 打开创作页的重试策略，nil 使用默认
	OnEvent    types.EventHandler
}

// Machine 发布状态机，可顺序处理同一账号的多个任务，不可并发使用
type Machine struct {
	launcher browser.Launcher
	store    *session.Store
	profile  platform.Profile
	opts     Options
}

// New 创建状态机
func New(launcher browser.Launcher, store *session.Store, profile platform.Profile, opts Options) *Machine {
	if opts.Navigation == nil {
		opts.Navigation = retry.NavigationConfig()
	}
	if opts.Platform.FileAcceptTimeout <= 0 {
		opts.Platform.FileAcceptTimeout = config.DefaultTiming().FileAcceptTimeout
	}
	return &Machine{launcher: launcher, store: store, profile: profile, opts: opts}
}

// run 单次任务的运行期数据
type run struct {
	job   types.Job
	tags  []string
	state *types.PublishState
	page  browser.Page
}

// Run 执行一个任务。任务级失败体现在 JobResult 中；
// 返回的 error 只用于会话无法保存这类需要终止整个批次的错误
func (m *Machine) Run(ctx context.Context, job types.Job, sess *session.Session) (types.JobResult, error) {
	r := &run{job: job, state: &types.PublishState{}}
	result := types.JobResult{Job: job, StartedAt: time.Now()}

	finish := func(err error) types.JobResult {
		result.FinishedAt = time.Now()
		result.Phase = r.state.Phase
		result.Trace = r.state.Trace
		if err != nil {
			result.Status = types.JobStatusFailed
			result.Err = types.WithKey(err, job.Key)
		} else {
			result.Status = types.JobStatusPublished
		}
		return result
	}

	tags, err := m.prepareTags(job)
	if err != nil {
		m.enter(r, types.PhaseContent)
		return finish(err), nil
	}
	r.tags = tags
	if job.IsScheduled() && !m.profile.SupportsSchedule() {
		m.enter(r, types.PhaseContent)
		return finish(types.NewSchedulingError(fmt.Errorf("%s 不支持定时发布", m.profile.Name))), nil
	}
	if sess == nil || len(sess.State) == 0 {
		m.enter(r, types.PhaseSession)
		return finish(types.NewSessionInvalidError(session.ErrNoSession)), nil
	}

	m.enter(r, types.PhaseInit)
	bctx, err := m.launcher.Open(ctx, browser.ContextOptions{Platform: m.profile.Name, State: sess.State})
	if err != nil {
		return finish(types.NewFileSelectionError(fmt.Errorf("打开浏览器失败: %w", err))), nil
	}

	runErr := m.drive(ctx, r, bctx)

	// 平台会在使用中轮换令牌，无论成败都回写会话
	fatal := m.persist(bctx, sess)
	if cerr := bctx.Close(); cerr != nil {
		m.warn("关闭浏览器上下文失败: %v", cerr)
	}
	return finish(runErr), fatal
}

func (m *Machine) drive(ctx context.Context, r *run, bctx browser.Context) error {
	page, err := bctx.NewPage()
	if err != nil {
		return types.NewFileSelectionError(fmt.Errorf("创建页面失败: %w", err))
	}
	r.page = page

	err = retry.NewRetry(m.opts.Navigation).Do(ctx, func() error {
		return page.Navigate(ctx, m.profile.CreateURL)
	})
	if err != nil {
		return types.NewFileSelectionError(err)
	}

	m.enter(r, types.PhaseFileSelecting)
	if err := m.selectFile(ctx, page, m.profile.FileInputs, r.job.VideoPath); err != nil {
		m.screenshot(page, "file_selecting")
		return types.NewFileSelectionError(err)
	}
	m.log("视频文件已选择: %s", r.job.VideoPath)

	for {
		m.enter(r, types.PhaseMetadataEntry)
		if err := m.awaitEditSurface(ctx, page); err != nil {
			m.screenshot(page, "edit_surface")
			m.enter(r, types.PhaseUploadFailed)
			return types.NewUploadError(types.PhaseMetadataEntry, err)
		}
		if !r.state.MetadataEntered || m.profile.Recovery.ResetsForm {
			if err := m.enterMetadata(ctx, r); err != nil {
				m.screenshot(page, "metadata")
				m.enter(r, types.PhaseUploadFailed)
				return types.NewUploadError(types.PhaseMetadataEntry, err)
			}
			r.state.MetadataEntered = true
		}

		m.enter(r, types.PhaseUploadPolling)
		res := m.pollUpload(ctx, page)
		if res.Status == poll.Ready {
			m.log("视频上传完成")
			break
		}
		if res.Status != poll.Failed {
			m.enter(r, types.PhaseUploadFailed)
			return types.NewUploadError(types.PhaseUploadPolling, pollError("等待上传完成", res))
		}

		r.state.LastError = res.Err
		if !m.profile.CanRecover() || r.state.UploadRetries >= m.opts.Platform.MaxUploadRetries {
			m.screenshot(page, "upload_failed")
			m.enter(r, types.PhaseUploadFailed)
			return types.NewUploadError(types.PhaseUploadPolling, res.Err)
		}

		m.enter(r, types.PhaseUploadRetry)
		r.state.UploadRetries++
		m.warn("上传失败，第 %d 次重新上传", r.state.UploadRetries)
		if err := m.recoverUpload(ctx, page, r.job.VideoPath); err != nil {
			m.enter(r, types.PhaseUploadFailed)
			return types.NewUploadError(types.PhaseUploadRetry, err)
		}
	}

	if r.job.IsScheduled() {
		m.enter(r, types.PhaseScheduling)
		if err := m.setSchedule(ctx, page, *r.job.PublishAt); err != nil {
			m.screenshot(page, "scheduling")
			m.enter(r, types.PhasePublishFailed)
			return types.NewSchedulingError(err)
		}
		m.log("定时发布时间已设置: %s", r.job.PublishAt.Format("2006-01-02 15:04"))
	}

	m.enter(r, types.PhasePublishPolling)
	res := m.pollPublish(ctx, r)
	if res.Status != poll.Ready {
		m.screenshot(page, "publish")
		m.enter(r, types.PhasePublishFailed)
		if res.Status == poll.Failed {
			return types.NewPublishError(res.Err)
		}
		return types.NewPublishError(pollError("等待发布完成", res))
	}

	m.enter(r, types.PhasePublished)
	utils.SuccessWithPlatform(m.profile.Name, fmt.Sprintf("视频发布成功: %s", r.job.Title))
	return nil
}

// prepareTags 按平台上限处理话题
func (m *Machine) prepareTags(job types.Job) ([]string, error) {
	limit := platform.TagCap(m.profile, m.opts.Platform)
	if limit <= 0 || len(job.Tags) <= limit {
		return job.Tags, nil
	}
	if m.opts.Platform.TagOverflow == config.TagOverflowReject {
		return nil, types.NewTagLimitError(len(job.Tags), limit)
	}
	m.log("话题数量 %d 超过上限 %d，只保留前 %d 个", len(job.Tags), limit, limit)
	return job.Tags[:limit], nil
}

// selectFile 依次尝试文件输入框，直到页面出现可用的那个
func (m *Machine) selectFile(ctx context.Context, page browser.Page, inputs []string, path string) error {
	var lastErr error
	res := poll.Until(ctx, poll.Options{Interval: fileProbeInterval, Timeout: m.opts.Platform.FileAcceptTimeout}, func(ctx context.Context) (poll.Status, error) {
		for _, sel := range inputs {
			if n, err := page.Count(sel); err != nil || n == 0 {
				continue
			}
			if err := page.SetInputFiles(sel, path); err != nil {
				lastErr = err
				continue
			}
			return poll.Ready, nil
		}
		return poll.Pending, lastErr
	})
	if res.Status != poll.Ready {
		return pollError("未找到文件输入框", res)
	}
	return nil
}

func (m *Machine) awaitEditSurface(ctx context.Context, page browser.Page) error {
	if m.profile.EditSurface.IsZero() {
		return nil
	}
	res := poll.Until(ctx, poll.Options{Interval: fileProbeInterval, Timeout: m.opts.Platform.FileAcceptTimeout}, func(ctx context.Context) (poll.Status, error) {
		m.dismiss(page)
		ok, err := m.profile.EditSurface.Check(page)
		if ok {
			return poll.Ready, nil
		}
		return poll.Pending, err
	})
	if res.Status != poll.Ready {
		return pollError("等待编辑页", res)
	}
	return nil
}

// pollUpload 每轮先看失败提示再看成功标记
func (m *Machine) pollUpload(ctx context.Context, page browser.Page) poll.Result {
	opts := poll.Options{Interval: m.opts.Platform.UploadPollInterval, Timeout: m.opts.Platform.UploadTimeout}
	return poll.Until(ctx, opts, func(ctx context.Context) (poll.Status, error) {
		m.dismiss(page)
		if failed, _ := m.profile.UploadFailure.Check(page); failed {
			return poll.Failed, errUploadIndicator
		}
		ok, err := m.profile.UploadSuccess.Check(page)
		if ok {
			return poll.Ready, nil
		}
		utils.DebugWithPlatform(m.profile.Name, "视频上传中...")
		return poll.Pending, err
	})
}

// recoverUpload 删除失败的视频后重新选择文件
func (m *Machine) recoverUpload(ctx context.Context, page browser.Page, path string) error {
	rec := m.profile.Recovery
	if rec.Delete != "" {
		if n, _ := page.Count(rec.Delete); n > 0 {
			if err := page.Click(rec.Delete); err != nil {
				return fmt.Errorf("删除失败的视频: %w", err)
			}
			if rec.DeleteConfirm != "" {
				if err := page.WaitFor(ctx, rec.DeleteConfirm, widgetTimeout); err == nil {
					if err := page.Click(rec.DeleteConfirm); err != nil {
						return fmt.Errorf("确认删除: %w", err)
					}
				}
			}
		}
	}
	if err := m.selectFile(ctx, page, m.profile.RetryInputs(), path); err != nil {
		return fmt.Errorf("重新选择文件: %w", err)
	}
	return nil
}

// pollPublish 每轮先判断结果，未出结果时点击发布与确认。
// 点击发布后 PublishClickWait 内不再点击发布，确认框每次发布只点一次
func (m *Machine) pollPublish(ctx context.Context, r *run) poll.Result {
	button := m.profile.Publish.Button
	if r.job.IsScheduled() && m.profile.Publish.ScheduledButton != "" {
		button = m.profile.Publish.ScheduledButton
	}
	confirm := m.profile.Publish.Confirm
	wait := m.opts.Platform.PublishClickWait
	page := r.page

	var (
		clickedAt time.Time
		confirmed bool
	)
	opts := poll.Options{Interval: m.opts.Platform.PublishPollInterval, Timeout: m.opts.Platform.PublishTimeout}
	return poll.Until(ctx, opts, func(ctx context.Context) (poll.Status, error) {
		if ok, _ := m.profile.Publish.Success.Check(page); ok {
			return poll.Ready, nil
		}
		if failed, _ := m.profile.Publish.Failure.Check(page); failed {
			return poll.Failed, errPublishIndicator
		}

		var lastErr error
		if clickedAt.IsZero() || time.Since(clickedAt) >= wait {
			if n, _ := page.Count(button); n > 0 {
				if err := page.Click(button); err != nil {
					lastErr = err
				} else {
					clickedAt = time.Now()
					confirmed = false
					r.state.PublishAttempts++
					m.log("点击发布（第 %d 次）", r.state.PublishAttempts)
				}
			}
		}
		if confirm != "" && !confirmed {
			if n, _ := page.Count(confirm); n > 0 {
				if err := page.Click(confirm); err != nil {
					lastErr = err
				} else {
					confirmed = true
					clickedAt = time.Now()
				}
			}
		}
		return poll.Pending, lastErr
	})
}

func (m *Machine) dismiss(page browser.Page) {
	for _, sel := range m.profile.Dismiss {
		if n, _ := page.Count(sel); n > 0 {
			_ = page.Click(sel)
		}
	}
}

// persist 导出并保存当前会话，失败时返回致命错误
func (m *Machine) persist(bctx browser.Context, sess *session.Session) error {
	state, err := bctx.StorageState()
	if err != nil {
		return types.NewStateIOError("导出会话", err)
	}
	if len(state) == 0 {
		return nil
	}
	sess.State = state
	if err := m.store.Save(sess); err != nil {
		return err
	}
	return nil
}

func (m *Machine) enter(r *run, phase types.Phase) {
	from := r.state.Phase
	r.state.Enter(phase)
	utils.DebugWithPlatform(m.profile.Name, fmt.Sprintf("[%s] %s -> %s", r.job.Key, from, phase))
	if m.opts.OnEvent != nil {
		m.opts.OnEvent(types.PhaseChangedEvent{Platform: m.profile.Name, Key: r.job.Key, From: from, To: phase})
	}
}

func (m *Machine) screenshot(page browser.Page, name string) {
	_ = page.Screenshot(name)
}

func (m *Machine) log(format string, args ...any) {
	utils.InfoWithPlatform(m.profile.Name, fmt.Sprintf(format, args...))
}

func (m *Machine) warn(format string, args ...any) {
	utils.WarnWithPlatform(m.profile.Name, fmt.Sprintf(format, args...))
}

func pollError(what string, res poll.Result) error {
	switch res.Status {
	case poll.TimedOut:
		if res.Err != nil {
			return fmt.Errorf("%s超时（%v）: %w", what, res.Elapsed.Round(time.Millisecond), res.Err)
		}
		return fmt.Errorf("%s超时（%v）", what, res.Elapsed.Round(time.Millisecond))
	case poll.Canceled:
		return fmt.Errorf("%s被取消: %w", what, res.Err)
	}
	if res.Err != nil {
		return fmt.Errorf("%s: %w", what, res.Err)
	}
	return errors.New(what)
}
