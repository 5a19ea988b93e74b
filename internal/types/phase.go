package types

import "time"

// Phase 发布状态机阶段
type Phase string

const (
	PhaseContent        Phase = "content"
	PhaseSession        Phase = "session"
	PhaseInit           Phase = "init"
	PhaseFileSelecting  Phase = "file_selecting"
	PhaseMetadataEntry  Phase = "metadata_entry"
	PhaseUploadPolling  Phase = "upload_polling"
	PhaseUploadRetry    Phase = "upload_retry"
	PhaseUploadFailed   Phase = "upload_failed"
	PhaseScheduling     Phase = "scheduling"
	PhasePublishPolling Phase = "publish_polling"
	PhasePublished      Phase = "published"
	PhasePublishFailed  Phase = "publish_failed"
)

// IsTerminal 是否终态
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseUploadFailed, PhasePublished, PhasePublishFailed:
		return true
	}
	return false
}

// JobStatus 单个任务的最终结果
type JobStatus string

const (
	JobStatusPublished JobStatus = "published"
	JobStatusFailed    JobStatus = "failed"
	JobStatusSkipped   JobStatus = "skipped"
)

// PublishState 单次任务运行期间的状态记录
type PublishState struct {
	Phase           Phase
	UploadRetries   int
	PublishAttempts int
	MetadataEntered bool
	LastError       error
	Trace           []Phase
}

// Enter 切换阶段并记录轨迹
func (s *PublishState) Enter(p Phase) {
	s.Phase = p
	s.Trace = append(s.Trace, p)
}

// JobResult 单个任务的执行结果
type JobResult struct {
	Job        Job
	Status     JobStatus
	Phase      Phase // 到达的阶段
	Err        error
	Trace      []Phase
	StartedAt  time.Time
	FinishedAt time.Time
}

// Published 是否发布成功
func (r JobResult) Published() bool {
	return r.Status == JobStatusPublished
}

// Duration 耗时
func (r JobResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
