package types

import (
	"errors"
	"fmt"
)

// 错误类别，配合 errors.Is 使用
var (
	ErrSessionInvalid = errors.New("会话无效")
	ErrFileSelection  = errors.New("文件选择失败")
	ErrUpload         = errors.New("上传失败")
	ErrScheduling     = errors.New("定时设置失败")
	ErrPublish        = errors.New("发布失败")
	ErrContentMissing = errors.New("缺少标题内容")
	ErrConfiguration  = errors.New("配置错误")
	ErrTagLimit       = errors.New("标签数量超限")
	ErrStateIO        = errors.New("状态读写失败")
	ErrRunLocked      = errors.New("账号正被其他进程占用")
)

// JobError 带任务标识与阶段的错误
type JobError struct {
	Kind  error
	Key   string
	Phase Phase
	Err   error
}

func (e *JobError) Error() string {
	msg := e.Kind.Error()
	if e.Phase != "" {
		msg = fmt.Sprintf("%s: %s", e.Phase, msg)
	}
	if e.Key != "" {
		msg = fmt.Sprintf("[%s] %s", e.Key, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s - %v", msg, e.Err)
	}
	return msg
}

func (e *JobError) Unwrap() error { return e.Err }

// Is 按类别匹配
func (e *JobError) Is(target error) bool {
	return target == e.Kind
}

// NewJobError 创建任务错误
func NewJobError(kind error, phase Phase, err error) *JobError {
	return &JobError{Kind: kind, Phase: phase, Err: err}
}

// WithKey 附加任务标识，已存在时不覆盖
func WithKey(err error, key string) error {
	var je *JobError
	if errors.As(err, &je) {
		if je.Key == "" {
			je.Key = key
		}
		return je
	}
	return err
}

// PhaseOf 取出错误所在阶段
func PhaseOf(err error) Phase {
	var je *JobError
	if errors.As(err, &je) {
		return je.Phase
	}
	return ""
}

func NewSessionInvalidError(err error) *JobError {
	return NewJobError(ErrSessionInvalid, PhaseSession, err)
}

func NewFileSelectionError(err error) *JobError {
	return NewJobError(ErrFileSelection, PhaseFileSelecting, err)
}

func NewUploadError(phase Phase, err error) *JobError {
	return NewJobError(ErrUpload, phase, err)
}

func NewSchedulingError(err error) *JobError {
	return NewJobError(ErrScheduling, PhaseScheduling, err)
}

func NewPublishError(err error) *JobError {
	return NewJobError(ErrPublish, PhasePublishPolling, err)
}

func NewContentMissingError(err error) *JobError {
	return NewJobError(ErrContentMissing, PhaseContent, err)
}

func NewTagLimitError(count, limit int) *JobError {
	return NewJobError(ErrTagLimit, PhaseContent, fmt.Errorf("%d 个标签，上限 %d", count, limit))
}

// NewConfigurationError 配置错误，在任何任务开始前抛出
func NewConfigurationError(format string, args ...any) error {
	return NewJobError(ErrConfiguration, "", fmt.Errorf(format, args...))
}

// NewStateIOError 会话或台账读写错误，整个运行随之终止
func NewStateIOError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStateIO, op, err)
}

// IsFatal 是否应中止整个批次
func IsFatal(err error) bool {
	return errors.Is(err, ErrStateIO) || errors.Is(err, ErrRunLocked) || errors.Is(err, ErrConfiguration)
}
