package types

import "time"

// Event 事件接口
// 状态机与调度器通过回调向外发布事件
type Event interface {
	EventType() string
}

// EventHandler 事件回调
type EventHandler func(Event)

// JobStartedEvent 任务开始
type JobStartedEvent struct {
	RunID    string `json:"runId"`
	Platform string `json:"platform"`
	Account  string `json:"account"`
	Key      string `json:"key"`
}

func (e JobStartedEvent) EventType() string { return "job_started" }

// PhaseChangedEvent 状态机阶段切换
type PhaseChangedEvent struct {
	Platform string `json:"platform"`
	Key      string `json:"key"`
	From     Phase  `json:"from"`
	To       Phase  `json:"to"`
}

func (e PhaseChangedEvent) EventType() string { return "phase_changed" }

// JobFinishedEvent 任务结束，成功或失败
type JobFinishedEvent struct {
	RunID    string        `json:"runId"`
	Platform string        `json:"platform"`
	Account  string        `json:"account"`
	Key      string        `json:"key"`
	Status   JobStatus     `json:"status"`
	Phase    Phase         `json:"phase"`
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

func (e JobFinishedEvent) EventType() string { return "job_finished" }

// SessionCheckedEvent 会话校验结果
type SessionCheckedEvent struct {
	Platform string `json:"platform"`
	Account  string `json:"account"`
	Valid    bool   `json:"valid"`
}

func (e SessionCheckedEvent) EventType() string { return "session_checked" }

// LoginRequiredEvent 需要人工登录
type LoginRequiredEvent struct {
	Platform    string `json:"platform"`
	Account     string `json:"account"`
	Interactive bool   `json:"interactive"`
}

func (e LoginRequiredEvent) EventType() string { return "login_required" }
