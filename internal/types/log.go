package types

// LogLevel 日志级别
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarn    LogLevel = "warn"
	LogLevelError   LogLevel = "error"
	LogLevelDebug   LogLevel = "debug"
	LogLevelSuccess LogLevel = "success"
)

// SimpleLog 日志条目，Count 为合并后的重复次数
type SimpleLog struct {
	Time     string   `json:"time"` // 15:04:05
	Message  string   `json:"message"`
	Platform string   `json:"platform,omitempty"`
	Level    LogLevel `json:"level"`
	Count    int      `json:"count"`
}

// LogQuery 日志尾部查询
type LogQuery struct {
	Limit    int      `json:"limit"`
	Keyword  string   `json:"keyword"`
	Platform string   `json:"platform"`
	Level    LogLevel `json:"level"`
}
