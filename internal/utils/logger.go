package utils

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"Fpublisher/internal/config"
	"Fpublisher/internal/types"
)

// LogServiceInterface 日志服务接口（避免循环依赖）
type LogServiceInterface interface {
	Add(log types.SimpleLog)
}

type Logger struct {
	zap        *zap.Logger
	logService LogServiceInterface
	mutex      sync.RWMutex
}

var (
	defaultLogger *Logger
	loggerOnce    sync.Mutex
)

// NewZapLogger 按配置构建 zap，File 非空时额外写入滚动日志文件
func NewZapLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = "2006-01-02 15:04:05"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     timeEncoder(cfg.TimeFormat, cfg.Timezone),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	var consoleEncoder zapcore.Encoder
	if cfg.Format == "json" {
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		consoleConfig := encoderConfig
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder = zapcore.NewConsoleEncoder(consoleConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level),
	}
	if cfg.File != "" {
		writer := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(writer), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(3)), nil
}

func timeEncoder(format, timezone string) zapcore.TimeEncoder {
	loc := time.Local
	if timezone != "Local" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		} else {
			loc = time.UTC
		}
	}
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format(format))
	}
}

// InitLogger 初始化全局日志
func InitLogger(cfg config.LoggerConfig) error {
	z, err := NewZapLogger(cfg)
	if err != nil {
		return err
	}
	loggerOnce.Lock()
	defer loggerOnce.Unlock()
	if defaultLogger != nil {
		defaultLogger.mutex.Lock()
		old := defaultLogger.zap
		defaultLogger.zap = z
		defaultLogger.mutex.Unlock()
		_ = old.Sync()
		return nil
	}
	defaultLogger = &Logger{zap: z}
	return nil
}

func GetLogger() *Logger {
	loggerOnce.Lock()
	defer loggerOnce.Unlock()
	if defaultLogger == nil {
		z, err := NewZapLogger(config.LoggerConfig{})
		if err != nil {
			z = zap.NewNop()
		}
		defaultLogger = &Logger{zap: z}
	}
	return defaultLogger
}

// SetLogService 设置日志服务，用于运行结束后的日志汇总
func SetLogService(service LogServiceInterface) {
	l := GetLogger()
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.logService = service
}

// Sync 刷新缓冲
func Sync() {
	_ = GetLogger().core().Sync()
}

// Zap 底层 zap 实例，供需要结构化字段的调用方使用
func Zap() *zap.Logger {
	return GetLogger().core()
}

func (l *Logger) core() *zap.Logger {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.zap
}

func (l *Logger) log(level types.LogLevel, platform, msg string) {
	var fields []zap.Field
	if platform != "" {
		fields = append(fields, zap.String("platform", platform))
	}

	l.mutex.RLock()
	z, service := l.zap, l.logService
	l.mutex.RUnlock()

	switch level {
	case types.LogLevelError:
		z.Error(msg, fields...)
	case types.LogLevelWarn:
		z.Warn(msg, fields...)
	case types.LogLevelDebug:
		z.Debug(msg, fields...)
	case types.LogLevelSuccess:
		z.Info(msg, append(fields, zap.Bool("success", true))...)
	default:
		z.Info(msg, fields...)
	}
	if service != nil && level != types.LogLevelDebug {
		service.Add(types.SimpleLog{
			Time:     time.Now().Format("15:04:05"),
			Message:  strings.TrimSpace(msg),
			Platform: platform,
			Level:    level,
			Count:    1,
		})
	}
}

// ========== 基础日志函数（不带平台）==========

func (l *Logger) Info(msg string) {
	l.log(types.LogLevelInfo, "", msg)
}

func (l *Logger) Error(msg string) {
	l.log(types.LogLevelError, "", msg)
}

func (l *Logger) Warn(msg string) {
	l.log(types.LogLevelWarn, "", msg)
}

func (l *Logger) Debug(msg string) {
	l.log(types.LogLevelDebug, "", msg)
}

func (l *Logger) Success(msg string) {
	l.log(types.LogLevelSuccess, "", msg)
}

// ========== 带平台的日志函数 ==========

func (l *Logger) InfoWithPlatform(platform, msg string) {
	l.log(types.LogLevelInfo, platform, msg)
}

func (l *Logger) ErrorWithPlatform(platform, msg string) {
	l.log(types.LogLevelError, platform, msg)
}

func (l *Logger) WarnWithPlatform(platform, msg string) {
	l.log(types.LogLevelWarn, platform, msg)
}

func (l *Logger) DebugWithPlatform(platform, msg string) {
	l.log(types.LogLevelDebug, platform, msg)
}

func (l *Logger) SuccessWithPlatform(platform, msg string) {
	l.log(types.LogLevelSuccess, platform, msg)
}

// ========== 全局便捷函数 ==========

func Info(msg string)    { GetLogger().Info(msg) }
func Error(msg string)   { GetLogger().Error(msg) }
func Warn(msg string)    { GetLogger().Warn(msg) }
func Debug(msg string)   { GetLogger().Debug(msg) }
func Success(msg string) { GetLogger().Success(msg) }

func InfoWithPlatform(platform, msg string)    { GetLogger().InfoWithPlatform(platform, msg) }
func ErrorWithPlatform(platform, msg string)   { GetLogger().ErrorWithPlatform(platform, msg) }
func WarnWithPlatform(platform, msg string)    { GetLogger().WarnWithPlatform(platform, msg) }
func DebugWithPlatform(platform, msg string)   { GetLogger().DebugWithPlatform(platform, msg) }
func SuccessWithPlatform(platform, msg string) { GetLogger().SuccessWithPlatform(platform, msg) }
