package logger

import (
	"context"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger interface {
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
}

type logrusLogger struct {
	logger *logrus.Logger
}

const pkgPath = "github.com/browserwing/nopo/pkg/logger."

var wrappers = map[string]bool{
	"callerName":            true,
	"(*logrusLogger).log":   true,
	"(*logrusLogger).Warn":  true,
	"(*logrusLogger).Error": true,
	"(*logrusLogger).Info":  true,
	"(*logrusLogger).Debug": true,
	"Warn":                  true,
	"Error":                 true,
	"Info":                  true,
	"Debug":                 true,
}

// callerName 获取调用者的函数名，跳过本包的包装层
func callerName() string {
	pc := make([]uintptr, 8)
	n := runtime.Callers(2, pc)
	frames := runtime.CallersFrames(pc[:n])
	for {
		frame, more := frames.Next()
		fn := frame.Function
		if !(strings.HasPrefix(fn, pkgPath) && wrappers[fn[len(pkgPath):]]) {
			if i := strings.LastIndex(fn, "."); i >= 0 {
				return fn[i+1:]
			}
			return fn
		}
		if !more {
			return "unknown"
		}
	}
}

func (l *logrusLogger) log(ctx context.Context, level logrus.Level, msg string, args []any) {
	if !l.logger.IsLevelEnabled(level) {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	entry := l.logger.WithContext(ctx)
	if traceID := GetTraceID(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	args = append([]any{callerName()}, args...)
	entry.Logf(level, "[%s] "+msg, args...)
}

func (l *logrusLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logrus.WarnLevel, msg, args)
}

func (l *logrusLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logrus.ErrorLevel, msg, args)
}

func (l *logrusLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logrus.InfoLevel, msg, args)
}

func (l *logrusLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logrus.DebugLevel, msg, args)
}

// 未调用 InitLogger 时也可用（库代码和测试直接依赖它）
var defaultLogger Logger = New(os.Stderr, "warn")

type LoggerConfig struct {
	Level      string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`
	File       string `json:"file,omitempty" yaml:"file,omitempty" toml:"file,omitempty"`
	MaxSize    int    `json:"max_size,omitempty" yaml:"max_size,omitempty" toml:"max_size,omitempty"`          // 单个日志文件最大大小(MB),默认100MB
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty" toml:"max_backups,omitempty"` // 保留的旧日志文件最大数量,默认3个
	MaxAge     int    `json:"max_age,omitempty" yaml:"max_age,omitempty" toml:"max_age,omitempty"`             // 保留旧日志文件的最大天数,默认7天
	Compress   bool   `json:"compress,omitempty" yaml:"compress,omitempty" toml:"compress,omitempty"`          // 是否压缩旧日志,默认false
}

// New 创建一个写到 w 的 JSON 日志器
func New(w io.Writer, level string) Logger {
	log := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	// JSON 格式,方便提取 trace_id
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(w)
	return &logrusLogger{logger: log}
}

func InitLogger(cfg *LoggerConfig) {
	if cfg == nil {
		cfg = &LoggerConfig{Level: "info"}
	}
	var out io.Writer = os.Stderr
	if cfg.File != "" {
		maxSize := cfg.MaxSize
		if maxSize <= 0 {
			maxSize = 100
		}
		maxBackups := cfg.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		maxAge := cfg.MaxAge
		if maxAge <= 0 {
			maxAge = 7
		}
		// lumberjack 负责日志轮转
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     maxAge,
			Compress:   cfg.Compress,
		}
	}
	SetDefault(New(out, cfg.Level))
}

// SetDefault 替换全局日志器，nil 会被忽略
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

func Warn(ctx context.Context, msg string, args ...any) {
	defaultLogger.Warn(ctx, msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	defaultLogger.Error(ctx, msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	defaultLogger.Info(ctx, msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) {
	defaultLogger.Debug(ctx, msg, args...)
}

func GetDefaultLogger() Logger {
	return defaultLogger
}

type contextKey string

const traceIDKey contextKey = "trace_id"

// WithTraceID 将 trace_id 添加到 context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID 从 context 中获取 trace_id
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}
