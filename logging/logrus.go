package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogrusProvider 把日志转发给一个 *logrus.Logger
type LogrusProvider struct {
	target       *logrus.Logger
	minimumLevel LogLevel
	mu           sync.RWMutex
}

// NewLogrusProvider 创建 logrus 提供者，target 为 nil 时使用 logrus.StandardLogger()
func NewLogrusProvider(target *logrus.Logger) *LogrusProvider {
	if target == nil {
		target = logrus.StandardLogger()
	}
	return &LogrusProvider{target: target, minimumLevel: LogLevelInfo}
}

func (p *LogrusProvider) CreateLogger(category string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &logrusLogger{target: p.target, category: category, minimumLevel: p.minimumLevel}
}

func (p *LogrusProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

type logrusLogger struct {
	target       *logrus.Logger
	category     string
	minimumLevel LogLevel
	fields       []Field
}

func (l *logrusLogger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *logrusLogger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *logrusLogger) Info(msg string, fields ...Field)  { l.Log(LogLevelInfo, msg, fields...) }
func (l *logrusLogger) Warn(msg string, fields ...Field)  { l.Log(LogLevelWarn, msg, fields...) }
func (l *logrusLogger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }

func (l *logrusLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l *logrusLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.minimumLevel || level >= LogLevelNone {
		return
	}

	all := joinFields(l.fields, fields)
	data := make(logrus.Fields, len(all)+1)
	if l.category != "" {
		data["category"] = l.category
	}
	for _, f := range all {
		data[f.Key] = f.Value
	}

	// Fatal 由本接口自己退出，这里只按 Error 级别写出，避免 logrus 提前 os.Exit
	l.target.WithFields(data).Log(toLogrusLevel(level), msg)
}

func (l *logrusLogger) WithFields(fields ...Field) Logger {
	return &logrusLogger{
		target:       l.target,
		category:     l.category,
		minimumLevel: l.minimumLevel,
		fields:       joinFields(l.fields, fields),
	}
}

func (l *logrusLogger) WithCategory(category string) Logger {
	return &logrusLogger{
		target:       l.target,
		category:     category,
		minimumLevel: l.minimumLevel,
		fields:       l.fields,
	}
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case LogLevelTrace:
		return logrus.TraceLevel
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelInfo:
		return logrus.InfoLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}
