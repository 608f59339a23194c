package logging

import (
	"io"
	"os"
	"sync"
	"time"
)

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	// Json 为 true 时使用 JsonFormatter
	Json   bool
	Output io.Writer
}

// ConsoleLoggerProvider 控制台日志提供者
type ConsoleLoggerProvider struct {
	formatter    Formatter
	output       *lockedWriter
	minimumLevel LogLevel
	mu           sync.RWMutex
}

// NewConsoleLoggerProvider 创建控制台日志提供者
func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *ConsoleLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}

	var formatter Formatter
	if options.Json {
		formatter = NewJsonFormatter()
	} else {
		text := NewTextFormatter()
		text.IncludeTimestamp = options.IncludeTimestamp
		text.ColorOutput = options.ColorOutput
		if options.TimestampFormat != "" {
			text.TimestampFormat = options.TimestampFormat
		}
		formatter = text
	}

	return &ConsoleLoggerProvider{
		formatter:    formatter,
		output:       &lockedWriter{w: options.Output},
		minimumLevel: LogLevelInfo,
	}
}

func (p *ConsoleLoggerProvider) CreateLogger(category string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &consoleLogger{
		category:     category,
		formatter:    p.formatter,
		output:       p.output,
		minimumLevel: p.minimumLevel,
	}
}

func (p *ConsoleLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

// lockedWriter 同一个提供者派生出的 Logger 共用一把写锁，保证行不交错
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

type consoleLogger struct {
	category     string
	formatter    Formatter
	output       *lockedWriter
	minimumLevel LogLevel
	fields       []Field
}

func (l *consoleLogger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *consoleLogger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *consoleLogger) Info(msg string, fields ...Field)  { l.Log(LogLevelInfo, msg, fields...) }
func (l *consoleLogger) Warn(msg string, fields ...Field)  { l.Log(LogLevelWarn, msg, fields...) }
func (l *consoleLogger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }

func (l *consoleLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l *consoleLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.minimumLevel || level >= LogLevelNone {
		return
	}

	out, err := l.formatter.Format(&LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   joinFields(l.fields, fields),
	})
	if err != nil {
		return
	}
	_, _ = l.output.Write(out)
}

func (l *consoleLogger) WithFields(fields ...Field) Logger {
	return &consoleLogger{
		category:     l.category,
		formatter:    l.formatter,
		output:       l.output,
		minimumLevel: l.minimumLevel,
		fields:       joinFields(l.fields, fields),
	}
}

func (l *consoleLogger) WithCategory(category string) Logger {
	return &consoleLogger{
		category:     category,
		formatter:    l.formatter,
		output:       l.output,
		minimumLevel: l.minimumLevel,
		fields:       l.fields,
	}
}
