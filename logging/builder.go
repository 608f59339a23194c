package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// LoggingBuilder 组装 Engine 使用的日志工厂，只在构建阶段使用，不做并发保护
type LoggingBuilder struct {
	providers []LoggerProvider
	level     LogLevel
}

// NewLoggingBuilder 默认级别为 Info，没有任何输出
func NewLoggingBuilder() *LoggingBuilder {
	return &LoggingBuilder{level: LogLevelInfo}
}

// SetMinimumLevel 在 Build 时统一应用到所有提供者
func (b *LoggingBuilder) SetMinimumLevel(level LogLevel) *LoggingBuilder {
	b.level = level
	return b
}

func (b *LoggingBuilder) AddProvider(provider LoggerProvider) *LoggingBuilder {
	if provider != nil {
		b.providers = append(b.providers, provider)
	}
	return b
}

// AddConsole 未给选项时输出到 stderr，带时间戳和颜色，不占用测试的 stdout
func (b *LoggingBuilder) AddConsole(options ...ConsoleLoggerOptions) *LoggingBuilder {
	if len(options) > 0 {
		return b.AddProvider(NewConsoleLoggerProvider(options[0]))
	}
	return b.AddProvider(NewConsoleLoggerProvider(ConsoleLoggerOptions{
		IncludeTimestamp: true,
		TimestampFormat:  "15:04:05.000",
		ColorOutput:      true,
		Output:           os.Stderr,
	}))
}

// AddLogrus 把日志转交给已有的 logrus.Logger
func (b *LoggingBuilder) AddLogrus(target *logrus.Logger) *LoggingBuilder {
	return b.AddProvider(NewLogrusProvider(target))
}

func (b *LoggingBuilder) Build() LoggerFactory {
	factory := &loggerFactory{minimumLevel: b.level}
	for _, provider := range b.providers {
		factory.AddProvider(provider)
	}
	return factory
}
