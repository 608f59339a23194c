// Package engine 保存反射访问共用的设置：日志和加固模式。
package engine

import (
	"github.com/gocrud/whitebox/bypass"
	"github.com/gocrud/whitebox/config"
	"github.com/gocrud/whitebox/logging"
)

// Engine 由各个门面共享，创建后不再修改
type Engine struct {
	Logger logging.Logger
	// Hardened 为 true 时，需要绕过可见性的写入一律拒绝
	Hardened bool
}

// Option 配置 Engine
type Option func(*Engine)

// WithLogger 设置日志
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		e.Logger = logger
	}
}

// WithHardened 开启或关闭加固模式
func WithHardened(hardened bool) Option {
	return func(e *Engine) {
		e.Hardened = hardened
	}
}

// WithSettings 按设置开启加固模式，并创建对应级别的控制台日志
func WithSettings(s config.Settings) Option {
	return func(e *Engine) {
		e.Hardened = s.Hardened
		level := logging.ParseLevel(s.LogLevel, logging.LogLevelInfo)
		e.Logger = logging.NewLoggingBuilder().
			SetMinimumLevel(level).
			AddConsole().
			Build().
			CreateLogger("whitebox")
	}
}

// New 创建 Engine，默认不输出日志
func New(opts ...Option) *Engine {
	e := &Engine{Logger: logging.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.Logger == nil {
		e.Logger = logging.Nop()
	}
	return e
}

var defaultEngine = New()

// Default 返回包级函数使用的 Engine
func Default() *Engine {
	return defaultEngine
}

// Or 在 e 为 nil 时返回 Default()
func Or(e *Engine) *Engine {
	if e == nil {
		return defaultEngine
	}
	return e
}

// FromSettings 从配置的 section 读取设置并创建 Engine
func FromSettings(cfg config.Configuration, section string, opts ...Option) (*Engine, error) {
	s, err := config.LoadSettings(cfg, section)
	if err != nil {
		return nil, err
	}
	return New(append([]Option{WithSettings(s)}, opts...)...), nil
}

// Log 返回带类别的日志
func (e *Engine) Log(category string) logging.Logger {
	if e == nil || e.Logger == nil {
		return logging.Nop()
	}
	return e.Logger.WithCategory(category)
}

// Policy 返回绕过组件使用的策略
func (e *Engine) Policy() bypass.Policy {
	return bypass.Policy{Hardened: e != nil && e.Hardened, Logger: e.Log("bypass")}
}
