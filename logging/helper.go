package logging

import (
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// NewLogger 创建一个默认的控制台 Logger（便于测试使用）
func NewLogger() Logger {
	return NewLoggingBuilder().AddConsole().Build().CreateLogger("whitebox")
}

// Nop 返回丢弃所有输出的 Logger
func Nop() Logger {
	return NewCompositeLogger(nil, LogLevelNone, "")
}

var dumper = spew.ConfigState{
	Indent:                  " ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	MaxDepth:                3,
}

// Dump 以 spew 展开值的内部结构作为字段值，多行输出压成一行
func Dump(key string, v any) Field {
	return Field{Key: key, Value: strings.Join(strings.Fields(dumper.Sdump(v)), " ")}
}
