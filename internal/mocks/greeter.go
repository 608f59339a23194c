// Package mocks 测试用的接口及其 mockgen 风格的替身
package mocks

//go:generate mockgen -source=greeter.go -destination=mock_greeter.go -package=mocks

// Greeter 问候服务
type Greeter interface {
	Greet(name string) string
}
