package automock

import (
	"fmt"
	"reflect"
)

// Mocks 一次 Run 制造的替身，按类型和字段名索引
type Mocks struct {
	types map[reflect.Type]any
	names map[string]any
	order []reflect.Type
	named []string
}

func newMocks() *Mocks {
	return &Mocks{
		types: make(map[reflect.Type]any),
		names: make(map[string]any),
	}
}

// addType 按请求的类型登记，动态类型不同且尚未登记时一并登记
func (m *Mocks) addType(t reflect.Type, v any) {
	m.put(t, v)
	if dynamic := reflect.TypeOf(v); dynamic != t {
		if _, ok := m.types[dynamic]; !ok {
			m.put(dynamic, v)
		}
	}
}

func (m *Mocks) put(t reflect.Type, v any) {
	if _, ok := m.types[t]; !ok {
		m.order = append(m.order, t)
	}
	m.types[t] = v
}

func (m *Mocks) addName(name string, v any) {
	if _, ok := m.names[name]; !ok {
		m.named = append(m.named, name)
	}
	m.names[name] = v
}

// Get 按类型取替身
func (m *Mocks) Get(t reflect.Type) (any, error) {
	if v, ok := m.types[t]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: 类型 %s", ErrNoStandIn, t)
}

// Named 按字段名取替身
func (m *Mocks) Named(name string) (any, error) {
	if v, ok := m.names[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: 字段 %q", ErrNoStandIn, name)
}

// Types 已登记的类型，按登记顺序
func (m *Mocks) Types() []reflect.Type {
	return append([]reflect.Type(nil), m.order...)
}

// Names 已登记的字段名，按注入顺序
func (m *Mocks) Names() []string {
	return append([]string(nil), m.named...)
}

func (m *Mocks) summary() map[string]string {
	out := make(map[string]string, len(m.names))
	for name, v := range m.names {
		out[name] = reflect.TypeOf(v).String()
	}
	return out
}

// Get 按 T 取替身
func Get[T any](m *Mocks) (T, error) {
	var zero T
	v, err := m.Get(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: 替身是 %T", ErrNoStandIn, v)
	}
	return typed, nil
}

// Named 按字段名取替身并断言为 T
func Named[T any](m *Mocks, name string) (T, error) {
	var zero T
	v, err := m.Named(name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: 字段 %q 的替身是 %T", ErrNoStandIn, name, v)
	}
	return typed, nil
}
