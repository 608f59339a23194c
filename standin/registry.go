package standin

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ErrCycle 替身的构造函数之间存在循环依赖
var ErrCycle = errors.New("circular stand-in dependency")

// Lifetime 替身的生命周期
type Lifetime int

const (
	// Shared 同一个 Registry 内只创建一次（默认）
	Shared Lifetime = iota
	// Fresh 每次请求都重新创建
	Fresh
)

// ServiceKey 注册表的键
type ServiceKey struct {
	Type reflect.Type
	Name string
}

func (k ServiceKey) String() string {
	if k.Name == "" {
		return k.Type.String()
	}
	return fmt.Sprintf("%s(name=%s)", k.Type, k.Name)
}

type definition struct {
	key      ServiceKey
	lifetime Lifetime
	ctor     reflect.Value
	value    any
	isValue  bool

	once     sync.Once
	instance any
	err      error
}

// Option 配置一次注册
type Option func(*definition)

// WithName 命名注册，只能通过 Named 取得
func WithName(name string) Option {
	return func(d *definition) {
		d.key.Name = name
	}
}

// WithFresh 每次请求都调用构造函数
func WithFresh() Option {
	return func(d *definition) {
		d.lifetime = Fresh
	}
}

// Registry 按类型登记替身。构造函数的参数从同一个 Registry 解析。
// 请求接口类型且没有精确登记时，使用第一个实现该接口的登记。
type Registry struct {
	defs  map[ServiceKey]*definition
	order []*definition
	mu    sync.RWMutex
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{defs: make(map[ServiceKey]*definition)}
}

// TypeOf 返回 T 的类型，T 可以是接口
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Provide 登记构造函数 func(deps...) T 或 func(deps...) (T, error)，键为 T
func (r *Registry) Provide(ctor any, opts ...Option) error {
	fn := reflect.ValueOf(ctor)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return fmt.Errorf("替身构造函数必须是函数，得到 %T", ctor)
	}
	if err := checkResults(fn.Type()); err != nil {
		return err
	}
	return r.add(fn.Type().Out(0), &definition{ctor: fn}, opts)
}

// Value 登记现成的实例，键为实例的动态类型
func (r *Registry) Value(v any, opts ...Option) error {
	if v == nil {
		return fmt.Errorf("替身实例不能为 nil")
	}
	return r.add(reflect.TypeOf(v), &definition{value: v, isValue: true}, opts)
}

// Provide 以 T 为键登记构造函数，构造函数的结果必须可赋值给 T
func Provide[T any](r *Registry, ctor any, opts ...Option) error {
	fn := reflect.ValueOf(ctor)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return fmt.Errorf("替身构造函数必须是函数，得到 %T", ctor)
	}
	if err := checkResults(fn.Type()); err != nil {
		return err
	}
	t := TypeOf[T]()
	if !fn.Type().Out(0).AssignableTo(t) {
		return fmt.Errorf("构造函数结果 %s 不能赋值给 %s", fn.Type().Out(0), t)
	}
	return r.add(t, &definition{ctor: fn}, opts)
}

// Value 以 T 为键登记实例，T 为接口时实例不能是 nil
func Value[T any](r *Registry, v T, opts ...Option) error {
	if any(v) == nil {
		return fmt.Errorf("%s 的替身实例不能为 nil", TypeOf[T]())
	}
	return r.add(TypeOf[T](), &definition{value: v, isValue: true}, opts)
}

func (r *Registry) add(t reflect.Type, def *definition, opts []Option) error {
	def.key.Type = t
	for _, opt := range opts {
		opt(def)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.key]; exists {
		return fmt.Errorf("替身 %s 已登记", def.key)
	}
	r.defs[def.key] = def
	r.order = append(r.order, def)
	return nil
}

// New 实现 Factory，解析未命名的登记
func (r *Registry) New(t reflect.Type) (any, error) {
	return r.resolve(ServiceKey{Type: t}, nil)
}

// Named 解析命名登记
func (r *Registry) Named(t reflect.Type, name string) (any, error) {
	return r.resolve(ServiceKey{Type: t, Name: name}, nil)
}

// Keys 按登记顺序返回所有键
func (r *Registry) Keys() []ServiceKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]ServiceKey, len(r.order))
	for i, def := range r.order {
		keys[i] = def.key
	}
	return keys
}

func (r *Registry) lookup(key ServiceKey) *definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if def, ok := r.defs[key]; ok {
		return def
	}
	if key.Type == nil || key.Type.Kind() != reflect.Interface {
		return nil
	}
	for _, def := range r.order {
		if def.key.Name == key.Name && def.key.Type.Implements(key.Type) {
			return def
		}
	}
	return nil
}

// resolve path 记录当前解析链，用于发现循环依赖
func (r *Registry) resolve(key ServiceKey, path []ServiceKey) (any, error) {
	for i, k := range path {
		if k == key {
			return nil, fmt.Errorf("%w: %s", ErrCycle, chain(append(path[i:], key)))
		}
	}

	def := r.lookup(key)
	if def == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, key)
	}
	if def.isValue {
		return def.value, nil
	}
	if def.lifetime == Fresh {
		return r.build(def, append(path, key))
	}

	def.once.Do(func() {
		def.instance, def.err = r.build(def, append(path, key))
	})
	return def.instance, def.err
}

// build 构造函数 panic 时转为错误，共享登记会记住这个错误而不是空实例
func (r *Registry) build(def *definition, path []ServiceKey) (instance any, err error) {
	defer func() {
		if p := recover(); p != nil {
			instance, err = nil, fmt.Errorf("%s 的替身构造函数 panic: %v", def.key, p)
		}
	}()

	ft := def.ctor.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i := range args {
		dep, err := r.resolve(ServiceKey{Type: ft.In(i)}, path)
		if err != nil {
			return nil, fmt.Errorf("%s 的参数 %d: %w", def.key, i, err)
		}
		if dep == nil {
			args[i] = reflect.Zero(ft.In(i))
			continue
		}
		args[i] = reflect.ValueOf(dep)
	}

	out := def.ctor.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

func checkResults(ft reflect.Type) error {
	switch {
	case ft.NumOut() == 1:
		return nil
	case ft.NumOut() == 2 && ft.Out(1) == reflect.TypeFor[error]():
		return nil
	default:
		return fmt.Errorf("替身构造函数 %s 必须返回 T 或 (T, error)", ft)
	}
}

func chain(keys []ServiceKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, " -> ")
}
