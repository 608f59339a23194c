// Package automock 为目标中被标记的字段批量制造并注入替身。
//
// 一次 Run 内每个类型只制造一个替身，所有需要该类型的字段共用它。
// 替身的缓存只属于这一次调用，返回的 Mocks 可以按类型或字段名取回。
package automock

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/gocrud/whitebox/bypass"
	"github.com/gocrud/whitebox/engine"
	"github.com/gocrud/whitebox/inject"
	"github.com/gocrud/whitebox/invoke"
	"github.com/gocrud/whitebox/logging"
	"github.com/gocrud/whitebox/member"
	"github.com/gocrud/whitebox/standin"
	"github.com/gocrud/whitebox/target"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedInjectionTarget = errors.New("unsupported injection target type")
	ErrNamedTargetNotFound        = errors.New("named target not found")
	ErrNoStandIn                  = errors.New("no stand-in for requested key")
)

// SetterOption 标记值中的选项，指定经由哪个单参数方法注入，例如 `mock:"setter=SetRepo"`
const SetterOption = "setter"

// Orchestrator 持有替身工厂和 Engine，可以重复使用
type Orchestrator struct {
	factory standin.Factory
	engine  *engine.Engine
}

// Option 配置 Orchestrator
type Option func(*Orchestrator)

// WithEngine 指定 Engine
func WithEngine(e *engine.Engine) Option {
	return func(o *Orchestrator) {
		o.engine = e
	}
}

// New 创建 Orchestrator
func New(factory standin.Factory, opts ...Option) *Orchestrator {
	o := &Orchestrator{factory: factory}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run 用 factory 对 into 做一次自动注入
func Run(factory standin.Factory, into any, markers ...any) (*Mocks, error) {
	return New(factory).Run(into, markers...)
}

// Run 对 into 的整个层级做一次自动注入。
// markers 中的 member.Marker 按标签匹配字段，string 按字段名匹配。
// 替身造不出来或写不进去的字段跳过；但任何一个字段名没有命中时整个调用失败。
func (o *Orchestrator) Run(into any, markers ...any) (*Mocks, error) {
	if o.factory == nil {
		return nil, fmt.Errorf("替身工厂不能为 nil")
	}
	tags, names, err := parseMarkers(markers)
	if err != nil {
		return nil, err
	}

	h := target.From(into)
	if err := h.Err(); err != nil {
		return nil, err
	}
	if _, err := h.Root(bypass.ModeWrite); err != nil {
		return nil, err
	}

	e := engine.Or(o.engine)
	r := &run{
		engine:  e,
		factory: o.factory,
		target:  h,
		log:     e.Log("automock").WithFields(logging.Field{Key: "run", Value: uuid.NewString()}),
		mocks:   newMocks(),
		failed:  make(map[reflect.Type]bool),
	}
	r.log.Debug("auto-injection started",
		logging.Field{Key: "target", Value: h.String()},
		logging.Field{Key: "markers", Value: len(tags)},
		logging.Field{Key: "names", Value: len(names)},
	)

	consumed := make(map[string]bool, len(names))
	for _, d := range member.Fields(h.Type()) {
		marker, marked := firstMarker(d, tags)
		named := d.Name != "_" && slices.Contains(names, d.Name)
		if !marked && !named {
			continue
		}
		if named {
			consumed[d.Name] = true
		}

		if marked {
			if setter, ok := d.Option(marker, SetterOption); ok && setter != "" {
				r.viaSetter(d, setter)
				continue
			}
		}
		r.intoField(d)
	}

	for _, name := range names {
		if !consumed[name] {
			return nil, fmt.Errorf("%w: %s 中没有名为 %q 的字段", ErrNamedTargetNotFound, h.Type(), name)
		}
	}

	r.log.Trace("stand-ins", logging.Dump("byName", r.mocks.summary()))
	r.log.Debug("auto-injection finished",
		logging.Field{Key: "types", Value: len(r.mocks.types)},
		logging.Field{Key: "named", Value: len(r.mocks.names)},
	)
	return r.mocks, nil
}

func parseMarkers(markers []any) ([]member.Marker, []string, error) {
	if len(markers) == 0 {
		return nil, nil, fmt.Errorf("%w: 未给出任何标记", member.ErrMissingCriterion)
	}
	var tags []member.Marker
	var names []string
	for _, m := range markers {
		switch v := m.(type) {
		case member.Marker:
			if err := v.Valid(); err != nil {
				return nil, nil, err
			}
			tags = append(tags, v)
		case string:
			if v == "" {
				return nil, nil, fmt.Errorf("%w: 字段名为空", member.ErrMissingCriterion)
			}
			names = append(names, v)
		default:
			return nil, nil, fmt.Errorf("%w: %T", ErrUnsupportedInjectionTarget, m)
		}
	}
	return tags, names, nil
}

func firstMarker(d member.Descriptor, tags []member.Marker) (member.Marker, bool) {
	for _, m := range tags {
		if d.HasMarker(m) {
			return m, true
		}
	}
	return "", false
}

// run 一次 Run 的工作状态
type run struct {
	engine  *engine.Engine
	factory standin.Factory
	target  target.Handle
	log     logging.Logger
	mocks   *Mocks
	failed  map[reflect.Type]bool
}

// standIn 同一类型只向工厂要一次，失败也只记一次
func (r *run) standIn(t reflect.Type) (any, bool) {
	if v, ok := r.mocks.types[t]; ok {
		return v, true
	}
	if r.failed[t] {
		return nil, false
	}

	v, err := r.factory.New(t)
	if err == nil && !standin.Assignable(t, v) {
		err = fmt.Errorf("%w: 工厂返回了 %s", member.ErrTypeMismatch, member.TypeName(v))
	}
	if err != nil {
		r.failed[t] = true
		r.log.Warn("no stand-in", logging.Field{Key: "type", Value: t}, logging.Field{Key: "error", Value: err})
		return nil, false
	}

	r.mocks.addType(t, v)
	return v, true
}

func (r *run) intoField(d member.Descriptor) {
	v, ok := r.standIn(d.Type)
	if !ok {
		return
	}
	if err := inject.Write(r.engine, r.target, d, v); err != nil {
		r.log.Warn("stand-in not injected", logging.Field{Key: "member", Value: d.String()}, logging.Field{Key: "error", Value: err})
		return
	}
	if d.Name != "_" {
		r.mocks.addName(d.Name, v)
	}
}

// viaSetter 经由单参数方法注入，替身只按参数类型登记
func (r *run) viaSetter(d member.Descriptor, setter string) {
	var param reflect.Type
	for _, c := range invoke.Callables(r.target.Type(), setter) {
		if len(c.Params) == 1 && !c.Variadic {
			param = c.Params[0]
			break
		}
	}
	if param == nil {
		r.log.Warn("setter not found", logging.Field{Key: "member", Value: d.String()}, logging.Field{Key: "setter", Value: setter})
		return
	}

	v, ok := r.standIn(param)
	if !ok {
		return
	}
	if _, err := invoke.Using(r.engine).CallTyped(r.target, setter, []reflect.Type{param}, v); err != nil {
		r.log.Warn("setter failed", logging.Field{Key: "setter", Value: setter}, logging.Field{Key: "error", Value: err})
		return
	}
	r.log.Debug("injected", logging.Field{Key: "setter", Value: setter}, logging.Field{Key: "type", Value: param})
}
