// Package invoke 按运行时实参调用方法、函数字段和构造函数。
package invoke

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gocrud/whitebox/bypass"
	"github.com/gocrud/whitebox/engine"
	"github.com/gocrud/whitebox/logging"
	"github.com/gocrud/whitebox/member"
	"github.com/gocrud/whitebox/overload"
	"github.com/gocrud/whitebox/target"
)

// ErrNilFunc 函数字段为 nil，无法调用
var ErrNilFunc = errors.New("nil func field")

var errorType = reflect.TypeFor[error]()

// Invoker 调用方法和构造函数
type Invoker struct {
	engine *engine.Engine
}

// Using 返回使用指定 Engine 的 Invoker
func Using(e *engine.Engine) Invoker {
	return Invoker{engine: e}
}

// Call 在实例或类型上调用名为 name 的方法或函数字段。
// 从具体类型开始向祖先层级查找，第一个参数兼容的候选被调用。
// 成员自己返回的 error 原样返回。
func Call(on any, name string, args ...any) (any, error) {
	return Invoker{}.Call(on, name, args...)
}

// CallTyped 按给定的形参类型列表精确选择
func CallTyped(on any, name string, types []reflect.Type, args ...any) (any, error) {
	return Invoker{}.CallTyped(on, name, types, args...)
}

func (iv Invoker) Call(on any, name string, args ...any) (any, error) {
	return iv.call(on, name, func(in reflect.Type, candidates []member.Descriptor) (overload.Match, error) {
		return overload.Resolve(name, in, candidates, overload.Values(args))
	})
}

func (iv Invoker) CallTyped(on any, name string, types []reflect.Type, args ...any) (any, error) {
	return iv.call(on, name, func(in reflect.Type, candidates []member.Descriptor) (overload.Match, error) {
		return overload.ResolveTyped(name, in, candidates, types, overload.Values(args))
	})
}

type resolver func(in reflect.Type, candidates []member.Descriptor) (overload.Match, error)

func (iv Invoker) call(on any, name string, resolve resolver) (any, error) {
	e := engine.Or(iv.engine)
	h := target.From(on)
	if err := h.Err(); err != nil {
		return nil, err
	}

	candidates := Callables(h.Type(), name)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s 中没有名为 %q 的可调用成员", member.ErrMemberNotFound, h.Type(), name)
	}
	m, err := resolve(h.Type(), candidates)
	if err != nil {
		return nil, err
	}

	root, err := h.Root(bypass.ModeCall)
	if err != nil {
		return nil, err
	}
	fn, err := callee(e.Policy(), root, m.Callable)
	if err != nil {
		return nil, err
	}

	e.Log("invoke").Debug("call",
		logging.Field{Key: "member", Value: m.Callable.String()},
		logging.Field{Key: "args", Value: len(m.Args)},
	)
	return unpack(apply(fn, m))
}

// Callables 名为 name 的候选，具体类型的层级在前
func Callables(t reflect.Type, name string) []member.Descriptor {
	levels := member.Levels(t)
	var out []member.Descriptor
	for i := len(levels) - 1; i >= 0; i-- {
		for _, d := range member.LevelCallables(levels[i]) {
			if d.Name == name {
				out = append(out, d)
			}
		}
	}
	return out
}

func callee(p bypass.Policy, root reflect.Value, d member.Descriptor) (reflect.Value, error) {
	switch d.Kind {
	case member.KindMethod:
		recv, err := p.Level(root, d.Index, bypass.ModeCall)
		if err != nil {
			return reflect.Value{}, err
		}
		fn := recv.Addr().MethodByName(d.Name)
		if !fn.IsValid() {
			return reflect.Value{}, fmt.Errorf("%w: %s", member.ErrMemberNotFound, d)
		}
		return fn, nil
	case member.KindFunc:
		fn, err := p.Reach(root, d.Index, bypass.ModeCall)
		if err != nil {
			return reflect.Value{}, err
		}
		if fn.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrNilFunc, d)
		}
		return fn, nil
	default:
		return d.Func, nil
	}
}

func apply(fn reflect.Value, m overload.Match) ([]reflect.Value, reflect.Type) {
	if m.Spread {
		return fn.CallSlice(m.Args), fn.Type()
	}
	return fn.Call(m.Args), fn.Type()
}

// unpack 结尾的非 nil error 原样返回；没有结果为 nil，一个结果为其值，多个结果为 []any
func unpack(out []reflect.Value, ft reflect.Type) (any, error) {
	if n := len(out); n > 0 && ft.Out(n-1) == errorType {
		last := out[n-1]
		out = out[:n-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		values := make([]any, len(out))
		for i, v := range out {
			values[i] = v.Interface()
		}
		return values, nil
	}
}
