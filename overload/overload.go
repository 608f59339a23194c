// Package overload 根据运行时实参挑选可调用成员。
//
// 规则刻意保持简单：按候选顺序取第一个逐个参数都兼容的，不做“最具体”的比较。
package overload

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gocrud/whitebox/member"
)

var ErrNoCompatibleCallable = errors.New("no compatible callable")

// Match 解析结果。Spread 为 true 时最后一个实参就是变长参数的切片，需要 CallSlice。
type Match struct {
	Callable member.Descriptor
	Args     []reflect.Value
	Spread   bool
}

// Values 把实参转换为 reflect.Value，nil 变成无效值
func Values(args []any) []reflect.Value {
	out := make([]reflect.Value, len(args))
	for i, a := range args {
		out[i] = reflect.ValueOf(a)
	}
	return out
}

// Compatible 判断实参能否传给形参。
// nil 只能传给可为 nil 的形参；否则要求可赋值，
// 或者基础类型形参 P 接受非 nil 的 *P，*P 形参接受可赋值给 P 的值。
func Compatible(param reflect.Type, arg reflect.Value) bool {
	_, ok := Coerce(param, arg)
	return ok
}

// Coerce 返回可以直接用于调用的实参
func Coerce(param reflect.Type, arg reflect.Value) (reflect.Value, bool) {
	if !arg.IsValid() {
		if member.Nilable(param) {
			return reflect.Zero(param), true
		}
		return reflect.Value{}, false
	}

	at := arg.Type()
	if at.AssignableTo(param) {
		return arg, true
	}
	if member.IsPrimitive(param) {
		if elem, ok := member.Unboxed(at); ok && !arg.IsNil() && elem.AssignableTo(param) {
			return arg.Elem(), true
		}
	}
	if elem, ok := member.Unboxed(param); ok && at.AssignableTo(elem) {
		box := reflect.New(elem)
		box.Elem().Set(arg)
		return box, true
	}
	return reflect.Value{}, false
}

// Resolve 按顺序返回第一个参数列表兼容的候选。
// 变长参数可以逐个传入元素，也可以在变长位置直接传一个切片。
func Resolve(name string, in reflect.Type, candidates []member.Descriptor, args []reflect.Value) (Match, error) {
	for _, c := range candidates {
		if m, ok := bind(c, args); ok {
			return m, nil
		}
	}
	return Match{}, fmt.Errorf("%w: 在 %s 中没有可接受 %s(%s) 的成员", ErrNoCompatibleCallable, in, name, describe(args))
}

// ResolveTyped 要求形参类型列表完全相同，不做推断
func ResolveTyped(name string, in reflect.Type, candidates []member.Descriptor, types []reflect.Type, args []reflect.Value) (Match, error) {
	for _, c := range candidates {
		if !sameTypes(c.Params, types) {
			continue
		}
		if len(args) != len(types) {
			return Match{}, fmt.Errorf("%w: %s 需要 %d 个参数，得到 %d 个", member.ErrTypeMismatch, c, len(types), len(args))
		}
		coerced := make([]reflect.Value, len(args))
		for i, a := range args {
			v, ok := Coerce(types[i], a)
			if !ok {
				return Match{}, fmt.Errorf("%w: %s 的第 %d 个参数是 %s，需要 %s",
					member.ErrTypeMismatch, c, i, typeOf(a), types[i])
			}
			coerced[i] = v
		}
		return Match{Callable: c, Args: coerced, Spread: c.Variadic}, nil
	}
	return Match{}, fmt.Errorf("%w: 在 %s 中没有可接受 %s(%s) 的成员", ErrNoCompatibleCallable, in, name, joinTypes(types))
}

func bind(c member.Descriptor, args []reflect.Value) (Match, bool) {
	params := c.Params
	n := len(params)

	if !c.Variadic {
		if len(args) != n {
			return Match{}, false
		}
		coerced, ok := coerceAll(params, args)
		return Match{Callable: c, Args: coerced}, ok
	}

	fixed := n - 1
	if len(args) < fixed {
		return Match{}, false
	}
	head, ok := coerceAll(params[:fixed], args[:fixed])
	if !ok {
		return Match{}, false
	}

	if len(args) == n {
		if last := args[fixed]; last.IsValid() && last.Type().AssignableTo(params[fixed]) {
			return Match{Callable: c, Args: append(head, last), Spread: true}, true
		}
	}

	elem := params[fixed].Elem()
	for _, a := range args[fixed:] {
		v, ok := Coerce(elem, a)
		if !ok {
			return Match{}, false
		}
		head = append(head, v)
	}
	return Match{Callable: c, Args: head}, true
}

func coerceAll(params []reflect.Type, args []reflect.Value) ([]reflect.Value, bool) {
	out := make([]reflect.Value, 0, len(args))
	for i, p := range params {
		v, ok := Coerce(p, args[i])
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func sameTypes(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func typeOf(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}

func describe(args []reflect.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = typeOf(a)
	}
	return strings.Join(parts, ", ")
}

func joinTypes(types []reflect.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		if t == nil {
			parts[i] = "nil"
			continue
		}
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
