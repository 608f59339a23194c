// Package standin 为类型制造测试替身。
package standin

import (
	"errors"
	"fmt"
	"reflect"
)

var ErrUnsupportedType = errors.New("no stand-in for type")

// Factory 给定类型返回一个可赋值给它的实例
type Factory interface {
	New(t reflect.Type) (any, error)
}

// FactoryFunc 函数形式的 Factory
type FactoryFunc func(t reflect.Type) (any, error)

func (f FactoryFunc) New(t reflect.Type) (any, error) {
	return f(t)
}

// Chain 依次尝试，返回第一个成功的结果；全部失败时合并错误
func Chain(factories ...Factory) Factory {
	return FactoryFunc(func(t reflect.Type) (any, error) {
		var errs []error
		for _, f := range factories {
			v, err := f.New(t)
			if err == nil {
				return v, nil
			}
			errs = append(errs, err)
		}
		if len(errs) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
		}
		return nil, errors.Join(errs...)
	})
}

// Zero 对指针返回新分配的对象，对 map、slice、chan 返回空的非 nil 值，
// 对函数返回只产生零值结果的实现，其余类型返回零值。接口类型不支持。
func Zero() Factory {
	return FactoryFunc(func(t reflect.Type) (any, error) {
		if t == nil {
			return nil, fmt.Errorf("%w: nil type", ErrUnsupportedType)
		}
		switch t.Kind() {
		case reflect.Interface:
			return nil, fmt.Errorf("%w: interface %s", ErrUnsupportedType, t)
		case reflect.Pointer:
			return reflect.New(t.Elem()).Interface(), nil
		case reflect.Map:
			return reflect.MakeMap(t).Interface(), nil
		case reflect.Slice:
			return reflect.MakeSlice(t, 0, 0).Interface(), nil
		case reflect.Chan:
			return reflect.MakeChan(t, 0).Interface(), nil
		case reflect.Func:
			return reflect.MakeFunc(t, func([]reflect.Value) []reflect.Value {
				out := make([]reflect.Value, t.NumOut())
				for i := range out {
					out[i] = reflect.Zero(t.Out(i))
				}
				return out
			}).Interface(), nil
		default:
			return reflect.New(t).Elem().Interface(), nil
		}
	})
}

// Assignable 检查工厂结果能否赋给 t
func Assignable(t reflect.Type, v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).AssignableTo(t)
}
