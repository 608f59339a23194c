package member

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

var errorType = reflect.TypeFor[error]()

// Constructors 校验显式构造函数：返回 T 或 *T，可以带一个结尾的 error
func Constructors(t reflect.Type, fns ...any) ([]Descriptor, error) {
	base := Deref(t)
	if base == nil {
		return nil, fmt.Errorf("%w: 类型为 nil，没有构造函数", ErrTypeMismatch)
	}

	out := make([]Descriptor, 0, len(fns))
	for i, fn := range fns {
		v := reflect.ValueOf(fn)
		if v.Kind() != reflect.Func || v.IsNil() {
			return nil, fmt.Errorf("%w: 第 %d 个构造函数是 %T，不是函数", ErrTypeMismatch, i, fn)
		}
		ft := v.Type()
		if !builds(ft, base) {
			return nil, fmt.Errorf("%w: 构造函数 %s 的类型 %s 无法构造 %s",
				ErrTypeMismatch, funcName(v), ft, base)
		}
		out = append(out, Descriptor{
			Name:      funcName(v),
			Kind:      KindConstructor,
			Type:      ft,
			Declaring: base,
			Exported:  true,
			Params:    params(ft),
			Variadic:  ft.IsVariadic(),
			Func:      v,
		})
	}
	return out, nil
}

func builds(ft, base reflect.Type) bool {
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return false
		}
	default:
		return false
	}
	out := ft.Out(0)
	return out == base || out == reflect.PointerTo(base)
}

// funcName 去掉包路径，只保留函数名
func funcName(v reflect.Value) string {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "func"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
