package standin

import (
	"fmt"
	"reflect"

	"go.uber.org/mock/gomock"
)

var controllerType = reflect.TypeFor[*gomock.Controller]()

// Gomock 用 mockgen 生成的构造函数制造替身，例如 NewMockGreeter。
// 构造函数形如 func(*gomock.Controller) *MockX；请求的类型等于 *MockX，
// 或者是 *MockX 实现的接口时命中。
func Gomock(ctrl *gomock.Controller, ctors ...any) (Factory, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("gomock.Controller 不能为 nil")
	}

	fns := make([]reflect.Value, 0, len(ctors))
	for _, ctor := range ctors {
		fn := reflect.ValueOf(ctor)
		if fn.Kind() != reflect.Func || fn.IsNil() {
			return nil, fmt.Errorf("mock 构造函数必须是函数，得到 %T", ctor)
		}
		ft := fn.Type()
		if ft.NumIn() != 1 || ft.In(0) != controllerType || ft.NumOut() != 1 {
			return nil, fmt.Errorf("mock 构造函数 %s 必须形如 func(*gomock.Controller) *MockX", ft)
		}
		fns = append(fns, fn)
	}

	return FactoryFunc(func(t reflect.Type) (any, error) {
		if t == nil {
			return nil, fmt.Errorf("%w: nil type", ErrUnsupportedType)
		}
		for _, fn := range fns {
			out := fn.Type().Out(0)
			if out == t || (t.Kind() == reflect.Interface && out.Implements(t)) {
				return fn.Call([]reflect.Value{reflect.ValueOf(ctrl)})[0].Interface(), nil
			}
		}
		return nil, fmt.Errorf("%w: no mock for %s", ErrUnsupportedType, t)
	}), nil
}
