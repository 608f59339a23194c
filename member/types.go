package member

import "reflect"

// IsPrimitive 不可为 nil 的基础类型：bool、整数、浮点、复数和 string
func IsPrimitive(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	}
	return false
}

// Nilable 报告 t 的零值是否为 nil
func Nilable(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

// Boxed 基础类型 P 的装箱形式是 *P，其余类型原样返回
func Boxed(t reflect.Type) reflect.Type {
	if IsPrimitive(t) {
		return reflect.PointerTo(t)
	}
	return t
}

// Unboxed 是 Boxed 的逆操作，t 不是装箱类型时返回 false
func Unboxed(t reflect.Type) (reflect.Type, bool) {
	if t != nil && t.Kind() == reflect.Pointer && IsPrimitive(t.Elem()) {
		return t.Elem(), true
	}
	return nil, false
}

// Deref 去掉所有指针层
func Deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeName 为 nil 值返回 "nil"
func TypeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
