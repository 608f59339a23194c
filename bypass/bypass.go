// Package bypass 是唯一绕过可见性的地方：对未导出字段得到可读写、可调用的值。
//
// Go 的绕过只作用于得到的那个 reflect.Value，不会修改任何类型元数据，
// 也不会在进程里留下状态，并发使用无需加锁。
package bypass

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"unsafe"

	"github.com/gocrud/whitebox/logging"
	"github.com/gocrud/whitebox/member"
)

var (
	ErrImmutableMember = errors.New("immutable member rejected")
	ErrUnaddressable   = errors.New("unaddressable target")
)

// Mode 访问方式
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
	ModeCall
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeCall:
		return "call"
	default:
		return "unknown"
	}
}

// Policy 绕过策略
type Policy struct {
	// Hardened 拒绝需要绕过才能完成的写入
	Hardened bool
	Logger   logging.Logger
}

// Open 对来自未导出字段的可寻址值，返回同一地址上不受限制的值
func Open(v reflect.Value) reflect.Value {
	if !v.IsValid() || !v.CanAddr() {
		return v
	}
	if v.CanSet() && v.CanInterface() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

// Reach 从 root 沿字段路径走到目标。
// 读取经过 nil 的嵌入指针时直接得到目标类型的零值；写入和调用会为其分配新对象。
func (p Policy) Reach(root reflect.Value, index []int, mode Mode) (reflect.Value, error) {
	v, zero, err := p.walk(root, index, mode)
	if err != nil || zero {
		return v, err
	}
	return p.grant(v, mode)
}

// Level 走到 index 指向的嵌入层级本身，经由嵌入指针时同样解引用，用于在该层级上调用方法
func (p Policy) Level(root reflect.Value, index []int, mode Mode) (reflect.Value, error) {
	v, zero, err := p.walk(root, index, mode)
	if err != nil || zero {
		return v, err
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			if mode == ModeRead {
				return reflect.Zero(v.Type().Elem()), nil
			}
			if err := p.allocate(v); err != nil {
				return reflect.Value{}, err
			}
		}
		v = v.Elem()
	}
	return p.grant(v, mode)
}

func (p Policy) walk(root reflect.Value, index []int, mode Mode) (v reflect.Value, zero bool, err error) {
	v = root
	for i, x := range index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if mode == ModeRead {
					return reflect.Zero(v.Type().Elem().FieldByIndex(index[i:]).Type), true, nil
				}
				if err := p.allocate(v); err != nil {
					return reflect.Value{}, false, err
				}
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, false, nil
}

// grant 按 mode 检查访问权限，必要时打开
func (p Policy) grant(v reflect.Value, mode Mode) (reflect.Value, error) {
	switch mode {
	case ModeWrite:
		if v.CanSet() {
			return v, nil
		}
		if !v.CanAddr() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnaddressable, v.Type())
		}
		if p.Hardened {
			return reflect.Value{}, fmt.Errorf("%w: 写入 %s 需要绕过可见性", ErrImmutableMember, v.Type())
		}
	default:
		if v.CanInterface() {
			return v, nil
		}
		if !v.CanAddr() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnaddressable, v.Type())
		}
	}

	p.log().Trace("bypass", logging.Field{Key: "mode", Value: mode}, logging.Field{Key: "type", Value: v.Type()})
	return Open(v), nil
}

// allocate 为 nil 的嵌入指针分配对象
func (p Policy) allocate(ptr reflect.Value) error {
	if !ptr.CanSet() {
		if p.Hardened {
			return fmt.Errorf("%w: 分配嵌入的 %s 需要绕过可见性", ErrImmutableMember, ptr.Type())
		}
		if !ptr.CanAddr() {
			return fmt.Errorf("%w: 嵌入的 %s", ErrUnaddressable, ptr.Type())
		}
		ptr = Open(ptr)
	}
	ptr.Set(reflect.New(ptr.Type().Elem()))
	return nil
}

// Assign 把 value 写入 dst，dst 应来自 Reach(..., ModeWrite)
func (p Policy) Assign(dst, value reflect.Value, d member.Descriptor) error {
	v, ok := Convert(dst.Type(), value)
	if !ok {
		return fmt.Errorf("%w: 无法把 %s 写入类型为 %s 的 %s", member.ErrTypeMismatch, typeName(value), dst.Type(), d)
	}
	dst.Set(v)
	return nil
}

// Convert 运行时写入规则：可赋值；装箱或拆箱；基础类型之间不丢失信息的数值转换或同类转换；nil 写入可为 nil 的类型
func Convert(t reflect.Type, value reflect.Value) (reflect.Value, bool) {
	if !value.IsValid() {
		if member.Nilable(t) {
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	if value.Type().AssignableTo(t) {
		return value, true
	}

	if member.IsPrimitive(t) {
		if _, ok := member.Unboxed(value.Type()); ok {
			if value.IsNil() {
				return reflect.Value{}, false
			}
			value = value.Elem()
		}
		return convertPrimitive(t, value)
	}

	if elem, ok := member.Unboxed(t); ok {
		v, ok := convertPrimitive(elem, value)
		if !ok {
			return reflect.Value{}, false
		}
		box := reflect.New(elem)
		box.Elem().Set(v)
		return box, true
	}
	return reflect.Value{}, false
}

func convertPrimitive(t reflect.Type, value reflect.Value) (reflect.Value, bool) {
	vt := value.Type()
	if vt.AssignableTo(t) {
		return value, true
	}
	if !member.IsPrimitive(vt) || !vt.ConvertibleTo(t) {
		return reflect.Value{}, false
	}
	if vt.Kind() == t.Kind() || (numeric(vt) && numeric(t)) {
		c := value.Convert(t)
		if numeric(vt) && !lossless(value, c) {
			return reflect.Value{}, false
		}
		return c, true
	}
	return reflect.Value{}, false
}

// lossless 转换后再转回来必须得到原值，符号也不能改变
func lossless(from, to reflect.Value) bool {
	if negative(from) != negative(to) {
		return false
	}
	back := to.Convert(from.Type())
	if back.Equal(from) {
		return true
	}
	// NaN 与自身不相等
	return isFloat(from) && isFloat(to) && math.IsNaN(from.Float()) && math.IsNaN(to.Float())
}

func negative(v reflect.Value) bool {
	switch {
	case v.CanInt():
		return v.Int() < 0
	case v.CanFloat():
		return v.Float() < 0
	default:
		return false
	}
}

func isFloat(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func numeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func typeName(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}

func (p Policy) log() logging.Logger {
	if p.Logger == nil {
		return logging.Nop()
	}
	return p.Logger
}
