// Package inject 向字段写入值，通常是测试替身。
package inject

import (
	"fmt"
	"reflect"

	"github.com/gocrud/whitebox/bypass"
	"github.com/gocrud/whitebox/engine"
	"github.com/gocrud/whitebox/logging"
	"github.com/gocrud/whitebox/member"
	"github.com/gocrud/whitebox/target"
)

// Injection 一次写入请求：值、目标、选择条件，只在调用链中存在
type Injection struct {
	value    any
	declared reflect.Type
	into     any
	engine   *engine.Engine
}

// Value 开始一次写入
func Value(v any) Injection {
	return Injection{value: v}
}

// As 声明值的类型。按标记写入 nil 时用它确定目标字段
func (i Injection) As(t reflect.Type) Injection {
	i.declared = t
	return i
}

// Into 设置目标：实例指针、target.Static 或 target.Handle
func (i Injection) Into(into any) Injection {
	i.into = into
	return i
}

func (i Injection) Using(e *engine.Engine) Injection {
	i.engine = e
	return i
}

// With 按字段名（string）或标记（member.Marker）写入，返回写入的值
func (i Injection) With(criterion any) (any, error) {
	switch c := criterion.(type) {
	case string:
		return i.write(i.byName(c))
	case member.Marker:
		return i.write(i.byMarker(c))
	case member.Criterion:
		return i.write(c)
	default:
		return nil, fmt.Errorf("%w: 不支持 %T 类型的条件", member.ErrUnsupportedCriterion, criterion)
	}
}

// byName 值为 nil、可赋值或字段为基础类型及其装箱形式时接受，基础类型的兼容性在写入时才检查
func (i Injection) byName(name string) member.Criterion {
	vt := reflect.TypeOf(i.value)
	return member.Criterion{
		Name: name,
		Type: i.declared,
		Accept: func(d member.Descriptor) bool {
			if vt == nil || vt.AssignableTo(d.Type) || member.IsPrimitive(d.Type) {
				return true
			}
			_, boxed := member.Unboxed(d.Type)
			return boxed
		},
	}
}

// byMarker nil 值要求字段类型等于声明类型（未声明时要求字段可为 nil），非 nil 值要求可赋值
func (i Injection) byMarker(m member.Marker) member.Criterion {
	vt := reflect.TypeOf(i.value)
	declared := i.declared
	return member.Criterion{
		Marker: m,
		Accept: func(d member.Descriptor) bool {
			if vt == nil {
				if declared != nil {
					return d.Type == declared
				}
				return member.Nilable(d.Type)
			}
			return vt.AssignableTo(d.Type)
		},
	}
}

func (i Injection) write(c member.Criterion) (any, error) {
	e := engine.Or(i.engine)
	h := target.From(i.into)
	if err := h.Err(); err != nil {
		return nil, err
	}

	d, err := member.FindField(h.Type(), c)
	if err != nil {
		return nil, err
	}
	if err := Write(e, h, d, i.value); err != nil {
		return nil, err
	}
	return i.value, nil
}

// Write 把 value 写入已解析的字段
func Write(e *engine.Engine, h target.Handle, d member.Descriptor, value any) error {
	e = engine.Or(e)
	root, err := h.Root(bypass.ModeWrite)
	if err != nil {
		return err
	}
	policy := e.Policy()
	dst, err := policy.Reach(root, d.Index, bypass.ModeWrite)
	if err != nil {
		return err
	}
	if err := policy.Assign(dst, reflect.ValueOf(value), d); err != nil {
		return err
	}

	e.Log("inject").Debug("injected",
		logging.Field{Key: "member", Value: d.String()},
		logging.Field{Key: "value", Value: member.TypeName(value)},
	)
	return nil
}

// ByName 按字段名写入
func ByName(value, into any, name string) (any, error) {
	return Value(value).Into(into).With(name)
}

// ByMarker 按标记写入
func ByMarker(value, into any, m member.Marker) (any, error) {
	return Value(value).Into(into).With(m)
}
