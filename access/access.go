// Package access 读取字段，包括未导出字段和嵌入层级中的字段。
package access

import (
	"fmt"
	"reflect"

	"github.com/gocrud/whitebox/bypass"
	"github.com/gocrud/whitebox/engine"
	"github.com/gocrud/whitebox/logging"
	"github.com/gocrud/whitebox/member"
	"github.com/gocrud/whitebox/target"
)

// Accessor 描述要读取的字段，值类型，每个方法返回新的 Accessor
type Accessor struct {
	criterion member.Criterion
	engine    *engine.Engine
}

// Get 按字段名读取
func Get(name string) Accessor {
	return Accessor{criterion: member.Criterion{Name: name}}
}

// Marked 按标记读取
func Marked(m member.Marker) Accessor {
	return Accessor{criterion: member.Criterion{Marker: m}}
}

// OfType 要求声明类型完全相同
func (a Accessor) OfType(t reflect.Type) Accessor {
	a.criterion.Type = t
	return a
}

// DeclaredBy 要求由指定层级声明，用于读取被遮蔽的同名字段
func (a Accessor) DeclaredBy(t reflect.Type) Accessor {
	a.criterion.Declaring = t
	return a
}

func (a Accessor) Using(e *engine.Engine) Accessor {
	a.engine = e
	return a
}

// From 从实例、包级变量（target.Static）或类型读取。
func (a Accessor) From(from any) (any, error) {
	v, err := a.Value(from)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Value 与 From 相同，但返回 reflect.Value
func (a Accessor) Value(from any) (reflect.Value, error) {
	e := engine.Or(a.engine)
	h := target.From(from)
	if err := h.Err(); err != nil {
		return reflect.Value{}, err
	}

	d, err := member.FindField(h.Type(), a.criterion)
	if err != nil {
		return reflect.Value{}, err
	}
	root, err := h.Root(bypass.ModeRead)
	if err != nil {
		return reflect.Value{}, err
	}
	v, err := e.Policy().Reach(root, d.Index, bypass.ModeRead)
	if err != nil {
		return reflect.Value{}, err
	}

	e.Log("access").Trace("read", logging.Field{Key: "member", Value: d.String()})
	return v, nil
}

// As 读取并断言为 T，字段为 nil 接口时返回 T 的零值
func As[T any](a Accessor, from any) (T, error) {
	var zero T
	v, err := a.From(from)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s 的值是 %T，不是 %s", member.ErrTypeMismatch, a.criterion, v, reflect.TypeFor[T]())
	}
	return t, nil
}

// Field 按名称读取
func Field(from any, name string) (any, error) {
	return Get(name).From(from)
}

// MarkedField 按标记和声明类型读取
func MarkedField(from any, m member.Marker, t reflect.Type) (any, error) {
	return Marked(m).OfType(t).From(from)
}
