package invoke

import (
	"fmt"
	"reflect"

	"github.com/gocrud/whitebox/bypass"
	"github.com/gocrud/whitebox/engine"
	"github.com/gocrud/whitebox/logging"
	"github.com/gocrud/whitebox/member"
	"github.com/gocrud/whitebox/overload"
)

// Constructors 带显式构造函数的构造器。
// 候选顺序：显式构造函数，然后是 T{}，最后是按字段顺序的 T{f1, ..., fn}。
type Constructors struct {
	Funcs  []any
	engine *engine.Engine
}

// With 使用显式构造函数
func With(fns ...any) Constructors {
	return Constructors{Funcs: fns}
}

func (c Constructors) Using(e *engine.Engine) Constructors {
	c.engine = e
	return c
}

// Construct 只用字面量构造候选
func Construct(t reflect.Type, args ...any) (any, error) {
	return Constructors{}.Construct(t, args...)
}

// ConstructTyped 只用字面量构造候选，按形参类型精确选择
func ConstructTyped(t reflect.Type, types []reflect.Type, args ...any) (any, error) {
	return Constructors{}.ConstructTyped(t, types, args...)
}

// Construct 字面量构造返回 *T，显式构造函数的结果原样返回
func (c Constructors) Construct(t reflect.Type, args ...any) (any, error) {
	return c.construct(t, func(in reflect.Type, candidates []member.Descriptor) (overload.Match, error) {
		return overload.Resolve("new "+in.String(), in, candidates, overload.Values(args))
	})
}

func (c Constructors) ConstructTyped(t reflect.Type, types []reflect.Type, args ...any) (any, error) {
	return c.construct(t, func(in reflect.Type, candidates []member.Descriptor) (overload.Match, error) {
		return overload.ResolveTyped("new "+in.String(), in, candidates, types, overload.Values(args))
	})
}

func (c Constructors) construct(t reflect.Type, resolve resolver) (any, error) {
	e := engine.Or(c.engine)
	if t == nil {
		return nil, fmt.Errorf("%w: 无法构造 nil 类型", member.ErrTypeMismatch)
	}
	base := member.Deref(t)

	candidates, err := member.Constructors(base, c.Funcs...)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, literals(base, e.Policy())...)

	m, err := resolve(base, candidates)
	if err != nil {
		return nil, err
	}

	e.Log("invoke").Debug("construct",
		logging.Field{Key: "type", Value: base},
		logging.Field{Key: "constructor", Value: m.Callable.Name},
	)
	return unpack(apply(m.Callable.Func, m))
}

// literals 合成 T{} 和 T{f1, ..., fn} 两个构造候选，都返回 (*T, error)
func literals(t reflect.Type, p bypass.Policy) []member.Descriptor {
	ptr := reflect.PointerTo(t)
	empty := reflect.FuncOf(nil, []reflect.Type{ptr, errorType}, false)
	out := []member.Descriptor{literal(t, t.String()+"{}", empty, func([]reflect.Value) []reflect.Value {
		return []reflect.Value{reflect.New(t), reflect.Zero(errorType)}
	})}

	if t.Kind() != reflect.Struct || t.NumField() == 0 {
		return out
	}

	in := make([]reflect.Type, t.NumField())
	for i := range in {
		in[i] = t.Field(i).Type
	}
	positional := reflect.FuncOf(in, []reflect.Type{ptr, errorType}, false)
	return append(out, literal(t, t.String()+"{...}", positional, func(args []reflect.Value) []reflect.Value {
		v := reflect.New(t)
		for i, a := range args {
			f := v.Elem().Field(i)
			if !f.CanSet() {
				if p.Hardened {
					err := fmt.Errorf("%w: %s 的字段 %s 需要绕过可见性", bypass.ErrImmutableMember, t, t.Field(i).Name)
					return []reflect.Value{reflect.Zero(ptr), reflect.ValueOf(&err).Elem()}
				}
				f = bypass.Open(f)
			}
			f.Set(a)
		}
		return []reflect.Value{v, reflect.Zero(errorType)}
	}))
}

func literal(t reflect.Type, name string, ft reflect.Type, body func([]reflect.Value) []reflect.Value) member.Descriptor {
	return member.Descriptor{
		Name:      name,
		Kind:      member.KindConstructor,
		Type:      ft,
		Declaring: t,
		Exported:  true,
		Params:    params(ft),
		Func:      reflect.MakeFunc(ft, body),
	}
}

func params(ft reflect.Type) []reflect.Type {
	in := make([]reflect.Type, ft.NumIn())
	for i := range in {
		in[i] = ft.In(i)
	}
	return in
}

// New 构造 *T，显式构造函数返回 T 时取其地址
func New[T any](args ...any) (*T, error) {
	return NewWith[T](nil, args...)
}

// NewWith 先尝试 fns 中的显式构造函数
func NewWith[T any](fns []any, args ...any) (*T, error) {
	v, err := With(fns...).Construct(reflect.TypeFor[T](), args...)
	if err != nil {
		return nil, err
	}
	switch r := v.(type) {
	case *T:
		return r, nil
	case T:
		return &r, nil
	default:
		return nil, fmt.Errorf("%w: 构造函数返回了 %T", member.ErrTypeMismatch, v)
	}
}
