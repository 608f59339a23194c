package member

import (
	"reflect"
	"runtime"
)

// Level 层级中的一个结构体类型，以及从具体类型到达它的字段路径
type Level struct {
	Type  reflect.Type
	Index []int
}

// Levels 深度优先展开嵌入层级，最外层祖先在前、具体类型在最后。
// 指针会被解引用；非结构体类型没有层级。经由指针形成的嵌入环只展开一次。
func Levels(t reflect.Type) []Level {
	t = Deref(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	var levels []Level
	onPath := make(map[reflect.Type]bool)

	var visit func(t reflect.Type, index []int)
	visit = func(t reflect.Type, index []int) {
		if onPath[t] {
			return
		}
		onPath[t] = true
		for i := 0; i < t.NumField(); i++ {
			if et, ok := embeddedStruct(t.Field(i)); ok {
				visit(et, extend(index, i))
			}
		}
		onPath[t] = false
		levels = append(levels, Level{Type: t, Index: index})
	}
	visit(t, nil)
	return levels
}

// Fields 返回所有层级上声明的字段，按层级顺序、层级内按声明顺序。
// 嵌入的结构体本身是层级链接，不算字段。
func Fields(t reflect.Type) []Descriptor {
	var out []Descriptor
	for _, l := range Levels(t) {
		for i := 0; i < l.Type.NumField(); i++ {
			f := l.Type.Field(i)
			if _, ok := embeddedStruct(f); ok {
				continue
			}
			out = append(out, Descriptor{
				Name:      f.Name,
				Kind:      KindField,
				Type:      f.Type,
				Declaring: l.Type,
				Tag:       f.Tag,
				Index:     extend(l.Index, i),
				Exported:  f.IsExported(),
			})
		}
	}
	return out
}

// LevelCallables 返回层级自己声明的方法（提升来的不算，覆盖同名提升方法的算），
// 按方法集顺序，其后是该层级的函数类型字段。
func LevelCallables(l Level) []Descriptor {
	var out []Descriptor

	ptr := reflect.PointerTo(l.Type)
	for i := 0; i < ptr.NumMethod(); i++ {
		m := ptr.Method(i)
		if !declaredAt(l.Type, m) {
			continue
		}
		in := make([]reflect.Type, 0, m.Type.NumIn()-1)
		for j := 1; j < m.Type.NumIn(); j++ {
			in = append(in, m.Type.In(j))
		}
		out = append(out, Descriptor{
			Name:      m.Name,
			Kind:      KindMethod,
			Type:      reflect.FuncOf(in, results(m.Type), m.Type.IsVariadic()),
			Declaring: l.Type,
			Index:     l.Index,
			Exported:  true,
			Params:    in,
			Variadic:  m.Type.IsVariadic(),
		})
	}

	for i := 0; i < l.Type.NumField(); i++ {
		f := l.Type.Field(i)
		if f.Type.Kind() != reflect.Func {
			continue
		}
		if _, ok := embeddedStruct(f); ok {
			continue
		}
		out = append(out, Descriptor{
			Name:      f.Name,
			Kind:      KindFunc,
			Type:      f.Type,
			Declaring: l.Type,
			Tag:       f.Tag,
			Index:     extend(l.Index, i),
			Exported:  f.IsExported(),
			Params:    params(f.Type),
			Variadic:  f.Type.IsVariadic(),
		})
	}
	return out
}

// Methods 各层级的可调用成员，祖先在前
func Methods(t reflect.Type) []Descriptor {
	var out []Descriptor
	for _, l := range Levels(t) {
		out = append(out, LevelCallables(l)...)
	}
	return out
}

// declaredAt 没有嵌入字段提供同名方法时方法一定属于 t；
// 否则只有 t 自己重新声明过，方法集里才会是非编译器生成的实现。
func declaredAt(t reflect.Type, m reflect.Method) bool {
	if !promoted(t, m.Name) {
		return true
	}
	if !autogenerated(m.Func) {
		return true
	}
	if vm, ok := t.MethodByName(m.Name); ok && !autogenerated(vm.Func) {
		return true
	}
	return false
}

func promoted(t reflect.Type, name string) bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() != reflect.Pointer && ft.Kind() != reflect.Interface {
			ft = reflect.PointerTo(ft)
		}
		if _, ok := ft.MethodByName(name); ok {
			return true
		}
	}
	return false
}

func autogenerated(fn reflect.Value) bool {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return true
	}
	file, _ := f.FileLine(f.Entry())
	return file == "<autogenerated>"
}

// embeddedStruct 匿名的结构体或结构体指针字段是层级链接
func embeddedStruct(f reflect.StructField) (reflect.Type, bool) {
	if !f.Anonymous {
		return nil, false
	}
	t := f.Type
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	return t, true
}

func params(fn reflect.Type) []reflect.Type {
	in := make([]reflect.Type, fn.NumIn())
	for i := range in {
		in[i] = fn.In(i)
	}
	return in
}

func results(fn reflect.Type) []reflect.Type {
	out := make([]reflect.Type, fn.NumOut())
	for i := range out {
		out[i] = fn.Out(i)
	}
	return out
}

// extend 总是复制，兄弟层级不共享底层数组
func extend(index []int, i int) []int {
	out := make([]int, len(index)+1)
	copy(out, index)
	out[len(index)] = i
	return out
}
