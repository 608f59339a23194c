// Package member 枚举结构体嵌入层级中的字段和可调用成员，并按名称、标记或类型挑选其中一个。
//
// Go 没有继承，这里把匿名嵌入的结构体（或结构体指针）当作祖先层级：
// 嵌入的层级排在嵌入它的结构体之前，具体类型排在最后。
package member

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

var (
	ErrMemberNotFound       = errors.New("member not found")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrUnsupportedCriterion = errors.New("unsupported criterion combination")
	ErrMissingCriterion     = errors.New("ambiguous or missing marker target")
	ErrNotMarker            = errors.New("not a marker")
)

// Kind 成员种类
type Kind int

const (
	KindField Kind = iota
	KindMethod
	// KindFunc 函数类型的字段，作为可调用成员使用
	KindFunc
	KindConstructor
)

func (k Kind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	case KindFunc:
		return "func field"
	case KindConstructor:
		return "constructor"
	default:
		return "unknown"
	}
}

// Descriptor 描述一个字段或可调用成员。只由本包发现，调用方不应自行构造。
type Descriptor struct {
	Name string
	Kind Kind
	// Type 字段的声明类型；可调用成员为不含接收者的函数类型
	Type reflect.Type
	// Declaring 引入该成员的层级
	Declaring reflect.Type
	Tag       reflect.StructTag
	// Index 从具体类型出发的字段路径；方法为其所在层级的路径
	Index []int
	// Exported 为 false 的字段只能经由绕过组件读写，加固模式下拒绝写入
	Exported bool
	Params   []reflect.Type
	Variadic bool
	// Func 显式构造函数本身，其余成员为零值
	Func reflect.Value
}

// HasMarker 报告成员是否带有标记
func (d Descriptor) HasMarker(m Marker) bool {
	if m == "" {
		return false
	}
	_, ok := d.Tag.Lookup(string(m))
	return ok
}

// Option 返回标记值中 key=value 形式的选项，例如 `mock:"setter=SetRepo"`
func (d Descriptor) Option(m Marker, key string) (string, bool) {
	value, ok := d.Tag.Lookup(string(m))
	if !ok {
		return "", false
	}
	for _, part := range strings.Split(value, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if found && k == key {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func (d Descriptor) String() string {
	if d.Declaring == nil {
		return fmt.Sprintf("%s %s", d.Kind, d.Name)
	}
	return fmt.Sprintf("%s %s.%s", d.Kind, d.Declaring, d.Name)
}

// Marker 结构体标签的键，字段带有该键即视为被标记
type Marker string

// Valid 标签键不能为空，也不能包含空格、引号、冒号或控制字符
func (m Marker) Valid() error {
	if m == "" {
		return fmt.Errorf("%w: 标签键为空", ErrNotMarker)
	}
	for _, r := range string(m) {
		if r == ' ' || r == ':' || r == '"' || r == '`' || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q 不能作为标签键", ErrNotMarker, string(m))
		}
	}
	return nil
}

func (m Marker) String() string {
	return "`" + string(m) + "`"
}
