package member

import (
	"fmt"
	"reflect"
	"strings"
)

// CriterionKind 选择方式
type CriterionKind int

const (
	ByName CriterionKind = iota
	ByMarker
	ByMarkerAndType
	ByNameAndDeclaring
)

// Criterion 每次调用只有一种选择方式生效。Name 和 Marker 必须给出其一。
type Criterion struct {
	Name   string
	Marker Marker
	// Type 要求声明类型完全相同
	Type reflect.Type
	// Declaring 要求由该层级声明，用来区分被遮蔽的同名字段
	Declaring reflect.Type
	// Accept 写入时的附加判断。结构条件命中但 Accept 全部拒绝时返回 ErrTypeMismatch
	Accept func(Descriptor) bool
}

// Kind 报告生效的选择方式，调用前应先 Validate
func (c Criterion) Kind() CriterionKind {
	switch {
	case c.Name != "" && c.Declaring != nil:
		return ByNameAndDeclaring
	case c.Name != "":
		return ByName
	case c.Type != nil:
		return ByMarkerAndType
	default:
		return ByMarker
	}
}

// Validate 在解析前检查条件组合
func (c Criterion) Validate() error {
	switch {
	case c.Name == "" && c.Marker == "":
		return fmt.Errorf("%w: 未给出名称或标记", ErrMissingCriterion)
	case c.Name != "" && c.Marker != "":
		return fmt.Errorf("%w: 名称 %q 不能与标记 %s 同时使用", ErrUnsupportedCriterion, c.Name, c.Marker)
	case c.Marker != "" && c.Declaring != nil:
		return fmt.Errorf("%w: 标记 %s 不能限定声明层级 %s", ErrUnsupportedCriterion, c.Marker, c.Declaring)
	case c.Marker != "":
		return c.Marker.Valid()
	}
	return nil
}

func (c Criterion) String() string {
	var b strings.Builder
	if c.Name != "" {
		fmt.Fprintf(&b, "name %q", c.Name)
	} else {
		fmt.Fprintf(&b, "marker %s", c.Marker)
	}
	if c.Type != nil {
		fmt.Fprintf(&b, " of type %s", c.Type)
	}
	if c.Declaring != nil {
		fmt.Fprintf(&b, " declared by %s", c.Declaring)
	}
	return b.String()
}

// Matches 只做结构判断，不调用 Accept
func (c Criterion) Matches(d Descriptor) bool {
	if c.Name != "" && d.Name != c.Name {
		return false
	}
	if c.Marker != "" && !d.HasMarker(c.Marker) {
		return false
	}
	if c.Type != nil && d.Type != c.Type {
		return false
	}
	if c.Declaring != nil && d.Declaring != Deref(c.Declaring) {
		return false
	}
	return true
}

// Match 按遍历顺序返回第一个命中的成员。祖先层级在前，子层级重新声明的同名字段按名称查找时不会被选中。
func Match(in reflect.Type, descs []Descriptor, c Criterion) (Descriptor, error) {
	if err := c.Validate(); err != nil {
		return Descriptor{}, err
	}

	rejected := false
	for _, d := range descs {
		if !c.Matches(d) {
			continue
		}
		if c.Accept == nil || c.Accept(d) {
			return d, nil
		}
		rejected = true
	}

	if rejected {
		return Descriptor{}, fmt.Errorf("%w: %s 中符合 %s 的成员都不接受该值", ErrTypeMismatch, in, c)
	}
	return Descriptor{}, fmt.Errorf("%w: 在 %s 中找不到 %s", ErrMemberNotFound, in, c)
}

// FindField 在 t 的全部字段中查找
func FindField(t reflect.Type, c Criterion) (Descriptor, error) {
	return Match(t, Fields(t), c)
}
