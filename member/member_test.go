package member

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type root struct {
	id   int
	Name string
}

type middle struct {
	root
	count int
}

type leaf struct {
	*middle
	label string
	note  string `mock:"x"`
}

type node struct {
	*node
	payload int
}

type base struct {
	value string
}

type derived struct {
	base
	value int
}

type animal struct{}

func (animal) Sound() string { return "..." }
func (animal) Legs() int     { return 4 }

type dog struct {
	animal
	Bark func() string
	wag  func(times int) int
}

func (dog) Sound() string { return "woof" }

type cat struct {
	animal
}

func (*cat) Sound() string { return "meow" }

type ticket struct {
	seat string
}

func names(descs []Descriptor) []string {
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = d.Name
	}
	return out
}

func TestLevelsAncestorFirst(t *testing.T) {
	levels := Levels(reflect.TypeOf(&leaf{}))
	require.Len(t, levels, 3)
	assert.Equal(t, reflect.TypeOf(root{}), levels[0].Type)
	assert.Equal(t, []int{0, 0}, levels[0].Index)
	assert.Equal(t, reflect.TypeOf(middle{}), levels[1].Type)
	assert.Equal(t, []int{0}, levels[1].Index)
	assert.Equal(t, reflect.TypeOf(leaf{}), levels[2].Type)
	assert.Empty(t, levels[2].Index)
}

func TestLevelsNonStruct(t *testing.T) {
	assert.Empty(t, Levels(reflect.TypeOf(0)))
	assert.Empty(t, Levels(nil))
	assert.Empty(t, Fields(reflect.TypeOf("")))
}

func TestLevelsCutsPointerCycle(t *testing.T) {
	levels := Levels(reflect.TypeOf(node{}))
	require.Len(t, levels, 1)
	assert.Equal(t, []string{"payload"}, names(Fields(reflect.TypeOf(node{}))))
}

func TestFieldsSumOfLevels(t *testing.T) {
	fields := Fields(reflect.TypeOf(leaf{}))
	assert.Equal(t, []string{"id", "Name", "count", "label", "note"}, names(fields))

	assert.Equal(t, []int{0, 0, 0}, fields[0].Index)
	assert.False(t, fields[0].Exported)
	assert.True(t, fields[1].Exported)
	assert.Equal(t, reflect.TypeOf(middle{}), fields[2].Declaring)
	assert.True(t, fields[4].HasMarker("x"))
	assert.False(t, fields[4].HasMarker("y"))
}

func TestShadowedFieldResolvesAncestorFirst(t *testing.T) {
	typ := reflect.TypeOf(derived{})

	d, err := FindField(typ, Criterion{Name: "value"})
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(base{}), d.Declaring)
	assert.Equal(t, reflect.TypeOf(""), d.Type)

	d, err = FindField(typ, Criterion{Name: "value", Declaring: typ})
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(0), d.Type)

	d, err = FindField(typ, Criterion{Name: "value", Type: reflect.TypeOf(0)})
	require.NoError(t, err)
	assert.Equal(t, typ, d.Declaring)
}

func TestLevelCallables(t *testing.T) {
	levels := Levels(reflect.TypeOf(dog{}))
	require.Len(t, levels, 2)

	assert.Equal(t, []string{"Legs", "Sound"}, names(LevelCallables(levels[0])))

	own := LevelCallables(levels[1])
	assert.Equal(t, []string{"Sound", "Bark", "wag"}, names(own))
	assert.Equal(t, KindMethod, own[0].Kind)
	assert.Equal(t, KindFunc, own[1].Kind)
	assert.Equal(t, []reflect.Type{reflect.TypeOf(0)}, own[2].Params)
	assert.False(t, own[2].Exported)

	assert.Equal(t, []string{"Legs", "Sound", "Sound", "Bark", "wag"}, names(Methods(reflect.TypeOf(dog{}))))
}

func TestPointerReceiverOverride(t *testing.T) {
	levels := Levels(reflect.TypeOf(cat{}))
	require.Len(t, levels, 2)
	assert.Equal(t, []string{"Sound"}, names(LevelCallables(levels[1])))
}

func TestCriterionValidate(t *testing.T) {
	assert.ErrorIs(t, Criterion{}.Validate(), ErrMissingCriterion)
	assert.ErrorIs(t, Criterion{Name: "a", Marker: "m"}.Validate(), ErrUnsupportedCriterion)
	assert.ErrorIs(t, Criterion{Marker: "m", Declaring: reflect.TypeOf(root{})}.Validate(), ErrUnsupportedCriterion)
	assert.ErrorIs(t, Criterion{Marker: "bad key"}.Validate(), ErrNotMarker)
	assert.NoError(t, Criterion{Marker: "mock", Type: reflect.TypeOf(0)}.Validate())

	assert.Equal(t, ByName, Criterion{Name: "a"}.Kind())
	assert.Equal(t, ByNameAndDeclaring, Criterion{Name: "a", Declaring: reflect.TypeOf(root{})}.Kind())
	assert.Equal(t, ByMarker, Criterion{Marker: "m"}.Kind())
	assert.Equal(t, ByMarkerAndType, Criterion{Marker: "m", Type: reflect.TypeOf(0)}.Kind())
}

func TestMarkerValid(t *testing.T) {
	assert.NoError(t, Marker("mock").Valid())
	assert.NoError(t, Marker("inject-me").Valid())
	assert.ErrorIs(t, Marker("").Valid(), ErrNotMarker)
	assert.ErrorIs(t, Marker("a:b").Valid(), ErrNotMarker)
	assert.ErrorIs(t, Marker("a\"b").Valid(), ErrNotMarker)
	assert.ErrorIs(t, Marker("a\tb").Valid(), ErrNotMarker)
}

func TestMatchFailures(t *testing.T) {
	typ := reflect.TypeOf(leaf{})

	_, err := FindField(typ, Criterion{Name: "missing"})
	require.ErrorIs(t, err, ErrMemberNotFound)
	assert.Contains(t, err.Error(), `"missing"`)
	assert.Contains(t, err.Error(), "member.leaf")
	assert.Contains(t, err.Error(), "在 member.leaf 中找不到")

	_, err = FindField(typ, Criterion{Marker: "x", Type: reflect.TypeOf(0)})
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = FindField(typ, Criterion{Name: "label", Accept: func(Descriptor) bool { return false }})
	require.ErrorIs(t, err, ErrTypeMismatch)
	assert.False(t, errors.Is(err, ErrMemberNotFound))

	d, err := FindField(typ, Criterion{Marker: "x", Type: reflect.TypeOf("")})
	require.NoError(t, err)
	assert.Equal(t, "note", d.Name)
}

func TestDescriptorOption(t *testing.T) {
	type holder struct {
		_ struct{} `mock:"required, setter=SetRepo"`
	}
	d := Fields(reflect.TypeOf(holder{}))[0]
	assert.Equal(t, "_", d.Name)

	setter, ok := d.Option("mock", "setter")
	require.True(t, ok)
	assert.Equal(t, "SetRepo", setter)

	_, ok = d.Option("mock", "other")
	assert.False(t, ok)
	_, ok = d.Option("inject", "setter")
	assert.False(t, ok)
}

func TestConstructors(t *testing.T) {
	typ := reflect.TypeOf(ticket{})

	descs, err := Constructors(typ,
		func(seat string) *ticket { return &ticket{seat: seat} },
		func() (ticket, error) { return ticket{}, nil },
	)
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Equal(t, KindConstructor, descs[0].Kind)
	assert.Equal(t, []reflect.Type{reflect.TypeOf("")}, descs[0].Params)
	assert.Empty(t, descs[1].Params)
	assert.Equal(t, typ, descs[1].Declaring)

	_, err = Constructors(typ, func() int { return 0 })
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = Constructors(typ, "not a func")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = Constructors(typ, func() (*ticket, string) { return nil, "" })
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestTypeHelpers(t *testing.T) {
	intType := reflect.TypeOf(0)
	assert.True(t, IsPrimitive(intType))
	assert.True(t, IsPrimitive(reflect.TypeOf("")))
	assert.False(t, IsPrimitive(reflect.TypeOf(&root{})))
	assert.True(t, Nilable(reflect.TypeOf([]int{})))
	assert.False(t, Nilable(intType))

	assert.Equal(t, reflect.PointerTo(intType), Boxed(intType))
	assert.Equal(t, reflect.TypeOf(root{}), Boxed(reflect.TypeOf(root{})))

	p, ok := Unboxed(reflect.PointerTo(intType))
	require.True(t, ok)
	assert.Equal(t, intType, p)
	_, ok = Unboxed(reflect.TypeOf(&root{}))
	assert.False(t, ok)

	assert.Equal(t, "nil", TypeName(nil))
	assert.Equal(t, "int", TypeName(1))
}
