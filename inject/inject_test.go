package inject

import (
	"reflect"
	"testing"

	"github.com/gocrud/whitebox/access"
	"github.com/gocrud/whitebox/bypass"
	"github.com/gocrud/whitebox/engine"
	"github.com/gocrud/whitebox/member"
	"github.com/gocrud/whitebox/standin"
	"github.com/gocrud/whitebox/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Repo interface {
	Find(id int) string
}

type fakeRepo struct {
	name string
}

func (f *fakeRepo) Find(int) string { return f.name }

type base struct {
	dsn string
}

type service struct {
	base
	repo    Repo `inject:""`
	backup  Repo `inject:""`
	timeout int
	ratio   float64
	limit   *int
	hooks   []string `hook:""`
	Name    string
	small   int8
	flag    uint
}

type settings struct {
	level int
}

var defaults = settings{level: 1}

func TestRoundTripByName(t *testing.T) {
	s := &service{}
	r := &fakeRepo{name: "db"}

	written, err := ByName(r, s, "repo")
	require.NoError(t, err)
	assert.Same(t, r, written)

	v, err := access.Field(s, "repo")
	require.NoError(t, err)
	assert.Same(t, r, v)

	_, err = ByName("postgres", s, "dsn")
	require.NoError(t, err)
	assert.Equal(t, "postgres", s.dsn)
}

func TestWriteConversions(t *testing.T) {
	s := &service{}

	_, err := ByName(int64(5), s, "timeout")
	require.NoError(t, err)
	assert.Equal(t, 5, s.timeout)

	_, err = ByName(2, s, "ratio")
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.ratio)

	_, err = ByName(3, s, "limit")
	require.NoError(t, err)
	require.NotNil(t, s.limit)
	assert.Equal(t, 3, *s.limit)

	n := 9
	_, err = ByName(&n, s, "timeout")
	require.NoError(t, err)
	assert.Equal(t, 9, s.timeout)
}

func TestWriteFailures(t *testing.T) {
	s := &service{}

	_, err := ByName("slow", s, "timeout")
	assert.ErrorIs(t, err, member.ErrTypeMismatch)

	_, err = ByName("x", s, "repo")
	assert.ErrorIs(t, err, member.ErrTypeMismatch)

	_, err = ByName(1, s, "missing")
	assert.ErrorIs(t, err, member.ErrMemberNotFound)

	// 会丢失信息的数值写入被拒绝，字段保持原值
	s.timeout, s.small, s.flag = 1, 2, 3
	_, err = ByName(3.7, s, "timeout")
	assert.ErrorIs(t, err, member.ErrTypeMismatch)
	_, err = ByName(300, s, "small")
	assert.ErrorIs(t, err, member.ErrTypeMismatch)
	_, err = ByName(-1, s, "flag")
	assert.ErrorIs(t, err, member.ErrTypeMismatch)
	assert.Equal(t, 1, s.timeout)
	assert.Equal(t, int8(2), s.small)
	assert.Equal(t, uint(3), s.flag)

	_, err = ByName(nil, s, "timeout")
	assert.ErrorIs(t, err, member.ErrTypeMismatch)

	_, err = Value(1).Into(s).With(3.5)
	assert.ErrorIs(t, err, member.ErrUnsupportedCriterion)

	_, err = Value(1).Into(s).With("")
	assert.ErrorIs(t, err, member.ErrMissingCriterion)
}

func TestByMarker(t *testing.T) {
	s := &service{}
	r := &fakeRepo{name: "primary"}

	_, err := ByMarker(r, s, "inject")
	require.NoError(t, err)
	assert.Same(t, r, s.repo, "first marked field in walk order")
	assert.Nil(t, s.backup)

	// nil 需要声明类型才能确定目标
	_, err = Value(nil).As(reflect.TypeFor[Repo]()).Into(s).With(member.Marker("inject"))
	require.NoError(t, err)
	assert.Nil(t, s.repo)

	s.hooks = []string{"a"}
	_, err = ByMarker(nil, s, "hook")
	require.NoError(t, err)
	assert.Nil(t, s.hooks)

	_, err = Value(nil).As(reflect.TypeFor[int]()).Into(s).With(member.Marker("inject"))
	assert.ErrorIs(t, err, member.ErrTypeMismatch)

	_, err = ByMarker(r, s, "absent")
	assert.ErrorIs(t, err, member.ErrMemberNotFound)

	_, err = ByMarker(r, s, "bad key")
	assert.ErrorIs(t, err, member.ErrNotMarker)
}

func TestStaticAndTypeTargets(t *testing.T) {
	_, err := ByName(7, target.Static(&defaults), "level")
	require.NoError(t, err)
	assert.Equal(t, 7, defaults.level)
	defaults.level = 1

	_, err = ByName(7, target.Type[settings](), "level")
	assert.ErrorIs(t, err, target.ErrNoInstance)

	_, err = ByName(7, settings{}, "level")
	assert.ErrorIs(t, err, bypass.ErrUnaddressable)
}

func TestHardenedWrites(t *testing.T) {
	s := &service{}
	hardened := engine.New(engine.WithHardened(true))

	_, err := Value(3).Into(s).Using(hardened).With("timeout")
	assert.ErrorIs(t, err, bypass.ErrImmutableMember)
	assert.Zero(t, s.timeout)

	_, err = Value("svc").Into(s).Using(hardened).With("Name")
	require.NoError(t, err)
	assert.Equal(t, "svc", s.Name)
}

func TestAuto(t *testing.T) {
	s := &service{}
	injected, err := Auto(standin.Zero(), s)
	require.NoError(t, err)

	require.NotNil(t, s.limit)
	assert.NotNil(t, s.hooks)
	assert.Nil(t, s.repo, "interfaces have no zero stand-in")

	assert.Contains(t, injected, "dsn")
	assert.Contains(t, injected, "limit")
	assert.NotContains(t, injected, "repo")
	assert.Same(t, s.limit, injected["limit"])

	_, err = Auto(standin.Zero(), service{})
	assert.ErrorIs(t, err, bypass.ErrUnaddressable)
}
