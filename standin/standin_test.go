package standin

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/whitebox/config"
	"github.com/gocrud/whitebox/internal/mocks"
	"github.com/gocrud/whitebox/logging"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type Repo struct {
	DSN string
}

type Service struct {
	Repo *Repo
}

type Store interface {
	Get(key string) string
}

type memStore struct{}

func (memStore) Get(key string) string { return "v:" + key }

func TestZero(t *testing.T) {
	z := Zero()

	v, err := z.New(reflect.TypeFor[*Repo]())
	require.NoError(t, err)
	assert.NotNil(t, v.(*Repo))

	v, err = z.New(reflect.TypeFor[map[string]int]())
	require.NoError(t, err)
	assert.NotNil(t, v.(map[string]int))

	v, err = z.New(reflect.TypeFor[func(int) (string, error)]())
	require.NoError(t, err)
	s, err := v.(func(int) (string, error))(1)
	assert.Equal(t, "", s)
	assert.NoError(t, err)

	v, err = z.New(reflect.TypeFor[int]())
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	_, err = z.New(reflect.TypeFor[Store]())
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestChain(t *testing.T) {
	failing := FactoryFunc(func(t reflect.Type) (any, error) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	})
	v, err := Chain(failing, Zero()).New(reflect.TypeFor[*Repo]())
	require.NoError(t, err)
	assert.IsType(t, &Repo{}, v)

	_, err = Chain(failing, Zero()).New(reflect.TypeFor[Store]())
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Chain().New(reflect.TypeFor[int]())
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestRegistryResolvesDependencies(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Value(&Repo{DSN: "mem"}))
	require.NoError(t, r.Provide(func(repo *Repo) *Service { return &Service{Repo: repo} }))

	v, err := r.New(reflect.TypeFor[*Service]())
	require.NoError(t, err)
	svc := v.(*Service)
	assert.Equal(t, "mem", svc.Repo.DSN)

	// 默认共享
	again, err := r.New(reflect.TypeFor[*Service]())
	require.NoError(t, err)
	assert.Same(t, svc, again)
}

func TestRegistryFreshAndNamed(t *testing.T) {
	r := NewRegistry()
	calls := 0
	require.NoError(t, r.Provide(func() *Repo {
		calls++
		return &Repo{DSN: fmt.Sprint(calls)}
	}, WithFresh()))
	require.NoError(t, r.Value(&Repo{DSN: "replica"}, WithName("replica")))

	a, err := r.New(reflect.TypeFor[*Repo]())
	require.NoError(t, err)
	b, err := r.New(reflect.TypeFor[*Repo]())
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, calls)

	named, err := r.Named(reflect.TypeFor[*Repo](), "replica")
	require.NoError(t, err)
	assert.Equal(t, "replica", named.(*Repo).DSN)

	_, err = r.Named(reflect.TypeFor[*Repo](), "missing")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	assert.Equal(t, []ServiceKey{
		{Type: reflect.TypeFor[*Repo]()},
		{Type: reflect.TypeFor[*Repo](), Name: "replica"},
	}, r.Keys())
}

func TestRegistryInterfaces(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Value(memStore{}))

	v, err := r.New(TypeOf[Store]())
	require.NoError(t, err)
	assert.Equal(t, "v:k", v.(Store).Get("k"))

	typed := NewRegistry()
	require.NoError(t, Provide[Store](typed, func() memStore { return memStore{} }))
	require.NoError(t, Value[*Repo](typed, &Repo{}))
	_, err = typed.New(TypeOf[Store]())
	assert.NoError(t, err)

	assert.Error(t, Provide[Store](typed, func() *Repo { return nil }))
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Value(&Repo{}))
	assert.Error(t, r.Value(&Repo{}), "duplicate registration")
	assert.Error(t, r.Value(nil))
	assert.Error(t, r.Provide("not a func"))
	assert.Error(t, r.Provide(func() (*Repo, int) { return nil, 0 }))

	failing := NewRegistry()
	boom := errors.New("boom")
	require.NoError(t, failing.Provide(func() (*Service, error) { return nil, boom }))
	_, err := failing.New(reflect.TypeFor[*Service]())
	assert.ErrorIs(t, err, boom)
}

func TestRegistryNilDependencies(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, Value[Store](r, nil))

	require.NoError(t, Provide[Store](r, func() Store { return nil }))
	require.NoError(t, r.Provide(func(s Store) *Service {
		return &Service{Repo: &Repo{DSN: fmt.Sprint(s == nil)}}
	}))

	v, err := r.New(reflect.TypeFor[*Service]())
	require.NoError(t, err)
	assert.Equal(t, "true", v.(*Service).Repo.DSN)
}

func TestRegistryPanicIsRemembered(t *testing.T) {
	r := NewRegistry()
	calls := 0
	require.NoError(t, r.Provide(func() *Repo {
		calls++
		panic("boom")
	}))

	_, err := r.New(reflect.TypeFor[*Repo]())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	v, err := r.New(reflect.TypeFor[*Repo]())
	assert.Nil(t, v)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

type ping struct{}
type pong struct{}

func TestRegistryCycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Provide(func(*pong) *ping { return &ping{} }))
	require.NoError(t, r.Provide(func(*ping) *pong { return &pong{} }))

	_, err := r.New(reflect.TypeFor[*ping]())
	require.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "*standin.ping -> *standin.pong -> *standin.ping")
	assert.Contains(t, err.Error(), "*standin.ping 的参数 0: *standin.pong 的参数 0")
}

func TestGomock(t *testing.T) {
	ctrl := gomock.NewController(t)
	f, err := Gomock(ctrl, mocks.NewMockGreeter)
	require.NoError(t, err)

	v, err := f.New(reflect.TypeFor[mocks.Greeter]())
	require.NoError(t, err)
	m, ok := v.(*mocks.MockGreeter)
	require.True(t, ok)
	m.EXPECT().Greet("bob").Return("hi bob")
	assert.Equal(t, "hi bob", v.(mocks.Greeter).Greet("bob"))

	v, err = f.New(reflect.TypeFor[*mocks.MockGreeter]())
	require.NoError(t, err)
	assert.IsType(t, &mocks.MockGreeter{}, v)

	_, err = f.New(reflect.TypeFor[Store]())
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Gomock(ctrl, func() *mocks.MockGreeter { return nil })
	assert.Error(t, err)
	_, err = Gomock(nil)
	assert.Error(t, err)

	_, err = f.New(nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestCatalog(t *testing.T) {
	c := NewCatalog(config.DefaultSettings().StandIns)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	v, err := c.New(reflect.TypeFor[*gorm.DB]())
	require.NoError(t, err)
	db := v.(*gorm.DB)
	require.NoError(t, db.AutoMigrate(&Repo{}))
	require.NoError(t, db.Create(&Repo{DSN: "x"}).Error)

	again, err := c.New(reflect.TypeFor[*gorm.DB]())
	require.NoError(t, err)
	assert.Same(t, db, again)

	for _, typ := range []reflect.Type{
		reflect.TypeFor[*gin.Engine](),
		reflect.TypeFor[*echo.Echo](),
		reflect.TypeFor[*cron.Cron](),
		reflect.TypeFor[redis.Cmdable](),
		reflect.TypeFor[trace.Tracer](),
		reflect.TypeFor[*logrus.Logger](),
		reflect.TypeFor[logging.Logger](),
	} {
		v, err := c.New(typ)
		require.NoError(t, err, typ.String())
		assert.True(t, Assignable(typ, v), typ.String())
	}

	_, err = c.New(reflect.TypeFor[*Repo]())
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Len(t, c.Types(), 13)
}
