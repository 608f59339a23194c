package standin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/whitebox/config"
	"github.com/gocrud/whitebox/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type builder func(opts config.StandIns) (any, func() error, error)

// Catalog 为常见基础设施客户端提供可直接使用的替身。
// 客户端都按惰性方式连接，创建时不需要对应服务在线；
// 同一类型在一个 Catalog 内只创建一次，Close 统一释放。
type Catalog struct {
	opts     config.StandIns
	builders map[reflect.Type]builder
	made     map[reflect.Type]any
	closers  []func() error
	mu       sync.Mutex
}

// NewCatalog 创建基础设施替身目录
func NewCatalog(opts config.StandIns) *Catalog {
	c := &Catalog{
		opts:     opts,
		builders: make(map[reflect.Type]builder),
		made:     make(map[reflect.Type]any),
	}

	c.builders[reflect.TypeFor[*gorm.DB]()] = newGorm
	c.builders[reflect.TypeFor[*gin.Engine]()] = newGin
	c.builders[reflect.TypeFor[*echo.Echo]()] = newEcho
	c.builders[reflect.TypeFor[*fiber.App]()] = newFiber
	c.builders[reflect.TypeFor[*cron.Cron]()] = newCron
	c.builders[reflect.TypeFor[*redis.Client]()] = newRedis
	c.builders[reflect.TypeFor[redis.Cmdable]()] = newRedis
	c.builders[reflect.TypeFor[redis.UniversalClient]()] = newRedis
	c.builders[reflect.TypeFor[*mongo.Client]()] = newMongo
	c.builders[reflect.TypeFor[*clientv3.Client]()] = newEtcd
	c.builders[reflect.TypeFor[trace.Tracer]()] = newTracer
	c.builders[reflect.TypeFor[*logrus.Logger]()] = newLogrus
	c.builders[reflect.TypeFor[logging.Logger]()] = newNopLogger
	return c
}

// Types 目录支持的类型
func (c *Catalog) Types() []reflect.Type {
	types := make([]reflect.Type, 0, len(c.builders))
	for t := range c.builders {
		types = append(types, t)
	}
	return types
}

// New 实现 Factory
func (c *Catalog) New(t reflect.Type) (any, error) {
	b, ok := c.builders[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in the catalog", ErrUnsupportedType, t)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.made[t]; ok {
		return v, nil
	}
	v, closer, err := b(c.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create stand-in %s: %w", t, err)
	}
	c.made[t] = v
	if closer != nil {
		c.closers = append(c.closers, closer)
	}
	return v, nil
}

// Close 按创建的逆序释放所有替身
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	c.made = make(map[reflect.Type]any)
	return errors.Join(errs...)
}

func newGorm(opts config.StandIns) (any, func() error, error) {
	db, err := gorm.Open(sqlite.Open(opts.SQLiteDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	// 内存库每个连接各自独立
	sqlDB.SetMaxOpenConns(1)
	return db, sqlDB.Close, nil
}

func newGin(config.StandIns) (any, func() error, error) {
	gin.SetMode(gin.TestMode)
	return gin.New(), nil, nil
}

func newEcho(config.StandIns) (any, func() error, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e, e.Close, nil
}

func newFiber(config.StandIns) (any, func() error, error) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	return app, app.Shutdown, nil
}

func newCron(config.StandIns) (any, func() error, error) {
	c := cron.New()
	return c, func() error {
		c.Stop()
		return nil
	}, nil
}

func newRedis(opts config.StandIns) (any, func() error, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.RedisAddr,
		DialTimeout: opts.Dial(),
	})
	return client, client.Close, nil
}

func newMongo(opts config.StandIns) (any, func() error, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(opts.MongoURI).
		SetConnectTimeout(opts.Dial()).
		SetServerSelectionTimeout(opts.Dial()))
	if err != nil {
		return nil, nil, err
	}
	return client, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Dial())
		defer cancel()
		return client.Disconnect(ctx)
	}, nil
}

func newEtcd(opts config.StandIns) (any, func() error, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.EtcdEndpoints,
		DialTimeout: opts.Dial(),
	})
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

func newTracer(config.StandIns) (any, func() error, error) {
	return noop.NewTracerProvider().Tracer("whitebox"), nil, nil
}

func newLogrus(config.StandIns) (any, func() error, error) {
	l := logrus.New()
	l.Out = io.Discard
	return l, nil, nil
}

func newNopLogger(config.StandIns) (any, func() error, error) {
	return logging.Nop(), nil, nil
}
