package inject

import (
	"github.com/gocrud/whitebox/bypass"
	"github.com/gocrud/whitebox/engine"
	"github.com/gocrud/whitebox/logging"
	"github.com/gocrud/whitebox/member"
	"github.com/gocrud/whitebox/standin"
	"github.com/gocrud/whitebox/target"
)

// Auto 为层级中每个具名字段向 factory 要一个新替身并写入。
// 造不出替身或写不进去的字段直接跳过，返回字段名到替身的映射。
func Auto(factory standin.Factory, into any) (map[string]any, error) {
	return AutoUsing(nil, factory, into)
}

// AutoUsing 同 Auto，使用指定的 Engine
func AutoUsing(e *engine.Engine, factory standin.Factory, into any) (map[string]any, error) {
	e = engine.Or(e)
	h := target.From(into)
	if _, err := h.Root(bypass.ModeWrite); err != nil {
		return nil, err
	}

	log := e.Log("inject")
	injected := make(map[string]any)
	for _, d := range member.Fields(h.Type()) {
		if d.Name == "_" {
			continue
		}
		value, err := factory.New(d.Type)
		if err != nil {
			log.Debug("no stand-in", logging.Field{Key: "member", Value: d.String()}, logging.Field{Key: "error", Value: err})
			continue
		}
		if err := Write(e, h, d, value); err != nil {
			log.Debug("stand-in not written", logging.Field{Key: "member", Value: d.String()}, logging.Field{Key: "error", Value: err})
			continue
		}
		injected[d.Name] = value
	}
	return injected, nil
}
