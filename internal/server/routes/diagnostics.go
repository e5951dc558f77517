package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/forgecdn/forge/internal/metrics"
	"github.com/forgecdn/forge/internal/store"
	"github.com/forgecdn/forge/internal/version"
)

// RegisterDiagnostics 暴露 /-/status 与 /-/metrics 诊断接口，供 SRE 查询实例池状态。
func RegisterDiagnostics(app *fiber.App, pool *store.Pool) {
	if app == nil || pool == nil {
		return
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		return c.JSON(encodeStatus(pool.Root(), pool.Stats()))
	})

	app.Get("/-/metrics", adaptor.HTTPHandler(metrics.Handler()))
}

type statusPayload struct {
	Version   version.Info          `json:"version"`
	Root      string                `json:"root"`
	Size      int                   `json:"instances"`
	Healthy   bool                  `json:"healthy"`
	Instances []store.InstanceStats `json:"instance_stats"`
}

// encodeStatus 汇总实例状态；任一实例最近一次 reload 失败即视为不健康。
func encodeStatus(root string, stats []store.InstanceStats) statusPayload {
	healthy := true
	for _, s := range stats {
		if s.LastError != "" {
			healthy = false
			break
		}
	}
	return statusPayload{
		Version:   version.Current(),
		Root:      root,
		Size:      len(stats),
		Healthy:   healthy,
		Instances: stats,
	}
}
