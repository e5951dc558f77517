package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/forgecdn/forge/internal/store"
)

// AppOptions controls how the Fiber application should behave on a specific port.
type AppOptions struct {
	Logger       *logrus.Logger
	Pool         *store.Pool
	CDNPrefix    string
	BrowsePrefix string
	ListenPort   int
}

const contextKeyRequestID = "_forge_request_id"

// NewApp builds a Fiber application serving files under CDNPrefix and
// directory listings under BrowsePrefix.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Pool == nil {
		return nil, errors.New("forge pool is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}
	if opts.CDNPrefix == "" {
		opts.CDNPrefix = "/cdn"
	}
	if opts.BrowsePrefix == "" {
		opts.BrowsePrefix = "/forge"
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	h := &handler{
		pool:         opts.Pool,
		logger:       opts.Logger,
		cdnPrefix:    opts.CDNPrefix,
		browsePrefix: opts.BrowsePrefix,
	}

	cdn := app.Group(opts.CDNPrefix, compress.New())
	cdn.Get("/", h.serveFile)
	cdn.Get("/*", h.serveFile)

	browse := app.Group(opts.BrowsePrefix)
	browse.Get("/", h.browse)
	browse.Get("/*", h.browse)

	return app, nil
}

// requestIDMiddleware 为每个请求生成 ID 并写入 X-Request-ID 响应头。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
