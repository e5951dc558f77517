package server

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/forgecdn/forge/internal/forge"
	"github.com/forgecdn/forge/internal/logging"
	"github.com/forgecdn/forge/internal/store"
)

type handler struct {
	pool         *store.Pool
	logger       *logrus.Logger
	cdnPrefix    string
	browsePrefix string
}

// browseResponse 是目录浏览接口的 JSON 结构。
type browseResponse struct {
	Path  string   `json:"path"`
	Dirs  []string `json:"dirs"`
	Files []string `json:"files"`
}

// serveFile 交给下一个实例读取文件；命中目录时重定向到浏览页。
func (h *handler) serveFile(c fiber.Ctx) error {
	started := time.Now()
	segments, err := splitSegments(c.Path(), h.cdnPrefix)
	if err != nil {
		return h.fail(c, "fetch", fiber.StatusBadRequest, "bad_path", started, err)
	}

	inst := h.pool.Next()
	res, err := inst.Fetch(requestContext(c), segments)
	switch {
	case errors.Is(err, forge.ErrNotFound):
		return h.fail(c, "fetch", fiber.StatusNotFound, "not_found", started, nil)
	case err != nil:
		return h.fail(c, "fetch", fiber.StatusInternalServerError, "fetch_failed", started, err)
	}

	if res.Kind == store.ResultDirectory {
		target := joinURL(h.browsePrefix, segments)
		if len(segments) > 0 {
			target += "/"
		}
		h.logRequest(c, "fetch", fiber.StatusTemporaryRedirect, false, started).
			WithField("location", target).Debug("directory redirected to browse")
		return c.Redirect().Status(fiber.StatusTemporaryRedirect).To(target)
	}

	c.Set(fiber.HeaderContentType, res.ContentType)
	c.Set("X-Forge-Cache-Hit", strconv.FormatBool(res.CacheHit))
	h.logRequest(c, "fetch", fiber.StatusOK, res.CacheHit, started).
		WithField("instance", inst.ID()).Debug("file served")
	return c.Status(fiber.StatusOK).Send(res.Body)
}

// browse 输出目录下可见的子目录与文件；指向文件时重定向到 CDN 地址。
func (h *handler) browse(c fiber.Ctx) error {
	started := time.Now()
	segments, err := splitSegments(c.Path(), h.browsePrefix)
	if err != nil {
		return h.fail(c, "list", fiber.StatusBadRequest, "bad_path", started, err)
	}

	listing, err := h.pool.Next().List(requestContext(c), segments)
	switch {
	case errors.Is(err, forge.ErrIsFile):
		target := joinURL(h.cdnPrefix, segments)
		h.logRequest(c, "list", fiber.StatusTemporaryRedirect, false, started).
			WithField("location", target).Debug("file redirected to cdn")
		return c.Redirect().Status(fiber.StatusTemporaryRedirect).To(target)
	case errors.Is(err, forge.ErrNotFound):
		return h.fail(c, "list", fiber.StatusNotFound, "not_found", started, nil)
	case err != nil:
		return h.fail(c, "list", fiber.StatusInternalServerError, "list_failed", started, err)
	}

	h.logRequest(c, "list", fiber.StatusOK, false, started).Debug("directory listed")
	return c.JSON(browseResponse{
		Path:  "/" + strings.Join(segments, "/"),
		Dirs:  listing.Dirs,
		Files: listing.Files,
	})
}

func (h *handler) fail(c fiber.Ctx, action string, status int, code string, started time.Time, err error) error {
	entry := h.logRequest(c, action, status, false, started)
	if err != nil {
		entry = entry.WithError(err)
	}
	if status >= fiber.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	return c.Status(status).JSON(fiber.Map{"error": code})
}

func (h *handler) logRequest(c fiber.Ctx, action string, status int, cacheHit bool, started time.Time) *logrus.Entry {
	return h.logger.
		WithFields(logging.RequestFields(action, c.Method(), c.Path(), status, cacheHit, time.Since(started))).
		WithField("request_id", RequestID(c))
}

func requestContext(c fiber.Ctx) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// splitSegments 去掉挂载前缀后按 / 切分，丢弃空片段并逐段做百分号解码。
func splitSegments(rawPath, prefix string) ([]string, error) {
	rest := strings.TrimPrefix(rawPath, prefix)
	parts := strings.Split(rest, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		decoded, err := url.PathUnescape(part)
		if err != nil {
			return nil, err
		}
		segments = append(segments, decoded)
	}
	return segments, nil
}

func joinURL(prefix string, segments []string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return prefix + "/" + strings.Join(escaped, "/")
}
