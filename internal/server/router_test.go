package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/forgecdn/forge/internal/store"
)

const testRoot = "/srv/forge"

func newTestApp(t *testing.T, files map[string]string) *fiber.App {
	t.Helper()

	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll(testRoot, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	for rel, content := range files {
		full := filepath.Join(testRoot, rel)
		if err := fsys.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := afero.WriteFile(fsys, full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	pool, err := store.NewPool(2, store.Options{
		Root:         testRoot,
		Fs:           fsys,
		CacheEntries: 4,
		Logger:       logger,
	})
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	app, err := NewApp(AppOptions{
		Logger:     logger,
		Pool:       pool,
		ListenPort: 3000,
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	return app
}

func doRequest(t *testing.T, app *fiber.App, target string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	return resp
}

var sampleFiles = map[string]string{
	"css/site.css":           "body{}",
	"docs/read me.txt":       "hello",
	"docs/hidden/forge.toml": "parented = true\nhidden = true",
	"docs/hidden/secret.md":  "s",
	"index.html":             "<p>hi</p>",
}

func TestServeFileReturnsBodyAndContentType(t *testing.T) {
	app := newTestApp(t, sampleFiles)

	resp := doRequest(t, app, "/cdn/css/site.css")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "body{}" {
		t.Fatalf("unexpected body %q", body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/css" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	if resp.Header.Get("X-Forge-Cache-Hit") != "false" {
		t.Fatalf("first fetch should be a cache miss")
	}
}

func TestServeFileDecodesSegments(t *testing.T) {
	app := newTestApp(t, sampleFiles)

	for _, target := range []string{"/cdn/docs/read%20me.txt", "/cdn//docs///read%20me.txt"} {
		resp := doRequest(t, app, target)
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, resp.StatusCode)
		}
	}
}

func TestServeFileHiddenEntryStillServed(t *testing.T) {
	app := newTestApp(t, sampleFiles)
	resp := doRequest(t, app, "/cdn/docs/secret.md")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("hidden files stay fetchable, got %d", resp.StatusCode)
	}
}

func TestServeFileRedirectsDirectories(t *testing.T) {
	app := newTestApp(t, sampleFiles)

	testCases := []struct {
		target   string
		location string
	}{
		{"/cdn/css", "/forge/css/"},
		{"/cdn/", "/forge/"},
	}
	for _, tc := range testCases {
		resp := doRequest(t, app, tc.target)
		if resp.StatusCode != fiber.StatusTemporaryRedirect {
			t.Fatalf("%s: expected 307, got %d", tc.target, resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != tc.location {
			t.Fatalf("%s: expected Location %s, got %s", tc.target, tc.location, loc)
		}
	}
}

func TestServeFileNotFound(t *testing.T) {
	app := newTestApp(t, sampleFiles)

	resp := doRequest(t, app, "/cdn/nope.js")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["error"] != "not_found" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestBrowseListsVisibleNames(t *testing.T) {
	app := newTestApp(t, sampleFiles)

	resp := doRequest(t, app, "/forge/docs")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload browseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Path != "/docs" || len(payload.Dirs) != 0 || len(payload.Files) != 1 || payload.Files[0] != "read me.txt" {
		t.Fatalf("unexpected listing %+v", payload)
	}

	resp = doRequest(t, app, "/forge/")
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode root: %v", err)
	}
	if payload.Path != "/" || len(payload.Dirs) != 2 || payload.Dirs[0] != "css" || payload.Files[0] != "index.html" {
		t.Fatalf("unexpected root listing %+v", payload)
	}
}

func TestBrowseRedirectsFiles(t *testing.T) {
	app := newTestApp(t, sampleFiles)

	resp := doRequest(t, app, "/forge/docs/read%20me.txt")
	if resp.StatusCode != fiber.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/cdn/docs/read%20me.txt" {
		t.Fatalf("unexpected Location %s", loc)
	}
}

func TestBrowseNotFound(t *testing.T) {
	app := newTestApp(t, sampleFiles)
	resp := doRequest(t, app, "/forge/missing")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestNewAppValidatesOptions(t *testing.T) {
	logger := logrus.New()
	if _, err := NewApp(AppOptions{Logger: logger, ListenPort: 3000}); err == nil {
		t.Fatalf("missing pool should be rejected")
	}
	if _, err := NewApp(AppOptions{ListenPort: 3000}); err == nil {
		t.Fatalf("missing logger should be rejected")
	}
}

func TestSplitSegments(t *testing.T) {
	testCases := []struct {
		raw     string
		want    []string
		wantErr bool
	}{
		{"/cdn", nil, false},
		{"/cdn/a/b.txt", []string{"a", "b.txt"}, false},
		{"/cdn//a//", []string{"a"}, false},
		{"/cdn/a%2Fb", []string{"a/b"}, false},
		{"/cdn/%zz", nil, true},
	}
	for _, tc := range testCases {
		got, err := splitSegments(tc.raw, "/cdn")
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.raw, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("%s: got %v want %v", tc.raw, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: got %v want %v", tc.raw, got, tc.want)
			}
		}
	}
}
