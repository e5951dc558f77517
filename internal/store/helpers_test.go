package store

import (
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const testRoot = "/srv/forge"

// countingFs records how many times each path is opened so tests can tell a
// cache hit from a disk read.
type countingFs struct {
	afero.Fs
	mu    sync.Mutex
	opens map[string]int
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.mu.Lock()
	c.opens[name]++
	c.mu.Unlock()
	return c.Fs.Open(name)
}

func (c *countingFs) reads(rel string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens[filepath.Join(testRoot, rel)]
}

func newCountingFs(t *testing.T, files map[string]string) *countingFs {
	t.Helper()
	mem := afero.NewMemMapFs()
	if err := mem.MkdirAll(testRoot, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	for rel, content := range files {
		writeFile(t, mem, rel, content)
	}
	return &countingFs{Fs: mem, opens: make(map[string]int)}
}

func writeFile(t *testing.T, fsys afero.Fs, rel, content string) {
	t.Helper()
	full := filepath.Join(testRoot, filepath.FromSlash(rel))
	if err := fsys.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := afero.WriteFile(fsys, full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestInstance(t *testing.T, fsys afero.Fs, capacity int) *Instance {
	t.Helper()
	inst, err := NewInstance(0, Options{
		Root:         testRoot,
		Fs:           fsys,
		CacheEntries: capacity,
		Logger:       discardLogger(),
	})
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}
	return inst
}
