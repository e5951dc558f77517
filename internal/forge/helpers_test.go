package forge

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

const testRoot = "/srv/forge"

// newTestFs 根据 path → 内容 的映射在内存文件系统中生成目录树，路径相对 testRoot。
func newTestFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll(testRoot, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	for rel, content := range files {
		full := filepath.Join(testRoot, filepath.FromSlash(rel))
		if err := fsys.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := afero.WriteFile(fsys, full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return fsys
}

func buildTestTree(t *testing.T, files map[string]string) *Node {
	t.Helper()
	root, err := NewBuilder(newTestFs(t, files), nil, nil).BuildRoot(testRoot)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}
	return root
}
