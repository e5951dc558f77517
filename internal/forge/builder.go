package forge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ResultKind 区分 Build 的两种返回：一个完整目录节点，或需要并入上级的条目列表。
type ResultKind int

const (
	ResultDirectory ResultKind = iota
	ResultMerge
)

// Item 是并入上级目录的单个条目，Node 与 Entry 恰有一个非空。
type Item struct {
	Name  string
	Node  *Node
	Entry *Entry
}

// BuildResult 是 Build 的返回值。Kind 为 ResultDirectory 时 Name/Node 有效，
// 为 ResultMerge 时 Items 有效。
type BuildResult struct {
	Kind  ResultKind
	Name  string
	Node  *Node
	Items []Item
}

// Builder 递归扫描目录并生成目录树，所有文件访问都经由 afero.Fs。
type Builder struct {
	fs       afero.Fs
	logger   logrus.FieldLogger
	pipeline []Stage
}

// NewBuilder 创建 Builder。pipeline 会附加到每个文件条目上，可以为空。
func NewBuilder(fsys afero.Fs, logger logrus.FieldLogger, pipeline []Stage) *Builder {
	if logger == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		logger = silent
	}
	return &Builder{
		fs:       fsys,
		logger:   logger,
		pipeline: pipeline,
	}
}

// BuildRoot 构建以 root 为根的目录树并返回根节点。root 自身作为容器被跳过；
// 若 root 配置了 parented，则其并入列表直接组成根节点。
func (b *Builder) BuildRoot(root string) (*Node, error) {
	res, err := b.Build(root, 0)
	if err != nil {
		return nil, err
	}
	if res.Kind == ResultDirectory {
		return res.Node, nil
	}
	col := newCollector(b.logger, root)
	for _, item := range res.Items {
		col.add(item)
	}
	return col.node(0, false), nil
}

// Build 处理单个目录：读取 forge.toml，递归子目录并生成文件条目。
// 目录符号链接会被跟随，但指向当前祖先目录的链接会被跳过。
func (b *Builder) Build(dir string, depth int) (BuildResult, error) {
	self, err := b.fs.Stat(dir)
	if err != nil {
		return BuildResult{}, fmt.Errorf("read dir %s: %w", dir, err)
	}
	return b.build(dir, depth, []os.FileInfo{self})
}

func (b *Builder) build(dir string, depth int, ancestors []os.FileInfo) (BuildResult, error) {
	cfg := LoadDirConfig(b.fs, dir)

	infos, err := afero.ReadDir(b.fs, dir)
	if err != nil {
		return BuildResult{}, fmt.Errorf("read dir %s: %w", dir, err)
	}

	childDepth := depth + 1
	if cfg.MergesIntoParent() {
		childDepth = depth
	}

	col := newCollector(b.logger, dir)
	for _, info := range infos {
		name := info.Name()
		full := filepath.Join(dir, name)

		if info.Mode()&os.ModeSymlink != 0 {
			resolved, err := b.fs.Stat(full)
			if err != nil {
				b.logger.WithFields(logrus.Fields{"action": "build", "path": full}).
					WithError(err).Warn("skip dangling symlink")
				continue
			}
			if resolved.IsDir() && LoopsBack(resolved, ancestors) {
				b.logger.WithFields(logrus.Fields{"action": "build", "path": full}).
					Warn("skip symlink pointing at an ancestor directory")
				continue
			}
			info = resolved
		}

		if info.IsDir() {
			res, err := b.build(full, childDepth, WithAncestor(ancestors, info))
			if err != nil {
				return BuildResult{}, err
			}
			for _, item := range res.absorb() {
				if cfg.HidesMergedItems() && item.Node != nil {
					item.Node.Hidden = true
				}
				col.add(item)
			}
			continue
		}

		if !info.Mode().IsRegular() || name == ConfigFileName {
			continue
		}

		contentType := cfg.ContentType
		if contentType == "" {
			contentType = ContentTypeFor(filepath.Ext(name))
		}
		col.add(Item{
			Name: name,
			Entry: &Entry{
				Source:      Source{Path: full},
				Converters:  append([]Stage(nil), b.pipeline...),
				ContentType: contentType,
				Hidden:      cfg.HidesMergedItems(),
			},
		})
	}

	if cfg.MergesIntoParent() {
		return BuildResult{Kind: ResultMerge, Items: col.items()}, nil
	}
	return BuildResult{
		Kind: ResultDirectory,
		Name: filepath.Base(dir),
		Node: col.node(depth, cfg.Hidden),
	}, nil
}

// absorb 把子目录的构建结果统一展开为上级可并入的条目。
func (r BuildResult) absorb() []Item {
	if r.Kind == ResultMerge {
		return r.Items
	}
	return []Item{{Name: r.Name, Node: r.Node}}
}

// collector 按目录读取顺序收集条目；同名冲突时保留先出现的条目。
type collector struct {
	logger   logrus.FieldLogger
	dir      string
	children map[string]*Node
	files    map[string]*Entry
	order    []Item
}

func newCollector(logger logrus.FieldLogger, dir string) *collector {
	return &collector{
		logger:   logger,
		dir:      dir,
		children: make(map[string]*Node),
		files:    make(map[string]*Entry),
	}
}

func (c *collector) add(item Item) {
	_, dirExists := c.children[item.Name]
	_, fileExists := c.files[item.Name]
	if dirExists || fileExists {
		c.logger.WithFields(logrus.Fields{
			"action": "build",
			"dir":    c.dir,
			"name":   item.Name,
		}).Warn("duplicate name after merge, keeping first")
		return
	}
	if item.Node != nil {
		c.children[item.Name] = item.Node
	} else {
		c.files[item.Name] = item.Entry
	}
	c.order = append(c.order, item)
}

func (c *collector) items() []Item {
	return c.order
}

func (c *collector) node(depth int, hidden bool) *Node {
	n := newNode(depth, hidden)
	for name, child := range c.children {
		n.Children[name] = child
	}
	for name, entry := range c.files {
		n.Files[name] = entry
	}
	return n
}
