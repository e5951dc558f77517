package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/forgecdn/forge/internal/cache"
	"github.com/forgecdn/forge/internal/forge"
	"github.com/forgecdn/forge/internal/metrics"
)

// ResultKind 区分 Fetch 命中的是文件还是目录。
type ResultKind int

const (
	ResultFile ResultKind = iota
	ResultDirectory
)

// Result 是 Fetch 的返回值。Kind 为 ResultDirectory 时调用方应重定向到目录浏览页，
// 而不是当作错误处理。
type Result struct {
	Kind        ResultKind
	Body        []byte
	ContentType string
	CacheHit    bool
}

// Listing 是目录浏览的结果，名称均已排序且不含隐藏条目。
type Listing struct {
	Dirs  []string
	Files []string
}

// Options 控制单个实例如何构建目录树与缓存。
type Options struct {
	// Root 是对外提供的 forge 目录。
	Root string
	// Fs 默认为 afero.NewOsFs()，测试中可替换为内存文件系统。
	Fs afero.Fs
	// CacheEntries 是每个实例的 LRU 容量。
	CacheEntries int
	// Pipeline 会附加到每个文件条目。
	Pipeline []forge.Stage
	Logger   logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Logger == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		o.Logger = silent
	}
	return o
}

// Instance 持有一棵目录树与一个 LRU 缓存，所有操作在同一把互斥锁下串行执行。
type Instance struct {
	id      int
	root    string
	fs      afero.Fs
	logger  logrus.FieldLogger
	builder *forge.Builder

	mu         sync.Mutex
	tree       *forge.Node
	cache      *cache.EntryCache
	lastReload time.Time
	lastErr    error
}

// NewInstance 构建目录树并创建缓存；目录树构建失败时返回错误，调用方不应继续启动。
func NewInstance(id int, opts Options) (*Instance, error) {
	opts = opts.withDefaults()
	if opts.Root == "" {
		return nil, errors.New("forge root is required")
	}

	entryCache, err := cache.New(opts.CacheEntries)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		id:      id,
		root:    opts.Root,
		fs:      opts.Fs,
		logger:  opts.Logger.WithField("instance", id),
		builder: forge.NewBuilder(opts.Fs, opts.Logger, opts.Pipeline),
		cache:   entryCache,
	}

	tree, err := inst.build()
	if err != nil {
		return nil, err
	}
	inst.tree = tree
	inst.lastReload = time.Now()
	return inst, nil
}

// ID 返回实例在池中的下标。
func (i *Instance) ID() int {
	return i.id
}

// Fetch 按路径片段读取文件。缓存命中直接返回；未命中时遍历目录树、读盘、
// 执行转换流水线并写入缓存。目录返回 ResultDirectory，不存在返回 forge.ErrNotFound。
// 返回的 Body 是缓存内容的副本，调用方可以随意修改。
func (i *Instance) Fetch(ctx context.Context, segments []string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	started := time.Now()

	i.mu.Lock()
	defer i.mu.Unlock()

	key := strings.Join(segments, "/")
	if item, ok := i.cache.Get(key); ok {
		metrics.RecordCacheLookup(true)
		metrics.RecordFetch("file", len(item.Body), time.Since(started))
		return Result{Kind: ResultFile, Body: bytes.Clone(item.Body), ContentType: item.ContentType, CacheHit: true}, nil
	}
	metrics.RecordCacheLookup(false)

	res := i.tree.Traverse(segments)
	switch res.Kind {
	case forge.TraverseDirectory:
		metrics.RecordFetch("directory", 0, time.Since(started))
		return Result{Kind: ResultDirectory}, nil
	case forge.TraverseNotFound:
		metrics.RecordFetch("not_found", 0, time.Since(started))
		return Result{}, forge.ErrNotFound
	}

	body, err := i.readEntry(res.Entry)
	if err != nil {
		metrics.RecordFetch("error", 0, time.Since(started))
		i.logger.WithFields(logrus.Fields{
			"action": "fetch",
			"path":   key,
		}).WithError(err).Error("read entry failed")
		return Result{}, err
	}

	if i.cache.Put(key, body, res.Entry.ContentType) {
		metrics.RecordEviction()
	}
	metrics.RecordFetch("file", len(body), time.Since(started))
	return Result{Kind: ResultFile, Body: bytes.Clone(body), ContentType: res.Entry.ContentType}, nil
}

func (i *Instance) readEntry(entry *forge.Entry) ([]byte, error) {
	if entry.Source.Versioned() {
		return nil, forge.ErrVersionedUnsupported
	}
	body, err := afero.ReadFile(i.fs, entry.Source.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", entry.Source.Path, err)
	}
	return forge.ApplyPipeline(entry.Converters, body)
}

// List 返回目录下可见的子目录与文件。
func (i *Instance) List(ctx context.Context, segments []string) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	dirs, files, err := i.tree.List(segments)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Dirs: dirs, Files: files}, nil
}

// Reload 从磁盘重新构建目录树。构建成功时整体替换旧树；失败时保留旧树继续服务。
// 无论成功与否缓存都会被清空，reload 之后不会再返回任何旧内容。
func (i *Instance) Reload() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	started := time.Now()
	tree, err := i.build()
	i.cache.Clear()
	i.lastReload = started
	i.lastErr = err
	metrics.RecordReload(err == nil, time.Since(started))

	fields := logrus.Fields{
		"action":     "reload",
		"root":       i.root,
		"elapsed_ms": time.Since(started).Milliseconds(),
	}
	if err != nil {
		i.logger.WithFields(fields).WithError(err).Warn("reload failed, keeping previous tree")
		return err
	}
	i.tree = tree
	i.logger.WithFields(fields).Debug("tree reloaded")
	return nil
}

func (i *Instance) build() (*forge.Node, error) {
	tree, err := i.builder.BuildRoot(i.root)
	if err != nil {
		return nil, fmt.Errorf("build tree %s: %w", i.root, err)
	}
	dirs, files := tree.Count()
	metrics.SetIndexedEntries(dirs, files)
	return tree, nil
}

// InstanceStats 是实例状态快照，供诊断接口使用。
type InstanceStats struct {
	ID            int       `json:"id"`
	CachedEntries int       `json:"cached_entries"`
	CacheCapacity int       `json:"cache_capacity"`
	Evictions     uint64    `json:"evictions"`
	Dirs          int       `json:"dirs"`
	Files         int       `json:"files"`
	LastReload    time.Time `json:"last_reload"`
	LastError     string    `json:"last_error,omitempty"`
}

// Stats 返回实例当前状态。
func (i *Instance) Stats() InstanceStats {
	i.mu.Lock()
	defer i.mu.Unlock()

	dirs, files := i.tree.Count()
	stats := InstanceStats{
		ID:            i.id,
		CachedEntries: i.cache.Len(),
		CacheCapacity: i.cache.Capacity(),
		Evictions:     i.cache.Evictions(),
		Dirs:          dirs,
		Files:         files,
		LastReload:    i.lastReload,
	}
	if i.lastErr != nil {
		stats.LastError = i.lastErr.Error()
	}
	return stats
}

// Dump 输出当前目录树。
func (i *Instance) Dump(w io.Writer) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tree.Dump(w)
}
