package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/forgecdn/forge/internal/forge"
	"github.com/forgecdn/forge/internal/metrics"
)

// WatchOptions 控制文件监听与 reload 协调。
type WatchOptions struct {
	// Debounce 为 0 时每个事件触发一次全量 reload；大于 0 时，窗口内的事件合并为一次。
	Debounce time.Duration
	// OnReload 在每次协调 reload 完成后调用，可为空。
	OnReload func(error)
}

// Watcher 把 fsnotify 事件经由 channel 交给单独的协调 goroutine，
// 由它驱动整个池的 reload，避免在监听回调里直接执行重建。
type Watcher struct {
	pool     *Pool
	fsw      *fsnotify.Watcher
	events   chan fsnotify.Event
	debounce time.Duration
	onReload func(error)
	logger   logrus.FieldLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Watch 递归监听 forge 目录并在后台运行，ctx 取消或调用 Close 时停止。
// 初始化失败（例如目录不存在或 inotify 配额不足）时返回错误。
func (p *Pool) Watch(ctx context.Context, opts WatchOptions) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		pool:     p,
		fsw:      fsw,
		events:   make(chan fsnotify.Event, 64),
		debounce: opts.Debounce,
		onReload: opts.OnReload,
		logger:   p.logger.WithField("action", "watch"),
	}
	if err := w.addTree(p.root); err != nil {
		fsw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(2)
	go w.produce(ctx)
	go w.coordinate(ctx)

	w.logger.WithFields(logrus.Fields{
		"root":     p.root,
		"debounce": opts.Debounce.String(),
	}).Info("watching forge directory")
	return w, nil
}

// Close 停止监听并等待后台 goroutine 退出。
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// addTree 注册 dir 及其全部子目录；fsnotify 本身不支持递归监听。
// 与目录树构建一致：跟随目录符号链接，跳过指向祖先目录的链接。
func (w *Watcher) addTree(dir string) error {
	self, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return w.addDir(dir, forge.WithAncestor(w.ancestorsOf(dir), self))
}

// ancestorsOf 返回 forge 根目录到 dir 父目录之间每一级目录的信息。
func (w *Watcher) ancestorsOf(dir string) []os.FileInfo {
	rel, err := filepath.Rel(w.pool.root, filepath.Dir(dir))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	paths := []string{w.pool.root}
	if rel != "." {
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			paths = append(paths, filepath.Join(paths[len(paths)-1], part))
		}
	}
	ancestors := make([]os.FileInfo, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			break
		}
		ancestors = append(ancestors, info)
	}
	return ancestors
}

func (w *Watcher) addDir(dir string, ancestors []os.FileInfo) error {
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	for _, entry := range entries {
		isLink := entry.Type()&fs.ModeSymlink != 0
		if !entry.IsDir() && !isLink {
			continue
		}
		full := filepath.Join(dir, entry.Name())
		info, err := os.Stat(full)
		if err != nil || !info.IsDir() {
			continue
		}
		if isLink && forge.LoopsBack(info, ancestors) {
			continue
		}
		if err := w.addDir(full, forge.WithAncestor(ancestors, info)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) produce(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("watch error")
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.logger.WithError(err).WithField("path", ev.Name).Warn("watch new directory failed")
					}
				}
			}
			metrics.RecordWatchEvent(opLabel(ev.Op))
			select {
			case w.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Watcher) coordinate(ctx context.Context) {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.events:
			if w.debounce <= 0 {
				w.reload(1, ev.Name)
				continue
			}
			pending++
			if fire == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			}
		case <-fire:
			w.reload(pending, "")
			pending = 0
			fire = nil
		}
	}
}

func (w *Watcher) reload(events int, path string) {
	fields := logrus.Fields{"events": events}
	if path != "" {
		fields["path"] = path
	}
	w.logger.WithFields(fields).Debug("change detected")

	err := w.pool.ReloadAll("watch")
	if w.onReload != nil {
		w.onReload(err)
	}
}

func opLabel(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "other"
	}
}
