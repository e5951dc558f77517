package store

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Pool 是固定大小的实例集合，通过原子计数器做严格轮询分发。
type Pool struct {
	instances []*Instance
	counter   atomic.Uint64
	root      string
	logger    logrus.FieldLogger
}

// NewPool 创建 size 个实例；size <= 0 时按 CPU 数量创建。任意实例构建失败都会返回错误。
func NewPool(size int, opts Options) (*Pool, error) {
	opts = opts.withDefaults()
	if size <= 0 {
		size = runtime.NumCPU()
	}

	instances := make([]*Instance, 0, size)
	for i := 0; i < size; i++ {
		inst, err := NewInstance(i, opts)
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w", i, err)
		}
		instances = append(instances, inst)
	}

	opts.Logger.WithFields(logrus.Fields{
		"action":    "startup",
		"root":      opts.Root,
		"instances": size,
		"cache":     opts.CacheEntries,
	}).Info("forge pool ready")

	return &Pool{
		instances: instances,
		root:      opts.Root,
		logger:    opts.Logger,
	}, nil
}

// Next 返回下一个实例。计数器自增是单次原子操作，
// 连续 N 次调用恰好覆盖全部 N 个实例，与并发调用方无关。
func (p *Pool) Next() *Instance {
	n := p.counter.Add(1) - 1
	return p.instances[n%uint64(len(p.instances))]
}

// ForEach 按下标顺序对每个实例执行 fn，单个实例失败不会中断其余实例，错误合并返回。
func (p *Pool) ForEach(fn func(*Instance) error) error {
	var errs []error
	for _, inst := range p.instances {
		if err := fn(inst); err != nil {
			errs = append(errs, fmt.Errorf("instance %d: %w", inst.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Size 返回实例数量。
func (p *Pool) Size() int {
	return len(p.instances)
}

// Root 返回对外提供的 forge 目录。
func (p *Pool) Root() string {
	return p.root
}

// ReloadAll 依次重建每个实例的目录树，reason 仅用于日志。
func (p *Pool) ReloadAll(reason string) error {
	started := time.Now()
	err := p.ForEach(func(inst *Instance) error {
		return inst.Reload()
	})
	fields := logrus.Fields{
		"action":     "reload",
		"reason":     reason,
		"instances":  len(p.instances),
		"elapsed_ms": time.Since(started).Milliseconds(),
	}
	if err != nil {
		p.logger.WithFields(fields).WithError(err).Warn("pool reload finished with errors")
		return err
	}
	p.logger.WithFields(fields).Info("pool reloaded")
	return nil
}

// Stats 返回全部实例的状态快照。
func (p *Pool) Stats() []InstanceStats {
	stats := make([]InstanceStats, 0, len(p.instances))
	_ = p.ForEach(func(inst *Instance) error {
		stats = append(stats, inst.Stats())
		return nil
	})
	return stats
}

// Dump 输出首个实例的目录树；所有实例由同一目录构建，内容一致。
func (p *Pool) Dump(w io.Writer) {
	p.instances[0].Dump(w)
}
