package store

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Resync 按 cron 表达式周期性地全量重建目录树，用于兜底文件系统事件丢失的情况。
type Resync struct {
	cron *cron.Cron
}

// ScheduleResync 解析标准五段式 cron 表达式并启动调度。
func (p *Pool) ScheduleResync(spec string) (*Resync, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		p.logger.WithFields(logrus.Fields{
			"action":   "resync",
			"schedule": spec,
		}).Debug("scheduled resync triggered")
		_ = p.ReloadAll("resync")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid resync schedule %q: %w", spec, err)
	}
	c.Start()
	return &Resync{cron: c}, nil
}

// Stop 停止调度并等待正在执行的 resync 结束。
func (r *Resync) Stop() {
	if r == nil || r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}
