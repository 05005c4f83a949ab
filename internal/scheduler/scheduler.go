// Package scheduler 是外部触发方：按固定间隔调用流水线的
// 全量与单源入口。流水线本身不重试，失败源下个周期自然重跑。
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LJTian/NewsQuant/internal/pipeline"
	"github.com/LJTian/NewsQuant/internal/storage"
)

type Scheduler struct {
	cron     *cron.Cron
	pipeline *pipeline.Pipeline
	store    *storage.Store
}

// New 构造调度器：spec 是全量采集的 cron 表达式，
// 各源再按自己的 interval_seconds 注册独立的单源任务
func New(spec string, p *pipeline.Pipeline, store *storage.Store) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, pipeline: p, store: store}

	if _, err := c.AddFunc(spec, s.runAll); err != nil {
		return nil, fmt.Errorf("add batch cron %q: %w", spec, err)
	}

	if err := s.registerSourceJobs(); err != nil {
		return nil, err
	}

	return s, nil
}

// registerSourceJobs 给每个启用的源注册按 interval_seconds 的独立任务
func (s *Scheduler) registerSourceJobs() error {
	sources, err := s.store.ListSources(true)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	for _, src := range sources {
		name := src.Name
		spec := fmt.Sprintf("@every %ds", src.IntervalSeconds)
		if _, err := s.cron.AddFunc(spec, func() { s.runSource(name) }); err != nil {
			log.Printf("warn: add cron for %s failed: %v", name, err)
			continue
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮采集，避免与服务启动争抢资源
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.runAll()
	})
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Cron 暴露底层 cron，便于挂额外任务
func (s *Scheduler) Cron() *cron.Cron { return s.cron }

// RunOnce 对外暴露的单次全量入口，方便手动触发
func (s *Scheduler) RunOnce() pipeline.Summary {
	return s.pipeline.RunAllSources(context.Background())
}

func (s *Scheduler) runAll() {
	summary := s.pipeline.RunAllSources(context.Background())
	log.Printf("scheduler: batch %s, crawled=%d processed=%d",
		summary.Status, summary.CrawledCount, summary.ProcessedCount)
}

func (s *Scheduler) runSource(name string) {
	summary := s.pipeline.RunSource(context.Background(), name)
	if summary.Status != "success" {
		log.Printf("scheduler: source %s run %s: %v", name, summary.Status, summary.Errors)
	}
}
