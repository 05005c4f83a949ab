package main

import (
	"context"
	"log"
	"os"

	"github.com/LJTian/NewsQuant/internal/config"
	"github.com/LJTian/NewsQuant/internal/crawler"
	"github.com/LJTian/NewsQuant/internal/events"
	"github.com/LJTian/NewsQuant/internal/pipeline"
	"github.com/LJTian/NewsQuant/internal/scoring"
	"github.com/LJTian/NewsQuant/internal/storage"
)

// collect 是一次性的批量采集入口：跑完所有启用的信息源后退出，
// 适合在容器 Job 或手动排查时使用。传入源名则只跑这一个源。
func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	var oracle scoring.Oracle
	if cfg.OracleURL != "" {
		oracle = scoring.NewHTTPOracle(cfg.OracleURL, cfg.OracleTimeout)
	}

	p := pipeline.New(crawler.NewManager(), oracle, store, events.NewBus())

	ctx := context.Background()
	var summary pipeline.Summary
	if len(os.Args) > 1 {
		summary = p.RunSource(ctx, os.Args[1])
	} else {
		summary = p.RunAllSources(ctx)
	}

	log.Printf("collect done: status=%s crawled=%d processed=%d",
		summary.Status, summary.CrawledCount, summary.ProcessedCount)
	for src, msg := range summary.Errors {
		log.Printf("collect error: %s: %s", src, msg)
	}
	if summary.Status == "error" {
		os.Exit(1)
	}
}
