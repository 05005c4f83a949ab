package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/NewsQuant/internal/api"
	"github.com/LJTian/NewsQuant/internal/config"
	"github.com/LJTian/NewsQuant/internal/crawler"
	"github.com/LJTian/NewsQuant/internal/events"
	"github.com/LJTian/NewsQuant/internal/feed"
	"github.com/LJTian/NewsQuant/internal/pipeline"
	"github.com/LJTian/NewsQuant/internal/scheduler"
	"github.com/LJTian/NewsQuant/internal/scoring"
	"github.com/LJTian/NewsQuant/internal/storage"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	// 确保几个默认信息源存在，便于首次启动即有数据
	ensureDefaultSources(store)

	var oracle scoring.Oracle
	if cfg.OracleURL != "" {
		oracle = scoring.NewHTTPOracle(cfg.OracleURL, cfg.OracleTimeout)
	}

	bus := events.NewBus()
	// 评分超过阈值的新闻目前只记日志；推送渠道接入时在这里订阅即可
	bus.Subscribe(func(ev events.ItemScored) {
		log.Printf("scored above threshold: [%s] %.2f %s", ev.Priority, ev.FinalScore, ev.Title)
	})

	manager := crawler.NewManager()
	p := pipeline.New(manager, oracle, store, bus)

	s, err := scheduler.New(cfg.CronSpec, p, store)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	// API
	r := gin.Default()
	apiServer := api.NewServer(store, feed.NewService(store), p)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}

func ensureDefaultSources(store *storage.Store) {
	defaults := []struct {
		name, typ, url string
		interval, prio int
		custom         map[string]any
	}{
		{"hackernews_rss", crawler.TypeFeed, "https://news.ycombinator.com/rss", 1800, 6, nil},
		{"36kr_feed", crawler.TypeFeed, "https://36kr.com/feed", 1800, 5, nil},
		{"techcrunch_feed", crawler.TypeFeed, "https://techcrunch.com/feed/", 3600, 7, nil},
	}
	for _, d := range defaults {
		if _, err := store.EnsureSource(d.name, d.typ, d.url, d.interval, d.prio, d.custom); err != nil {
			log.Printf("warn: ensure source %s: %v", d.name, err)
		}
	}
}
