// Package pipeline 把采集、评分、落库串成一条完整流水线，
// 对外提供定时器与 API 共用的两个触发入口：全量与单源。
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LJTian/NewsQuant/internal/crawler"
	"github.com/LJTian/NewsQuant/internal/events"
	"github.com/LJTian/NewsQuant/internal/scoring"
	"github.com/LJTian/NewsQuant/internal/storage"
)

// oracle 调用的并发上限，避免批量入库时打爆外部打分服务
const oracleConcurrency = 4

// Summary 一次触发的结构化结果
type Summary struct {
	Status         string            `json:"status"` // success / partial / error
	CrawledCount   int               `json:"crawled_count"`
	ProcessedCount int               `json:"processed_count"`
	Errors         map[string]string `json:"errors,omitempty"`
}

// Pipeline 采集评分流水线
type Pipeline struct {
	manager *crawler.Manager
	oracle  scoring.Oracle
	store   *storage.Store
	bus     *events.Bus
}

func New(manager *crawler.Manager, oracle scoring.Oracle, store *storage.Store, bus *events.Bus) *Pipeline {
	return &Pipeline{
		manager: manager,
		oracle:  oracle,
		store:   store,
		bus:     bus,
	}
}

// Manager 暴露采集管理器，供启动时注册扩展类型
func (p *Pipeline) Manager() *crawler.Manager { return p.manager }

// RunAllSources 运行所有启用的信息源。外部调度器按固定间隔调用，
// 失败重试也由调度方负责，这里只跑一轮。
func (p *Pipeline) RunAllSources(ctx context.Context) Summary {
	sources, err := p.store.ListSources(true)
	if err != nil {
		return Summary{Status: "error", Errors: map[string]string{"_load": err.Error()}}
	}

	configs := make([]crawler.SourceConfig, 0, len(sources))
	for _, s := range sources {
		configs = append(configs, s.ToCrawlerConfig())
	}
	return p.run(ctx, configs)
}

// RunSource 运行指定的单个信息源
func (p *Pipeline) RunSource(ctx context.Context, name string) Summary {
	src, err := p.store.GetSourceByName(name)
	if err != nil {
		return Summary{Status: "error", Errors: map[string]string{name: err.Error()}}
	}
	if src == nil {
		return Summary{Status: "error", Errors: map[string]string{name: "source not found"}}
	}
	if !src.IsActive {
		return Summary{Status: "error", Errors: map[string]string{name: "source is inactive"}}
	}
	return p.run(ctx, []crawler.SourceConfig{src.ToCrawlerConfig()})
}

func (p *Pipeline) run(ctx context.Context, configs []crawler.SourceConfig) Summary {
	start := time.Now()
	log.Printf("pipeline: start batch, %d sources", len(configs))

	batch := p.manager.RunAll(ctx, configs, p.store, p.store)

	profile, err := p.store.GetProfile(storage.DefaultUserID)
	if err != nil {
		log.Printf("pipeline: load profile error, using defaults: %v", err)
		profile = scoring.DefaultProfile()
	}
	engine := scoring.NewEngine(profile)

	summary := Summary{Errors: map[string]string{}}
	summary.CrawledCount = batch.Crawled()

	// 逐条评分落库并发执行，信号量限制 oracle 并发
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		sem       = make(chan struct{}, oracleConcurrency)
		processed int
	)
	for _, result := range batch.Results {
		if result.Err != nil {
			summary.Errors[result.Source] = result.Err.Error()
			continue
		}
		for _, item := range result.Items {
			item := item
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				if p.processItem(ctx, engine, profile, item) {
					mu.Lock()
					processed++
					mu.Unlock()
				}
			}()
		}
	}
	wg.Wait()
	summary.ProcessedCount = processed

	switch {
	case len(summary.Errors) == 0:
		summary.Status = "success"
	case summary.ProcessedCount > 0 || len(summary.Errors) < len(batch.Results):
		summary.Status = "partial"
	default:
		summary.Status = "error"
	}

	log.Printf("pipeline: batch done in %s, crawled=%d processed=%d dup=%d errors=%d",
		time.Since(start).Round(time.Millisecond),
		summary.CrawledCount, summary.ProcessedCount, batch.Duplicates, len(summary.Errors))
	return summary
}

// processItem 对单条新闻做 AI 分析、评分、多空评估并落库。
// oracle 失败退回中性分，单条落库失败只影响这一条。
func (p *Pipeline) processItem(ctx context.Context, engine *scoring.Engine, profile *scoring.Profile, item crawler.NewsItem) bool {
	ai := scoring.AnalyzeOrNeutral(ctx, p.oracle, item.Title, item.Content)

	result := engine.CalculateFinalScore(ai, &item)
	assessment := assess(ai, profile)

	row, err := p.store.SaveScored(item, result, ai, assessment)
	if err != nil {
		log.Printf("pipeline: save %s error: %v", item.URL, err)
		return false
	}

	// 超过阈值的发领域事件，由订阅方决定要不要推送
	if p.bus != nil && engine.ShouldPush(result.FinalScore) {
		p.bus.Publish(events.ItemScored{
			NewsID:     row.ID,
			Title:      row.Title,
			URL:        row.URL,
			Source:     row.Source,
			FinalScore: result.FinalScore,
			Priority:   scoring.Priority(result.FinalScore),
			ScoredAt:   time.Now(),
		})
	}
	return true
}

// Reanalyze 对已入库的新闻重新评分，覆盖原有评分结果
func (p *Pipeline) Reanalyze(ctx context.Context, newsID uint) error {
	row, err := p.store.GetNewsByID(newsID)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("news %d not found", newsID)
	}

	profile, err := p.store.GetProfile(storage.DefaultUserID)
	if err != nil {
		profile = scoring.DefaultProfile()
	}
	engine := scoring.NewEngine(profile)

	item := crawler.NewsItem{
		Title:       row.Title,
		URL:         row.URL,
		Content:     row.Content,
		Summary:     row.Summary,
		Source:      row.Source,
		Author:      row.Author,
		PublishedAt: row.PublishedAt,
		CrawledAt:   row.CrawledAt,
		Categories:  storage.JSONToStrings(row.Categories),
	}

	ai := scoring.AnalyzeOrNeutral(ctx, p.oracle, item.Title, item.Content)
	result := engine.CalculateFinalScore(ai, &item)
	assessment := assess(ai, profile)

	return p.store.UpdateScore(newsID, result, ai, assessment)
}

// assess 用 oracle 的情绪与市场影响分，结合画像里的关键词多空配置
// 推导方向与力度。oracle 缺席时一切取中性。
func assess(ai *scoring.Analysis, profile *scoring.Profile) scoring.Assessment {
	sentiment := "neutral"
	marketImpact := 50.0
	var matched []string
	if ai != nil {
		if ai.Sentiment != "" {
			sentiment = ai.Sentiment
		}
		if ai.MarketImpact != nil {
			marketImpact = *ai.MarketImpact
		}
		matched = ai.Keywords
	}
	return scoring.AssessPosition(sentiment, marketImpact, matched, profile.KeywordBias, profile.PositionSensitivity)
}
