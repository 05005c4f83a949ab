package crawler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Factory 采集器构造函数
type Factory func(c SourceConfig) (Crawler, error)

// URLChecker 已入库 URL 的查询接口，由持久层实现
type URLChecker interface {
	ExistsByURL(url string) (bool, error)
}

// StatsRecorder 源统计回写接口：每轮结束后无论成败都更新
type StatsRecorder interface {
	UpdateStats(name string, success bool, errMsg string)
}

// Manager 采集管理器：维护类型注册表，按配置实例化采集器，
// 并发运行并做故障隔离与跨源去重
type Manager struct {
	mu        sync.RWMutex
	factories map[string]Factory
	plugins   *PluginRegistry
}

// NewManager 构造管理器并注册内置的采集器类型。
// 注册表在启动后应视为只追加，采集批次运行期间不做并发修改。
func NewManager() *Manager {
	m := &Manager{
		factories: map[string]Factory{},
		plugins:   NewPluginRegistry(),
	}

	m.RegisterType(TypeFeed, func(c SourceConfig) (Crawler, error) { return NewFeedCrawler(c) })
	m.RegisterType(TypePage, func(c SourceConfig) (Crawler, error) { return NewPageCrawler(c) })
	m.RegisterType(TypeSinglePage, func(c SourceConfig) (Crawler, error) { return NewSinglePageCrawler(c) })
	m.RegisterType(TypeAPI, func(c SourceConfig) (Crawler, error) { return NewAPICrawler(c) })
	m.RegisterType("newsapi", func(c SourceConfig) (Crawler, error) { return NewNewsAPICrawler(c) })
	m.RegisterType(TypeCustom, func(c SourceConfig) (Crawler, error) { return NewCustomCrawler(c, m.plugins) })

	return m
}

// RegisterType 注册新的采集器类型，内置四类之外也可扩展
func (m *Manager) RegisterType(name string, f Factory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[name] = f
}

// Plugins 暴露自定义源插件表，供启动时注册第三方实现
func (m *Manager) Plugins() *PluginRegistry { return m.plugins }

// Types 返回所有已注册的采集器类型
func (m *Manager) Types() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]string, 0, len(m.factories))
	for t := range m.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build 根据配置构造采集器：先校验通用字段，再查类型注册表。
// 未知类型与非法配置都拒绝构造，但只影响该源，不影响批次。
func (m *Manager) Build(c SourceConfig) (Crawler, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	factory, ok := m.factories[c.Type]
	m.mu.RUnlock()
	if !ok {
		return nil, NewConfigError(c.Name, "unknown crawler type %q", c.Type)
	}
	return factory(c)
}

// SourceResult 单个源一轮的结果
type SourceResult struct {
	Source string
	Items  []NewsItem
	Stats  CrawlStats
	Err    error
}

// BatchResult 一批源的聚合结果，Results 按配置顺序排列
type BatchResult struct {
	Results    []SourceResult
	Duplicates int
}

// Crawled 返回本批次抓到的原始条数
func (b *BatchResult) Crawled() int {
	total := 0
	for _, r := range b.Results {
		total += r.Stats.Raw
	}
	return total
}

// RunAll 并发运行一批源。单个源的失败（包括 panic）只记入该源的
// 结果，绝不中断兄弟源。全部完成后再做跨源 URL 去重，保证先写者胜。
func (m *Manager) RunAll(ctx context.Context, configs []SourceConfig, known URLChecker, stats StatsRecorder) BatchResult {
	active := make([]SourceConfig, 0, len(configs))
	for _, c := range configs {
		if c.IsActive {
			active = append(active, c)
		}
	}

	results := make([]SourceResult, len(active))
	var wg sync.WaitGroup

	for i, c := range active {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = m.runOne(ctx, c)
		}()
	}
	wg.Wait()

	// 统计回写：成功失败都记录
	if stats != nil {
		for _, r := range results {
			msg := ""
			if r.Err != nil {
				msg = r.Err.Error()
			}
			stats.UpdateStats(r.Source, r.Err == nil, msg)
		}
	}

	// 去重在所有源完成后统一做：先查本批次，再查已入库的 URL。
	// 只用精确 URL 这一个键，批内按配置顺序先写者胜。
	seen := make(map[string]struct{})
	duplicates := 0
	for i := range results {
		if results[i].Err != nil || len(results[i].Items) == 0 {
			continue
		}
		kept := results[i].Items[:0]
		for _, item := range results[i].Items {
			if _, ok := seen[item.URL]; ok {
				duplicates++
				continue
			}
			if known != nil {
				exists, err := known.ExistsByURL(item.URL)
				if err != nil {
					log.Printf("dedup: check %s error: %v", item.URL, err)
				} else if exists {
					seen[item.URL] = struct{}{}
					duplicates++
					continue
				}
			}
			seen[item.URL] = struct{}{}
			kept = append(kept, item)
		}
		results[i].Items = kept
	}

	return BatchResult{Results: results, Duplicates: duplicates}
}

// runOne 构造并运行单个源，panic 也转为该源的错误
func (m *Manager) runOne(ctx context.Context, c SourceConfig) (result SourceResult) {
	result.Source = c.Name

	defer func() {
		if r := recover(); r != nil {
			result.Err = &Error{Kind: KindFetch, Source: c.Name, Err: fmt.Errorf("panic: %v", r)}
			result.Items = nil
			log.Printf("crawl %s panic: %v", c.Name, r)
		}
	}()

	crawler, err := m.Build(c)
	if err != nil {
		result.Err = err
		return result
	}

	items, stats, err := Crawl(ctx, crawler)
	if err != nil {
		result.Err = err
		return result
	}

	// 归一化后统一以源配置名作为展示名兜底
	for i := range items {
		if items[i].Source == "" {
			items[i].Source = c.Name
		}
	}

	result.Items = items
	result.Stats = stats
	return result
}
