package crawler

import (
	"context"
	"strings"
	"time"
)

// RawRecord 一条尚未解析的原始数据，结构由具体采集器决定
type RawRecord map[string]any

// NewsItem 统一归一化后的新闻结构，所有采集器的最终产物
type NewsItem struct {
	Title       string
	URL         string
	Content     string
	Summary     string
	Source      string
	Author      string
	PublishedAt *time.Time
	CrawledAt   time.Time
	Categories  []string
	Tags        []string
	Metadata    map[string]any
}

// Crawler 抽象每一类数据源的抓取与解析
// Parse 返回 nil 表示该条数据无效或解析失败，跳过即可，不中断整个源
type Crawler interface {
	Name() string
	Type() string
	Fetch(ctx context.Context) ([]RawRecord, error)
	Parse(raw RawRecord) *NewsItem
}

// CrawlStats 单个源一轮抓取的计数：原始条数与被丢弃的条数
type CrawlStats struct {
	Raw     int
	Dropped int
}

// Crawl 执行完整采集流程：fetch → parse → validate → clean → 补 crawled_at。
// 单条解析或校验失败只跳过该条，Fetch 失败才算整个源失败。
func Crawl(ctx context.Context, c Crawler) ([]NewsItem, CrawlStats, error) {
	raws, err := c.Fetch(ctx)
	if err != nil {
		return nil, CrawlStats{}, &Error{Kind: KindFetch, Source: c.Name(), Err: err}
	}

	stats := CrawlStats{Raw: len(raws)}
	now := time.Now().UTC()

	items := make([]NewsItem, 0, len(raws))
	for _, raw := range raws {
		item := c.Parse(raw)
		if item == nil {
			stats.Dropped++
			continue
		}
		if !Validate(item) {
			stats.Dropped++
			continue
		}
		CleanItem(item)
		if item.CrawledAt.IsZero() {
			item.CrawledAt = now
		}
		items = append(items, *item)
	}

	return items, stats, nil
}

// Validate 校验新闻有效性：标题去空白后至少 5 个字符，URL 必须是 http(s)
func Validate(item *NewsItem) bool {
	if item == nil {
		return false
	}
	if len([]rune(strings.TrimSpace(item.Title))) < 5 {
		return false
	}
	if !strings.HasPrefix(item.URL, "http://") && !strings.HasPrefix(item.URL, "https://") {
		return false
	}
	return true
}
