package crawler

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedCrawler 抓取 RSS / Atom 订阅源
type FeedCrawler struct {
	name    string
	feedURL string
	cfg     FeedConfig
	parser  *gofeed.Parser
}

// NewFeedCrawler 根据配置构造 RSS/Atom 采集器
func NewFeedCrawler(c SourceConfig) (*FeedCrawler, error) {
	cfg, err := decodeFeedConfig(c)
	if err != nil {
		return nil, err
	}

	p := gofeed.NewParser()
	p.UserAgent = crawlerUserAgent

	return &FeedCrawler{
		name:    c.Name,
		feedURL: c.SourceURL,
		cfg:     cfg,
		parser:  p,
	}, nil
}

func (f *FeedCrawler) Name() string { return f.name }
func (f *FeedCrawler) Type() string { return TypeFeed }

func (f *FeedCrawler) Fetch(ctx context.Context) ([]RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(f.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, err
	}

	sourceName := f.name
	if feed.Title != "" {
		sourceName = feed.Title
	}

	records := make([]RawRecord, 0, len(feed.Items))
	for _, entry := range feed.Items {
		rec := RawRecord{
			"title":       entry.Title,
			"link":        entry.Link,
			"description": entry.Description,
			"content":     entry.Content,
			"published":   entry.Published,
			"source_feed": sourceName,
		}
		if entry.PublishedParsed != nil {
			rec["published_parsed"] = *entry.PublishedParsed
		}
		if entry.Author != nil {
			rec["author"] = entry.Author.Name
		}
		if len(entry.Categories) > 0 {
			rec["tags"] = entry.Categories
		}
		records = append(records, rec)
	}
	return records, nil
}

// feedTimeFormats 发布时间的备选格式，逐个尝试，全部失败则视为缺失
var feedTimeFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (f *FeedCrawler) Parse(raw RawRecord) *NewsItem {
	link, _ := raw["link"].(string)
	title, _ := raw["title"].(string)
	if link == "" || title == "" {
		return nil
	}

	// 发布时间：优先 feed 解析好的时间，其次按格式链逐个尝试
	var publishedAt *time.Time
	if t, ok := raw["published_parsed"].(time.Time); ok {
		publishedAt = &t
	} else if s, ok := raw["published"].(string); ok && s != "" {
		for _, layout := range feedTimeFormats {
			if t, err := time.Parse(layout, s); err == nil {
				publishedAt = &t
				break
			}
		}
	}

	// 正文优先取 feed 的富文本字段，短摘要只做兜底
	description, _ := raw["description"].(string)
	content, _ := raw["content"].(string)
	if content == "" {
		content = description
	}
	summary := description
	if summary == "" {
		summary = content
	}

	source, _ := raw["source_feed"].(string)
	author, _ := raw["author"].(string)
	tags, _ := raw["tags"].([]string)

	return &NewsItem{
		Title:       title,
		URL:         link,
		Content:     content,
		Summary:     summary,
		Source:      source,
		Author:      author,
		PublishedAt: publishedAt,
		Categories:  tags,
		Metadata:    map[string]any{"feed_url": f.feedURL},
	}
}
