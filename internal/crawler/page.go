package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
)

const crawlerUserAgent = "NewsQuantBot/1.0"

// PageCrawler 网页列表采集器：两段式抓取，
// 第一段抓列表页提取候选文章链接，第二段逐篇抓取正文
type PageCrawler struct {
	name    string
	listURL string
	cfg     PageConfig

	// 可替换的正文提取函数，测试时注入假实现
	extract func(url string, timeout time.Duration) (readability.Article, error)
}

// NewPageCrawler 根据配置构造网页列表采集器
func NewPageCrawler(c SourceConfig) (*PageCrawler, error) {
	cfg, err := decodePageConfig(c)
	if err != nil {
		return nil, err
	}
	return &PageCrawler{
		name:    c.Name,
		listURL: c.SourceURL,
		cfg:     cfg,
		extract: func(url string, timeout time.Duration) (readability.Article, error) {
			return readability.FromURL(url, timeout)
		},
	}, nil
}

func (p *PageCrawler) Name() string { return p.name }
func (p *PageCrawler) Type() string { return TypePage }

func (p *PageCrawler) Fetch(ctx context.Context) ([]RawRecord, error) {
	c := colly.NewCollector(
		colly.UserAgent(crawlerUserAgent),
	)
	c.SetRequestTimeout(time.Duration(p.cfg.TimeoutSeconds) * time.Second)

	records := make([]RawRecord, 0, p.cfg.MaxArticles)
	seen := make(map[string]struct{})

	c.OnHTML(p.cfg.ArticleSelector, func(e *colly.HTMLElement) {
		if len(records) >= p.cfg.MaxArticles {
			return
		}
		href := e.Attr("href")
		if href == "" {
			href = e.ChildAttr("a", "href")
		}
		if href == "" {
			return
		}
		full := e.Request.AbsoluteURL(href)
		if full == "" {
			return
		}
		if _, ok := seen[full]; ok {
			return
		}
		seen[full] = struct{}{}
		records = append(records, RawRecord{
			"url":          full,
			"anchor_title": strings.TrimSpace(e.Text),
		})
	})

	if err := c.Visit(p.listURL); err != nil {
		return nil, fmt.Errorf("visit list page: %w", err)
	}
	return records, nil
}

// Parse 对单篇文章做全文抓取与正文提取。
// 这里有第二次网络请求，慢的文章只拖慢本源，不影响其它源。
func (p *PageCrawler) Parse(raw RawRecord) *NewsItem {
	url, _ := raw["url"].(string)
	if url == "" {
		return nil
	}

	article, err := p.extract(url, time.Duration(p.cfg.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title, _ = raw["anchor_title"].(string)
	}
	if title == "" {
		return nil
	}

	summary := article.Excerpt
	if summary == "" {
		summary = article.TextContent
	}

	item := &NewsItem{
		Title:       title,
		URL:         url,
		Content:     article.TextContent,
		Summary:     summary,
		Source:      p.name,
		Author:      article.Byline,
		PublishedAt: article.PublishedTime,
		Metadata: map[string]any{
			"top_image": article.Image,
			"site_name": article.SiteName,
		},
	}
	return item
}

// SinglePageCrawler 单页采集器：跳过列表页，直接抓取配置的那一个 URL
type SinglePageCrawler struct {
	*PageCrawler
}

// NewSinglePageCrawler 构造单页采集器
func NewSinglePageCrawler(c SourceConfig) (*SinglePageCrawler, error) {
	inner, err := NewPageCrawler(c)
	if err != nil {
		return nil, err
	}
	return &SinglePageCrawler{PageCrawler: inner}, nil
}

func (s *SinglePageCrawler) Type() string { return TypeSinglePage }

func (s *SinglePageCrawler) Fetch(ctx context.Context) ([]RawRecord, error) {
	return []RawRecord{{"url": s.listURL}}, nil
}
