package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiMaxResponseBytes = 8 << 20 // 8MB

// APICrawler 结构化 API 采集器：请求配置的端点，按 data_path
// 取出文章数组，再按 field_mapping 做字段映射
type APICrawler struct {
	name   string
	apiURL string
	cfg    APIConfig
	client *http.Client
}

// NewAPICrawler 根据配置构造 API 采集器
func NewAPICrawler(c SourceConfig) (*APICrawler, error) {
	cfg, err := decodeAPIConfig(c)
	if err != nil {
		return nil, err
	}
	return &APICrawler{
		name:   c.Name,
		apiURL: c.SourceURL,
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}, nil
}

func (a *APICrawler) Name() string { return a.name }
func (a *APICrawler) Type() string { return TypeAPI }

func (a *APICrawler) Fetch(ctx context.Context) ([]RawRecord, error) {
	var req *http.Request
	var err error

	if a.cfg.Method == "POST" {
		body, merr := json.Marshal(a.cfg.Params)
		if merr != nil {
			return nil, fmt.Errorf("marshal params: %w", merr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(body))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, a.apiURL, nil)
		if req != nil && len(a.cfg.Params) > 0 {
			q := url.Values{}
			for k, v := range a.cfg.Params {
				q.Set(k, v)
			}
			req.URL.RawQuery = q.Encode()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", crawlerUserAgent)
	for k, v := range a.cfg.Headers {
		req.Header.Set(k, v)
	}
	if a.cfg.APIKey != "" && req.Header.Get("X-API-Key") == "" {
		req.Header.Set("X-API-Key", a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(io.LimitReader(resp.Body, apiMaxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// 按 data_path（点分路径）取出文章数组
	data := payload
	if a.cfg.DataPath != "" {
		data = nestedValue(payload, a.cfg.DataPath)
	}

	switch v := data.(type) {
	case []any:
		records := make([]RawRecord, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				records = append(records, RawRecord(m))
			}
		}
		return records, nil
	case map[string]any:
		return []RawRecord{RawRecord(v)}, nil
	default:
		return nil, nil
	}
}

func (a *APICrawler) Parse(raw RawRecord) *NewsItem {
	title := stringAt(raw, a.fieldPath("title", "title"))
	link := stringAt(raw, a.fieldPath("url", "url"))
	if title == "" || link == "" {
		return nil
	}

	content := stringAt(raw, a.fieldPath("content", "content"))
	source := stringAt(raw, a.fieldPath("source", "source.name"))
	if source == "" {
		source = a.name
	}

	var publishedAt *time.Time
	if dateStr := stringAt(raw, a.fieldPath("published_at", "publishedAt")); dateStr != "" {
		if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
			publishedAt = &t
		} else if t, err := time.Parse("2006-01-02T15:04:05", dateStr); err == nil {
			publishedAt = &t
		}
	}

	return &NewsItem{
		Title:       title,
		URL:         link,
		Content:     content,
		Summary:     content,
		Source:      source,
		Author:      stringAt(raw, a.fieldPath("author", "author")),
		PublishedAt: publishedAt,
		Metadata:    map[string]any{"api_url": a.apiURL},
	}
}

func (a *APICrawler) fieldPath(field, def string) string {
	if p, ok := a.cfg.FieldMapping[field]; ok && p != "" {
		return p
	}
	return def
}

// nestedValue 按点分路径在嵌套 map 里取值，路径中断时返回 nil
func nestedValue(data any, path string) any {
	value := data
	for _, key := range strings.Split(path, ".") {
		m, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		value = m[key]
	}
	return value
}

func stringAt(raw RawRecord, path string) string {
	v := nestedValue(map[string]any(raw), path)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

// NewNewsAPICrawler NewsAPI.org 预设：固定 data_path 与字段映射
func NewNewsAPICrawler(c SourceConfig) (*APICrawler, error) {
	if c.Custom == nil {
		c.Custom = map[string]any{}
	}
	c.Custom["data_path"] = "articles"
	c.Custom["field_mapping"] = map[string]any{
		"title":        "title",
		"url":          "url",
		"content":      "description",
		"published_at": "publishedAt",
		"author":       "author",
		"source":       "source.name",
	}
	return NewAPICrawler(c)
}
