package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func apiConfig(url string, custom map[string]any) SourceConfig {
	return SourceConfig{
		Name:            "api_src",
		Type:            TypeAPI,
		SourceURL:       url,
		IsActive:        true,
		IntervalSeconds: 600,
		Priority:        5,
		Custom:          custom,
	}
}

func TestAPICrawlerFetchAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-Key"); got != "secret-key" {
			t.Errorf("X-API-Key = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "golang" {
			t.Errorf("query q = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"data": {
				"articles": [
					{
						"headline": "Go 1.25 released with new runtime",
						"link": "https://example.com/go125",
						"body": "Details about the release.",
						"writer": "jane",
						"time": "2025-06-10T08:30:00Z",
						"origin": {"name": "Reuters"}
					},
					{"headline": "", "link": "https://example.com/empty"}
				]
			}
		}`))
	}))
	defer srv.Close()

	c, err := NewAPICrawler(apiConfig(srv.URL, map[string]any{
		"api_key":   "secret-key",
		"params":    map[string]any{"q": "golang"},
		"data_path": "data.articles",
		"field_mapping": map[string]any{
			"title":        "headline",
			"url":          "link",
			"content":      "body",
			"author":       "writer",
			"published_at": "time",
			"source":       "origin.name",
		},
	}))
	if err != nil {
		t.Fatalf("NewAPICrawler error: %v", err)
	}

	records, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	item := c.Parse(records[0])
	if item == nil {
		t.Fatal("Parse returned nil for valid record")
	}
	if item.Title != "Go 1.25 released with new runtime" {
		t.Errorf("Title = %q", item.Title)
	}
	if item.URL != "https://example.com/go125" {
		t.Errorf("URL = %q", item.URL)
	}
	if item.Content != "Details about the release." {
		t.Errorf("Content = %q", item.Content)
	}
	if item.Author != "jane" {
		t.Errorf("Author = %q", item.Author)
	}
	// 点分路径可以深入嵌套对象
	if item.Source != "Reuters" {
		t.Errorf("Source = %q, want Reuters", item.Source)
	}
	want := time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)
	if item.PublishedAt == nil || !item.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", item.PublishedAt, want)
	}

	// 标题为空的记录跳过
	if got := c.Parse(records[1]); got != nil {
		t.Errorf("Parse(empty title) = %+v, want nil", got)
	}
}

func TestAPICrawlerMissingDataPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	c, err := NewAPICrawler(apiConfig(srv.URL, map[string]any{"data_path": "no.such.path"}))
	if err != nil {
		t.Fatalf("NewAPICrawler error: %v", err)
	}
	records, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestAPICrawlerNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewAPICrawler(apiConfig(srv.URL, nil))
	if err != nil {
		t.Fatalf("NewAPICrawler error: %v", err)
	}
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on 403 response")
	}
}

func TestAPICrawlerRejectsBadMethod(t *testing.T) {
	_, err := NewAPICrawler(apiConfig("https://example.com/api", map[string]any{"method": "DELETE"}))
	if err == nil {
		t.Fatal("expected config error for unsupported method")
	}
	if KindOf(err) != KindConfig {
		t.Errorf("KindOf = %v, want KindConfig", KindOf(err))
	}
}

func TestNewsAPIPreset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{
					"title": "Bitcoin hits new high today",
					"url": "https://example.com/btc",
					"description": "Markets react to the rally.",
					"publishedAt": "2025-06-10T09:00:00Z",
					"author": "wire",
					"source": {"id": "bloomberg", "name": "Bloomberg"}
				}
			]
		}`))
	}))
	defer srv.Close()

	c, err := NewNewsAPICrawler(apiConfig(srv.URL, nil))
	if err != nil {
		t.Fatalf("NewNewsAPICrawler error: %v", err)
	}
	records, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	item := c.Parse(records[0])
	if item == nil {
		t.Fatal("Parse returned nil")
	}
	if item.Source != "Bloomberg" {
		t.Errorf("Source = %q, want Bloomberg", item.Source)
	}
	// NewsAPI 的正文映射到 description
	if item.Content != "Markets react to the rally." {
		t.Errorf("Content = %q", item.Content)
	}
}
