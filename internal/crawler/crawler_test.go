package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeCrawler 测试用采集器：返回预置的原始记录，Parse 按固定字段取值
type fakeCrawler struct {
	name     string
	records  []RawRecord
	fetchErr error
}

func (f *fakeCrawler) Name() string { return f.name }
func (f *fakeCrawler) Type() string { return "fake" }

func (f *fakeCrawler) Fetch(ctx context.Context) ([]RawRecord, error) {
	return f.records, f.fetchErr
}

func (f *fakeCrawler) Parse(raw RawRecord) *NewsItem {
	if raw["bad"] == true {
		return nil
	}
	title, _ := raw["title"].(string)
	url, _ := raw["url"].(string)
	return &NewsItem{Title: title, URL: url}
}

func TestCrawlSkipsInvalidItems(t *testing.T) {
	c := &fakeCrawler{
		name: "test_source",
		records: []RawRecord{
			{"title": "Valid article about something", "url": "https://example.com/a"},
			{"bad": true},                                   // 解析失败
			{"title": "ab", "url": "https://example.com/b"}, // 标题过短
			{"title": "No scheme in this url", "url": "example.com/c"},
			{"title": "Another valid article", "url": "http://example.com/d"},
		},
	}

	items, stats, err := Crawl(context.Background(), c)
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}
	if stats.Raw != 5 {
		t.Errorf("stats.Raw = %d, want 5", stats.Raw)
	}
	if stats.Dropped != 3 {
		t.Errorf("stats.Dropped = %d, want 3", stats.Dropped)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	// 单条失败不影响其余条目的归一化
	for _, item := range items {
		if item.CrawledAt.IsZero() {
			t.Errorf("item %q missing crawled_at", item.URL)
		}
	}
}

func TestCrawlFetchFailureIsSourceFailure(t *testing.T) {
	c := &fakeCrawler{name: "down_source", fetchErr: errors.New("connection refused")}

	_, _, err := Crawl(context.Background(), c)
	if err == nil {
		t.Fatal("expected error when fetch fails")
	}
	if KindOf(err) != KindFetch {
		t.Errorf("KindOf = %v, want KindFetch", KindOf(err))
	}
	if !strings.Contains(err.Error(), "down_source") {
		t.Errorf("error %q should carry the source name", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		item *NewsItem
		want bool
	}{
		{"ok", &NewsItem{Title: "A valid title", URL: "https://example.com"}, true},
		{"nil item", nil, false},
		{"short title", &NewsItem{Title: "abcd", URL: "https://example.com"}, false},
		{"whitespace padded short title", &NewsItem{Title: "  ab  ", URL: "https://example.com"}, false},
		{"cjk title counts runes", &NewsItem{Title: "人工智能快讯", URL: "https://example.com"}, true},
		{"missing scheme", &NewsItem{Title: "A valid title", URL: "example.com/a"}, false},
		{"ftp scheme", &NewsItem{Title: "A valid title", URL: "ftp://example.com/a"}, false},
	}
	for _, tt := range tests {
		if got := Validate(tt.item); got != tt.want {
			t.Errorf("%s: Validate = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStripHTML(t *testing.T) {
	in := `<div><script>alert(1)</script><p>Hello   <b>world</b></p>
	<style>p{color:red}</style>tail</div>`
	got := StripHTML(in)
	if got != "Hello world tail" {
		t.Errorf("StripHTML = %q, want %q", got, "Hello world tail")
	}

	if got := StripHTML("  plain   text\n\twith spaces  "); got != "plain text with spaces" {
		t.Errorf("plain text: got %q", got)
	}
	if got := StripHTML(""); got != "" {
		t.Errorf("empty input: got %q", got)
	}
}

func TestCleanItemTruncatesSummary(t *testing.T) {
	long := strings.Repeat("字", maxSummaryRunes+100)
	item := &NewsItem{
		Title:   " <b>Title here</b> ",
		URL:     " https://example.com/a ",
		Summary: long,
	}
	CleanItem(item)

	if item.Title != "Title here" {
		t.Errorf("Title = %q", item.Title)
	}
	if item.URL != "https://example.com/a" {
		t.Errorf("URL = %q", item.URL)
	}
	if n := len([]rune(item.Summary)); n != maxSummaryRunes {
		t.Errorf("summary runes = %d, want %d", n, maxSummaryRunes)
	}
}

func TestCrawlKeepsExistingCrawledAt(t *testing.T) {
	past := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := &stampedCrawler{at: past}

	items, _, err := Crawl(context.Background(), c)
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if !items[0].CrawledAt.Equal(past) {
		t.Errorf("CrawledAt = %v, want %v", items[0].CrawledAt, past)
	}
}

type stampedCrawler struct{ at time.Time }

func (s *stampedCrawler) Name() string { return "stamped" }
func (s *stampedCrawler) Type() string { return "fake" }
func (s *stampedCrawler) Fetch(ctx context.Context) ([]RawRecord, error) {
	return []RawRecord{{}}, nil
}
func (s *stampedCrawler) Parse(raw RawRecord) *NewsItem {
	return &NewsItem{Title: "Pre-stamped item title", URL: "https://example.com/s", CrawledAt: s.at}
}

func TestErrorKinds(t *testing.T) {
	err := &Error{Kind: KindConfig, Source: "srcA", Err: fmt.Errorf("bad field")}
	if KindOf(err) != KindConfig {
		t.Errorf("KindOf = %v, want KindConfig", KindOf(err))
	}
	wrapped := fmt.Errorf("outer: %w", err)
	if KindOf(wrapped) != KindConfig {
		t.Errorf("KindOf(wrapped) = %v, want KindConfig", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain error should map to KindUnknown")
	}
	if !strings.Contains(err.Error(), "srcA") || !strings.Contains(err.Error(), "config") {
		t.Errorf("error text %q should contain source and kind", err.Error())
	}
}
