package crawler

import (
	"testing"
	"time"
)

func newTestFeedCrawler(t *testing.T) *FeedCrawler {
	t.Helper()
	c, err := NewFeedCrawler(SourceConfig{
		Name:            "test_feed",
		Type:            TypeFeed,
		SourceURL:       "https://example.com/rss",
		IsActive:        true,
		IntervalSeconds: 600,
		Priority:        5,
	})
	if err != nil {
		t.Fatalf("NewFeedCrawler error: %v", err)
	}
	return c
}

func TestFeedCrawlerRequiresScheme(t *testing.T) {
	_, err := NewFeedCrawler(SourceConfig{
		Name:            "bad_feed",
		Type:            TypeFeed,
		SourceURL:       "example.com/rss",
		IntervalSeconds: 600,
		Priority:        5,
	})
	if err == nil {
		t.Fatal("expected config error for url without scheme")
	}
	if KindOf(err) != KindConfig {
		t.Errorf("KindOf = %v, want KindConfig", KindOf(err))
	}
}

func TestFeedParsePrefersParsedTime(t *testing.T) {
	f := newTestFeedCrawler(t)
	parsed := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

	item := f.Parse(RawRecord{
		"title":            "Story with a parsed timestamp",
		"link":             "https://example.com/a",
		"published":        "garbage that would not parse",
		"published_parsed": parsed,
	})
	if item == nil {
		t.Fatal("Parse returned nil")
	}
	if item.PublishedAt == nil || !item.PublishedAt.Equal(parsed) {
		t.Errorf("PublishedAt = %v, want %v", item.PublishedAt, parsed)
	}
}

func TestFeedParseTimeFallbackChain(t *testing.T) {
	f := newTestFeedCrawler(t)

	tests := []struct {
		published string
		wantNil   bool
	}{
		{"Tue, 10 Jun 2025 08:30:00 +0000", false},
		{"Tue, 10 Jun 2025 08:30:00 UTC", false},
		{"2025-06-10T08:30:00", false},
		{"2025-06-10", false},
		{"not a date at all", true},
		{"", true},
	}
	for _, tt := range tests {
		item := f.Parse(RawRecord{
			"title":     "Fallback chain test entry",
			"link":      "https://example.com/t",
			"published": tt.published,
		})
		if item == nil {
			t.Fatalf("Parse returned nil for %q", tt.published)
		}
		if gotNil := item.PublishedAt == nil; gotNil != tt.wantNil {
			t.Errorf("published %q: PublishedAt nil = %v, want %v", tt.published, gotNil, tt.wantNil)
		}
	}
}

func TestFeedParseContentFallback(t *testing.T) {
	f := newTestFeedCrawler(t)

	// 富文本 content 优先，description 做摘要
	item := f.Parse(RawRecord{
		"title":       "Entry with rich content",
		"link":        "https://example.com/rich",
		"description": "short summary",
		"content":     "full rich body",
	})
	if item.Content != "full rich body" {
		t.Errorf("Content = %q, want rich body", item.Content)
	}
	if item.Summary != "short summary" {
		t.Errorf("Summary = %q", item.Summary)
	}

	// content 缺失时退回 description
	item = f.Parse(RawRecord{
		"title":       "Entry with description only",
		"link":        "https://example.com/desc",
		"description": "only the description",
	})
	if item.Content != "only the description" {
		t.Errorf("Content = %q, want description fallback", item.Content)
	}
}

func TestFeedParseRejectsIncomplete(t *testing.T) {
	f := newTestFeedCrawler(t)

	if item := f.Parse(RawRecord{"title": "No link here"}); item != nil {
		t.Errorf("missing link: got %+v, want nil", item)
	}
	if item := f.Parse(RawRecord{"link": "https://example.com/x"}); item != nil {
		t.Errorf("missing title: got %+v, want nil", item)
	}
}
