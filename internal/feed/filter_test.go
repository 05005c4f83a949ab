package feed

import (
	"testing"

	"github.com/LJTian/NewsQuant/internal/scoring"
)

func TestRelevanceUnconfiguredProfileIsNeutral(t *testing.T) {
	d := Doc{Title: "Anything at all", Content: "body"}
	if got := Relevance(d, &scoring.Profile{}); got != 50 {
		t.Errorf("Relevance = %v, want neutral 50", got)
	}
	if got := Relevance(d, nil); got != 50 {
		t.Errorf("Relevance(nil profile) = %v, want 50", got)
	}
}

func TestRelevanceKeywordComponent(t *testing.T) {
	p := &scoring.Profile{
		Keywords: map[string]float64{"AI": 10},
	}

	// 标题命中拿满关键词分：10×2 / (10×2) ×100 = 100 → 整体 100
	title := Doc{Title: "AI breakthrough announced", Content: "details"}
	if got := Relevance(title, p); got != 100 {
		t.Errorf("title hit = %v, want 100", got)
	}

	// 正文命中只计原始权重：10 / 20 ×100 = 50
	content := Doc{Title: "Research update", Content: "progress on AI systems"}
	if got := Relevance(content, p); got != 50 {
		t.Errorf("content hit = %v, want 50", got)
	}

	// 只出现在新闻关键词列表里按半权计：5 / 20 ×100 = 25
	tagged := Doc{Title: "Weekly digest", Content: "misc", Keywords: []string{"ai"}}
	if got := Relevance(tagged, p); got != 25 {
		t.Errorf("tag hit = %v, want 25", got)
	}
}

func TestRelevanceBlendedComponents(t *testing.T) {
	p := &scoring.Profile{
		Keywords:   map[string]float64{"chips": 10},
		Industries: []string{"Semiconductor"},
		Categories: []string{"Hardware"},
		PreferredSources: map[string]float64{
			"TechCrunch": 2.0,
		},
	}
	d := Doc{
		Title:      "New chips unveiled",
		Content:    "The semiconductor industry keeps moving.",
		Source:     "TechCrunch",
		Categories: []string{"Semiconductor", "Hardware"},
	}

	// 关键词 100×0.4 + 行业 100×0.3 + 分类 100×0.2 + 来源 100×0.1，全权重 → 100
	if got := Relevance(d, p); got != 100 {
		t.Errorf("Relevance = %v, want 100", got)
	}

	// 未列入偏好表的来源按权重 1.0 → 50 分量
	d2 := d
	d2.Source = "Unknown Blog"
	got := Relevance(d2, p)
	// (40 + 30 + 20 + 50×0.1) / 1.0 = 95
	if got != 95 {
		t.Errorf("Relevance = %v, want 95", got)
	}
}

func TestRelevancePartialWeightNormalization(t *testing.T) {
	// 只配了行业时按 0.3 的权重归一化，不被稀释
	p := &scoring.Profile{Industries: []string{"Energy"}}
	d := Doc{Title: "Grid news", Categories: []string{"Energy"}}
	if got := Relevance(d, p); got != 100 {
		t.Errorf("Relevance = %v, want 100", got)
	}

	// 行业配置了但新闻没有分类：没有任何信号，中性 50
	empty := Doc{Title: "Grid news"}
	if got := Relevance(empty, p); got != 50 {
		t.Errorf("Relevance = %v, want 50", got)
	}
}

func TestRelevanceExcludedPenaltyOnce(t *testing.T) {
	p := &scoring.Profile{
		Keywords:         map[string]float64{"merger": 10},
		ExcludedKeywords: []string{"rumor", "gossip"},
	}
	d := Doc{Title: "Merger rumor spreads", Content: "gossip everywhere"}

	// 标题命中 100，两个排除词只扣一次 30
	if got := Relevance(d, p); got != 70 {
		t.Errorf("Relevance = %v, want 70", got)
	}
}

func TestRelevanceBlockedSourceIsZero(t *testing.T) {
	p := &scoring.Profile{
		Keywords:       map[string]float64{"AI": 10},
		BlockedSources: []string{"Spam Daily"},
	}
	d := Doc{Title: "AI news", Source: "Spam Daily"}
	if got := Relevance(d, p); got != 0 {
		t.Errorf("Relevance = %v, want 0 for blocked source", got)
	}
}

func TestRelevanceBounded(t *testing.T) {
	p := &scoring.Profile{
		Keywords:         map[string]float64{"x": 1},
		ExcludedKeywords: []string{"x"},
	}
	// 命中排除词后也不会落到 0 以下
	d := Doc{Title: "x marks the spot", Content: ""}
	got := Relevance(d, p)
	if got < 0 || got > 100 {
		t.Errorf("Relevance = %v out of [0,100]", got)
	}
}
