package feed

import (
	"fmt"
	"sort"
	"time"

	"github.com/LJTian/NewsQuant/internal/scoring"
	"github.com/LJTian/NewsQuant/internal/storage"
)

// 信息流筛选模式
const (
	ModeAll        = "all"
	ModeImportant  = "important"
	ModeHighImpact = "high_impact"
)

const (
	feedWindowDays   = 7
	highImpactFloor  = 80.0
	overfetchFactor  = 2 // 多取一些，给相关度过滤留余量
)

// Item 信息流里的一条新闻，衰减分与关联度都是读取时实时算的
type Item struct {
	ID                uint       `json:"id"`
	Title             string     `json:"title"`
	Summary           string     `json:"summary"`
	Source            string     `json:"source"`
	URL               string     `json:"url"`
	PublishedAt       *time.Time `json:"publishedAt"`
	CrawledAt         time.Time  `json:"crawledAt"`
	FinalScore        float64    `json:"finalScore"`
	AIScore           float64    `json:"aiScore"`
	RuleScore         float64    `json:"ruleScore"`
	DecayedScore      float64    `json:"decayedScore"`
	RelevanceScore    float64    `json:"relevanceScore"`
	Sentiment         string     `json:"sentiment"`
	PositionBias      string     `json:"positionBias"`
	PositionMagnitude float64    `json:"positionMagnitude"`
	Keywords          []string   `json:"keywords"`
	Categories        []string   `json:"categories"`
}

// Service 信息流组装服务
type Service struct {
	store *storage.Store
	now   func() time.Time
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// List 产出个性化信息流：按模式过滤，按衰减分排序，再分页。
// 衰减分与关联度从不落库，每次读都重算以反映“现在”。
func (s *Service) List(mode, userID string, limit, offset int) ([]Item, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	switch mode {
	case "", ModeAll:
		mode = ModeAll
	case ModeImportant, ModeHighImpact:
	default:
		return nil, fmt.Errorf("unknown feed mode %q", mode)
	}

	profile, err := s.store.GetProfile(userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	since := s.now().AddDate(0, 0, -feedWindowDays)
	filter := storage.NewsFilter{
		Since: &since,
		Limit: (offset + limit) * overfetchFactor,
	}
	if mode == ModeImportant {
		threshold := profile.MinScoreThreshold
		filter.MinScore = &threshold
	}

	rows, err := s.store.QueryNews(filter)
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}

	items := make([]Item, 0, len(rows))
	for _, n := range rows {
		if mode == ModeHighImpact && n.MarketImpact < highImpactFloor {
			continue
		}

		relevance := Relevance(Doc{
			Title:      n.Title,
			Content:    n.Content,
			Summary:    n.Summary,
			Source:     n.Source,
			Keywords:   storage.JSONToStrings(n.Keywords),
			Categories: storage.JSONToStrings(n.Categories),
		}, profile)

		// 被屏蔽/排除到零分的不进信息流
		if relevance == 0 {
			continue
		}

		crawledAt := n.CrawledAt
		items = append(items, Item{
			ID:                n.ID,
			Title:             n.Title,
			Summary:           n.Summary,
			Source:            n.Source,
			URL:               n.URL,
			PublishedAt:       n.PublishedAt,
			CrawledAt:         n.CrawledAt,
			FinalScore:        n.FinalScore,
			AIScore:           n.AIScore,
			RuleScore:         n.RuleScore,
			DecayedScore:      scoring.DecayedScoreAt(n.FinalScore, crawledAt, scoring.DefaultHalfLifeHours, s.now()),
			RelevanceScore:    relevance,
			Sentiment:         n.Sentiment,
			PositionBias:      n.PositionBias,
			PositionMagnitude: n.PositionMagnitude,
			Keywords:          storage.JSONToStrings(n.Keywords),
			Categories:        storage.JSONToStrings(n.Categories),
		})
	}

	// 排序以衰减分为主，同分看关联度
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DecayedScore != items[j].DecayedScore {
			return items[i].DecayedScore > items[j].DecayedScore
		}
		return items[i].RelevanceScore > items[j].RelevanceScore
	})

	if offset >= len(items) {
		return []Item{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}
