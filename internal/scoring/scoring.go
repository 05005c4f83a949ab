package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/LJTian/NewsQuant/internal/crawler"
)

// AI 综合分里各维度的权重
const (
	marketImpactWeight      = 0.30
	industryRelevanceWeight = 0.25
	noveltyWeight           = 0.25
	urgencyWeight           = 0.20
)

const (
	neutralScore        = 50.0
	ruleContentMaxBytes = 2000 // 规则匹配只看正文前 2000 字符
	industryBonus       = 15.0
	excludedPenalty     = 30.0
)

// sourceBonuses 高可信来源的固定加分，名称子串匹配，先命中者生效
var sourceBonuses = []struct {
	Name  string
	Bonus float64
}{
	{"reuters", 20},
	{"bloomberg", 20},
	{"arxiv", 18},
	{"techcrunch", 15},
	{"the verge", 15},
	{"github", 12},
}

// KeywordMatch 规则分里单个关键词的命中详情
type KeywordMatch struct {
	Keyword  string  `json:"keyword"`
	Weight   float64 `json:"weight"`
	Location string  `json:"location"` // title / content
}

// Breakdown 评分明细，用于可解释性展示与测试
type Breakdown struct {
	KeywordMatches  []KeywordMatch `json:"keyword_matches"`
	IndustryMatches []string       `json:"industry_matches"`
	SourceBonus     float64        `json:"source_bonus"`
	RecencyBonus    float64        `json:"recency_bonus"`
	ExcludedPenalty float64        `json:"excluded_penalty"`
	AIComponent     *Analysis      `json:"ai_component,omitempty"`
}

// ScoreResult 一条新闻的最终评分，入库时生成，可按需重算但不增量更新
type ScoreResult struct {
	FinalScore float64   `json:"final_score"`
	AIScore    float64   `json:"ai_score"`
	RuleScore  float64   `json:"rule_score"`
	Breakdown  Breakdown `json:"breakdown"`
}

// Engine 量化评分引擎：规则分 + 外部 AI 分加权合成
type Engine struct {
	profile *Profile
	now     func() time.Time
}

// NewEngine 按用户画像构造评分引擎，profile 为 nil 时用缺省画像
func NewEngine(profile *Profile) *Engine {
	if profile == nil {
		profile = DefaultProfile()
	}
	return &Engine{profile: profile, now: time.Now}
}

// CalculateFinalScore 计算最终综合评分：
// final = ai_score×ai_weight + rule_score×rule_weight，各分量都在 [0,100]
func (e *Engine) CalculateFinalScore(ai *Analysis, item *crawler.NewsItem) ScoreResult {
	aiScore := aiComposite(ai)
	ruleScore, breakdown := e.ruleScore(item)
	breakdown.AIComponent = ai

	aiWeight, ruleWeight := e.weights()
	final := clamp(aiScore*aiWeight + ruleScore*ruleWeight)

	return ScoreResult{
		FinalScore: round2(final),
		AIScore:    round2(aiScore),
		RuleScore:  round2(ruleScore),
		Breakdown:  breakdown,
	}
}

func (e *Engine) weights() (float64, float64) {
	aiW, ruleW := e.profile.AIWeight, e.profile.RuleWeight
	if aiW == 0 && ruleW == 0 {
		return 0.6, 0.4
	}
	return aiW, ruleW
}

// aiComposite AI 综合分：各维度加权和，缺失维度按中性 50 计
func aiComposite(ai *Analysis) float64 {
	if ai == nil {
		return neutralScore
	}
	return dim(ai.MarketImpact)*marketImpactWeight +
		dim(ai.IndustryRelevance)*industryRelevanceWeight +
		dim(ai.NoveltyScore)*noveltyWeight +
		dim(ai.Urgency)*urgencyWeight
}

func dim(v *float64) float64 {
	if v == nil {
		return neutralScore
	}
	return *v
}

// ruleScore 规则评分：关键词、行业、来源、时效与排除词
func (e *Engine) ruleScore(item *crawler.NewsItem) (float64, Breakdown) {
	var bd Breakdown
	score := 0.0

	title := strings.ToLower(item.Title)
	content := strings.ToLower(item.Content)
	if len(content) > ruleContentMaxBytes {
		content = content[:ruleContentMaxBytes]
	}

	// 1. 关键词匹配：标题命中权重翻倍，正文命中计原始权重
	for keyword, weight := range e.profile.Keywords {
		kw := strings.ToLower(keyword)
		if strings.Contains(title, kw) {
			score += weight * 2
			bd.KeywordMatches = append(bd.KeywordMatches, KeywordMatch{Keyword: keyword, Weight: weight * 2, Location: "title"})
		} else if strings.Contains(content, kw) {
			score += weight
			bd.KeywordMatches = append(bd.KeywordMatches, KeywordMatch{Keyword: keyword, Weight: weight, Location: "content"})
		}
	}

	// 2. 行业匹配
	for _, industry := range e.profile.Industries {
		if containsFold(item.Categories, industry) {
			score += industryBonus
			bd.IndustryMatches = append(bd.IndustryMatches, industry)
		}
	}

	// 3. 来源加分：子串匹配，先命中者生效
	source := strings.ToLower(item.Source)
	for _, sb := range sourceBonuses {
		if strings.Contains(source, sb.Name) {
			score += sb.Bonus
			bd.SourceBonus = sb.Bonus
			break
		}
	}

	// 4. 时效加分
	if item.PublishedAt != nil {
		hours := e.now().Sub(*item.PublishedAt).Hours()
		switch {
		case hours >= 0 && hours < 1:
			bd.RecencyBonus = 10
		case hours >= 1 && hours < 6:
			bd.RecencyBonus = 5
		}
		score += bd.RecencyBonus
	}

	// 5. 排除关键词：命中一次即扣 30，只扣一次
	fullText := title + " " + content
	for _, excluded := range e.profile.ExcludedKeywords {
		if strings.Contains(fullText, strings.ToLower(excluded)) {
			score -= excludedPenalty
			bd.ExcludedPenalty = excludedPenalty
			break
		}
	}

	return clamp(score), bd
}

// ShouldPush 判断分数是否达到推送阈值
func (e *Engine) ShouldPush(finalScore float64) bool {
	threshold := e.profile.MinScoreThreshold
	if threshold == 0 {
		threshold = 60
	}
	return finalScore >= threshold
}

// Priority 按分数给出优先级档位
func Priority(finalScore float64) string {
	switch {
	case finalScore >= 85:
		return "high"
	case finalScore >= 70:
		return "medium"
	default:
		return "low"
	}
}

func containsFold(list []string, target string) bool {
	for _, s := range list {
		if strings.Contains(strings.ToLower(s), strings.ToLower(target)) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
