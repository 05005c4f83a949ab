// Package feed 负责读路径：按用户画像计算关联度、
// 套用排除与屏蔽策略，再按时间衰减分排序产出信息流。
package feed

import (
	"math"
	"strings"

	"github.com/LJTian/NewsQuant/internal/scoring"
)

const relevancePenalty = 30.0

// Doc 关联度计算需要的新闻视图，与存储模型解耦便于测试
type Doc struct {
	Title      string
	Content    string
	Summary    string
	Source     string
	Keywords   []string
	Categories []string
}

// Relevance 计算新闻与用户画像的关联度，返回 [0,100]。
//
// 加权混合：关键词 40%（标题命中翻倍，关键词表命中折半，按画像总权重×2
// 归一化）、行业 30%、分类 20%、来源偏好 10%（权重 1.0→50、2.0→100）。
// 画像完全未配置时返回中性 50。混合后排除关键词命中扣 30（只扣一次），
// 来源被屏蔽直接归零。
func Relevance(d Doc, p *scoring.Profile) float64 {
	if p == nil {
		return 50
	}

	score := 0.0
	totalWeight := 0.0

	newsText := strings.ToLower(d.Title + " " + d.Content + " " + d.Summary)
	title := strings.ToLower(d.Title)
	newsKeywords := lowerAll(d.Keywords)

	// 1. 关键词匹配（40%）
	if len(p.Keywords) > 0 {
		keywordScore := 0.0
		maxPossible := 0.0
		for keyword, weight := range p.Keywords {
			maxPossible += weight * 2
			kw := strings.ToLower(keyword)
			if strings.Contains(newsText, kw) {
				if strings.Contains(title, kw) {
					keywordScore += weight * 2
				} else {
					keywordScore += weight
				}
			} else if containsString(newsKeywords, kw) {
				keywordScore += weight * 0.5
			}
		}
		if maxPossible > 0 {
			keywordScore = math.Min(100, keywordScore/maxPossible*100)
		}
		score += keywordScore * 0.4
		totalWeight += 0.4
	}

	// 2. 行业匹配（30%）：画像行业出现在新闻分类里的比例
	if len(p.Industries) > 0 && len(d.Categories) > 0 {
		score += matchFraction(p.Industries, d.Categories) * 0.3
		totalWeight += 0.3
	}

	// 3. 分类匹配（20%）
	if len(p.Categories) > 0 && len(d.Categories) > 0 {
		score += matchFraction(p.Categories, d.Categories) * 0.2
		totalWeight += 0.2
	}

	// 4. 来源偏好（10%）：1.0 映射到 50，2.0 映射到 100
	if len(p.PreferredSources) > 0 && d.Source != "" {
		sourceWeight, ok := p.PreferredSources[d.Source]
		if !ok {
			sourceWeight = 1.0
		}
		score += math.Min(100, sourceWeight*50) * 0.1
		totalWeight += 0.1
	}

	// 没有任何配置信号时返回中性分
	if totalWeight == 0 {
		return 50
	}
	final := score / totalWeight

	// 5. 排除关键词惩罚，只扣一次
	if len(p.ExcludedKeywords) > 0 {
		text := strings.ToLower(d.Title + " " + d.Content)
		for _, excluded := range p.ExcludedKeywords {
			if strings.Contains(text, strings.ToLower(excluded)) {
				final -= relevancePenalty
				break
			}
		}
	}

	// 6. 屏蔽来源直接归零
	for _, blocked := range p.BlockedSources {
		if d.Source == blocked {
			return 0
		}
	}

	return math.Max(0, math.Min(100, final))
}

// matchFraction 返回 wanted 中出现在 got 里的比例（0-100）
func matchFraction(wanted, got []string) float64 {
	hit := 0.0
	for _, w := range wanted {
		for _, g := range got {
			if strings.Contains(strings.ToLower(g), strings.ToLower(w)) {
				hit++
				break
			}
		}
	}
	return math.Min(100, hit/float64(len(wanted))*100)
}

func lowerAll(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = strings.ToLower(s)
	}
	return out
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
