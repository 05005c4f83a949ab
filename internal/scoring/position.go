package scoring

import "math"

// 多空方向
const (
	BiasBullish = "bullish"
	BiasBearish = "bearish"
	BiasNeutral = "neutral"
)

// 敏感度允许区间，超出的输入使用前先收敛到区间内
const (
	minSensitivity = 0.1
	maxSensitivity = 3.0
)

// Assessment 多空评估结果：方向 + 力度。
// 纯派生值，永远由输入重算，不单独修改。
type Assessment struct {
	Bias      string  `json:"bias"`
	Magnitude float64 `json:"magnitude"`
}

// AssessPosition 由情绪、市场影响分与关键词多空配置推导方向与力度。
//
// base 从 50 出发，情绪占 70%，市场影响偏离中性的部分再乘 0.3 叠加，
// 命中的关键词按配置方向取符号求平均后乘 0.4 叠加；最后用敏感度放大
// 偏离量并收敛到 [0,100]。
func AssessPosition(sentiment string, marketImpact float64, matchedKeywords []string, biasConfig map[string]KeywordBias, sensitivity float64) Assessment {
	base := neutralScore

	sentimentScore := neutralScore
	switch sentiment {
	case "positive":
		sentimentScore = 70
	case "negative":
		sentimentScore = 30
	}
	base = base*0.3 + sentimentScore*0.7

	base += (marketImpact - neutralScore) * 0.3

	// 关键词多空：bullish 取 +magnitude，bearish 取 -magnitude，求平均
	if len(biasConfig) > 0 {
		sum, n := 0.0, 0
		for _, kw := range matchedKeywords {
			cfg, ok := biasConfig[kw]
			if !ok {
				continue
			}
			switch cfg.Bias {
			case BiasBullish:
				sum += cfg.Magnitude
				n++
			case BiasBearish:
				sum -= cfg.Magnitude
				n++
			}
		}
		if n > 0 {
			base += (sum / float64(n)) * 0.4
		}
	}

	// 敏感度使用前收敛到 [0.1, 3.0]，越界配置不放大偏离
	if sensitivity < minSensitivity {
		sensitivity = minSensitivity
	} else if sensitivity > maxSensitivity {
		sensitivity = maxSensitivity
	}

	adjusted := neutralScore + (base-neutralScore)*sensitivity
	adjusted = clamp(adjusted)

	bias := BiasNeutral
	switch {
	case adjusted >= 55:
		bias = BiasBullish
	case adjusted <= 45:
		bias = BiasBearish
	}

	// 力度用 logistic 变换压缩：多数距离落在 20–80 的展示区间，
	// 不让原始距离线性放大
	distance := math.Abs(adjusted - neutralScore)
	magnitude := 100 / (1 + math.Exp(-distance/15+2))

	return Assessment{
		Bias:      bias,
		Magnitude: round1(clamp(magnitude)),
	}
}
