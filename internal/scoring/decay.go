package scoring

import (
	"math"
	"time"
)

// DefaultHalfLifeHours 时间衰减半衰期缺省值
const DefaultHalfLifeHours = 24.0

// DecayedScore 对最终分做指数时间衰减，用于信息流排序：
//
//	decayed = final × e^(−经过小时数 / 半衰期)
//
// 只在读取时计算，从不落库，保证排序永远反映“现在”。
// crawledAt 缺失时原样返回 final。
func DecayedScore(finalScore float64, crawledAt *time.Time, halfLifeHours float64) float64 {
	if crawledAt == nil || crawledAt.IsZero() {
		return finalScore
	}
	return DecayedScoreAt(finalScore, *crawledAt, halfLifeHours, time.Now())
}

// DecayedScoreAt 在指定的“现在”计算衰减分，便于测试固定时间点
func DecayedScoreAt(finalScore float64, crawledAt time.Time, halfLifeHours float64, now time.Time) float64 {
	if halfLifeHours <= 0 {
		halfLifeHours = DefaultHalfLifeHours
	}
	hours := now.Sub(crawledAt).Hours()
	if hours <= 0 {
		return round2(finalScore)
	}
	return round2(finalScore * math.Exp(-hours/halfLifeHours))
}
