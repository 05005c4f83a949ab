package storage

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/LJTian/NewsQuant/internal/scoring"
)

// DefaultUserID 单用户部署下的缺省画像 ID
const DefaultUserID = "default"

// GetProfile 读取用户画像并转成评分层的结构，
// 没有配置记录时返回缺省画像
func (s *Store) GetProfile(userID string) (*scoring.Profile, error) {
	if userID == "" {
		userID = DefaultUserID
	}

	var row UserProfile
	if err := s.DB.Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scoring.DefaultProfile(), nil
		}
		return nil, err
	}

	p := scoring.DefaultProfile()

	if kw := jsonMapToFloats(row.Keywords); len(kw) > 0 {
		p.Keywords = kw
	}
	p.Industries = jsonToStrings(row.Industries)
	p.Categories = jsonToStrings(row.Categories)
	p.ExcludedKeywords = jsonToStrings(row.ExcludedKeywords)

	if row.AIWeight > 0 || row.RuleWeight > 0 {
		p.AIWeight = row.AIWeight
		p.RuleWeight = row.RuleWeight
	}

	if bias := jsonMapToKeywordBias(row.KeywordBias); len(bias) > 0 {
		p.KeywordBias = bias
	}
	if ps := jsonMapToFloats(row.PreferredSources); len(ps) > 0 {
		p.PreferredSources = ps
	}
	p.BlockedSources = jsonToStrings(row.BlockedSources)

	if row.PositionSensitivity > 0 {
		p.PositionSensitivity = row.PositionSensitivity
	}
	if row.MinScoreThreshold > 0 {
		p.MinScoreThreshold = row.MinScoreThreshold
	}

	return p, nil
}

func jsonMapToFloats(m map[string]any) map[string]float64 {
	out := map[string]float64{}
	for k, v := range m {
		switch n := v.(type) {
		case float64:
			out[k] = n
		case int:
			out[k] = float64(n)
		case json.Number:
			if f, err := n.Float64(); err == nil {
				out[k] = f
			}
		}
	}
	return out
}

func jsonMapToKeywordBias(m map[string]any) map[string]scoring.KeywordBias {
	out := map[string]scoring.KeywordBias{}
	for k, v := range m {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		kb := scoring.KeywordBias{}
		if b, ok := entry["bias"].(string); ok {
			kb.Bias = b
		}
		if mg, ok := entry["magnitude"].(float64); ok {
			kb.Magnitude = mg
		}
		out[k] = kb
	}
	return out
}
