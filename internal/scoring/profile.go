package scoring

// KeywordBias 某个关键词在用户配置里的方向与力度
type KeywordBias struct {
	Bias      string  `json:"bias"`
	Magnitude float64 `json:"magnitude"`
}

// Profile 用户画像配置：评分权重、关注的关键词 / 行业 / 分类、
// 来源偏好与多空倾向。由外部配置方维护，这里只读。
type Profile struct {
	Keywords         map[string]float64
	Industries       []string
	Categories       []string
	ExcludedKeywords []string

	AIWeight   float64
	RuleWeight float64

	KeywordBias      map[string]KeywordBias
	PreferredSources map[string]float64
	BlockedSources   []string

	PositionSensitivity float64
	MinScoreThreshold   float64
}

// DefaultProfile 返回缺省画像：AI/规则权重 0.6/0.4，敏感度 1.0
func DefaultProfile() *Profile {
	return &Profile{
		Keywords:            map[string]float64{},
		KeywordBias:         map[string]KeywordBias{},
		PreferredSources:    map[string]float64{},
		AIWeight:            0.6,
		RuleWeight:          0.4,
		PositionSensitivity: 1.0,
		MinScoreThreshold:   60,
	}
}
