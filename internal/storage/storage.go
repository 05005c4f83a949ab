package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/LJTian/NewsQuant/internal/crawler"
	"github.com/LJTian/NewsQuant/internal/scoring"
)

// News 新闻表。URL 唯一索引是去重的最终防线：
// 单进程内靠批内去重 + ExistsByURL，扩展到多实例时靠这里的唯一约束。
type News struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"size:512" json:"title"`
	URL     string `gorm:"size:1024;uniqueIndex" json:"url"`
	Source  string `gorm:"size:128;index" json:"source"`
	Author  string `gorm:"size:256" json:"author"`
	Content string `gorm:"type:text" json:"content"`
	Summary string `gorm:"size:600" json:"summary"`

	PublishedAt *time.Time `gorm:"index" json:"publishedAt"`
	CrawledAt   time.Time  `gorm:"index" json:"crawledAt"`

	Categories datatypes.JSON    `gorm:"type:jsonb" json:"categories"`
	Tags       datatypes.JSON    `gorm:"type:jsonb" json:"tags"`
	Keywords   datatypes.JSON    `gorm:"type:jsonb" json:"keywords"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`

	// 评分：入库时生成，重分析时整体覆盖
	FinalScore     float64           `gorm:"index" json:"finalScore"`
	AIScore        float64           `json:"aiScore"`
	RuleScore      float64           `json:"ruleScore"`
	ScoreBreakdown datatypes.JSONMap `gorm:"type:jsonb" json:"scoreBreakdown"`

	// Oracle 语义维度（缺失时为中性 50）
	Sentiment         string  `gorm:"size:16" json:"sentiment"`
	MarketImpact      float64 `json:"marketImpact"`
	IndustryRelevance float64 `json:"industryRelevance"`
	NoveltyScore      float64 `json:"noveltyScore"`
	Urgency           float64 `json:"urgency"`

	PositionBias      string  `gorm:"size:16;index" json:"positionBias"`
	PositionMagnitude float64 `json:"positionMagnitude"`

	IsPushed   bool       `gorm:"index" json:"isPushed"`
	AnalyzedAt *time.Time `json:"analyzedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Source 信息源配置表。配置字段由外部配置方维护，
// 采集核心只更新统计字段（最后抓取时间与成败计数）。
type Source struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	Name            string            `gorm:"size:128;uniqueIndex" json:"name"`
	CrawlerType     string            `gorm:"size:32" json:"crawlerType"`
	SourceURL       string            `gorm:"size:1024" json:"sourceUrl"`
	IsActive        bool              `gorm:"index" json:"isActive"`
	IntervalSeconds int               `json:"intervalSeconds"`
	Priority        int               `json:"priority"`
	CustomConfig    datatypes.JSONMap `gorm:"type:jsonb" json:"customConfig"`

	LastCrawledAt *time.Time `json:"lastCrawledAt"`
	LastSuccessAt *time.Time `json:"lastSuccessAt"`
	LastError     string     `gorm:"type:text" json:"lastError"`
	SuccessCount  int64      `json:"successCount"`
	ErrorCount    int64      `json:"errorCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToCrawlerConfig 转成采集层的配置结构
func (s *Source) ToCrawlerConfig() crawler.SourceConfig {
	return crawler.SourceConfig{
		Name:            s.Name,
		Type:            s.CrawlerType,
		SourceURL:       s.SourceURL,
		IsActive:        s.IsActive,
		IntervalSeconds: s.IntervalSeconds,
		Priority:        s.Priority,
		Custom:          map[string]any(s.CustomConfig),
	}
}

// UserProfile 用户画像表，评分与个性化筛选的只读输入
type UserProfile struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"size:64;uniqueIndex" json:"userId"`

	Keywords         datatypes.JSONMap `gorm:"type:jsonb" json:"keywords"` // 关键词 -> 权重
	Industries       datatypes.JSON    `gorm:"type:jsonb" json:"industries"`
	Categories       datatypes.JSON    `gorm:"type:jsonb" json:"categories"`
	ExcludedKeywords datatypes.JSON    `gorm:"type:jsonb" json:"excludedKeywords"`

	AIWeight   float64 `json:"aiWeight"`
	RuleWeight float64 `json:"ruleWeight"`

	KeywordBias      datatypes.JSONMap `gorm:"type:jsonb" json:"keywordBias"` // 关键词 -> {bias, magnitude}
	PreferredSources datatypes.JSONMap `gorm:"type:jsonb" json:"preferredSources"`
	BlockedSources   datatypes.JSON    `gorm:"type:jsonb" json:"blockedSources"`

	PositionSensitivity float64 `json:"positionSensitivity"`
	MinScoreThreshold   float64 `json:"minScoreThreshold"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&News{}, &Source{}, &UserProfile{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// ExistsByURL 判断某条 URL 是否已入库
func (s *Store) ExistsByURL(url string) (bool, error) {
	var count int64
	if err := s.DB.Model(&News{}).Where("url = ?", url).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveScored 写入一条已评分的新闻。URL 作为幂等键，已存在则忽略不重插。
func (s *Store) SaveScored(item crawler.NewsItem, res scoring.ScoreResult, ai *scoring.Analysis, pos scoring.Assessment) (*News, error) {
	now := time.Now().UTC()
	n := &News{
		Title:       toValidUTF8(item.Title),
		URL:         item.URL,
		Source:      item.Source,
		Author:      item.Author,
		Content:     toValidUTF8(item.Content),
		Summary:     truncateRunesDB(toValidUTF8(item.Summary), 600),
		PublishedAt: item.PublishedAt,
		CrawledAt:   item.CrawledAt,
		Categories:  toJSONList(item.Categories),
		Tags:        toJSONList(item.Tags),
		Metadata:    datatypes.JSONMap(item.Metadata),
		AnalyzedAt:  &now,
	}
	applyScore(n, res, ai, pos)

	if err := s.DB.Where("url = ?", item.URL).FirstOrCreate(n).Error; err != nil {
		return nil, fmt.Errorf("save news %s: %w", item.URL, err)
	}
	return n, nil
}

// UpdateScore 重分析：对已入库的新闻覆盖写入新的评分结果
func (s *Store) UpdateScore(newsID uint, res scoring.ScoreResult, ai *scoring.Analysis, pos scoring.Assessment) error {
	var n News
	if err := s.DB.First(&n, newsID).Error; err != nil {
		return err
	}
	applyScore(&n, res, ai, pos)
	now := time.Now().UTC()
	n.AnalyzedAt = &now
	return s.DB.Save(&n).Error
}

func applyScore(n *News, res scoring.ScoreResult, ai *scoring.Analysis, pos scoring.Assessment) {
	n.FinalScore = res.FinalScore
	n.AIScore = res.AIScore
	n.RuleScore = res.RuleScore

	if bs, err := json.Marshal(res.Breakdown); err == nil {
		var m map[string]any
		if err := json.Unmarshal(bs, &m); err == nil {
			n.ScoreBreakdown = datatypes.JSONMap(m)
		}
	}

	if ai != nil {
		n.Sentiment = ai.Sentiment
		n.MarketImpact = floatOr50(ai.MarketImpact)
		n.IndustryRelevance = floatOr50(ai.IndustryRelevance)
		n.NoveltyScore = floatOr50(ai.NoveltyScore)
		n.Urgency = floatOr50(ai.Urgency)
		n.Keywords = toJSONList(ai.Keywords)
		if len(ai.Categories) > 0 && len(n.Categories) == 0 {
			n.Categories = toJSONList(ai.Categories)
		}
		if ai.Summary != "" && n.Summary == "" {
			n.Summary = truncateRunesDB(ai.Summary, 600)
		}
	}

	n.PositionBias = pos.Bias
	n.PositionMagnitude = pos.Magnitude
}

// GetNewsByID 按主键取单条新闻
func (s *Store) GetNewsByID(id uint) (*News, error) {
	var n News
	if err := s.DB.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// MarkPushed 标记新闻已推送
func (s *Store) MarkPushed(id uint) error {
	return s.DB.Model(&News{}).Where("id = ?", id).Update("is_pushed", true).Error
}

// ---------- 查询 ----------

// NewsFilter 新闻查询条件
type NewsFilter struct {
	Source   string
	Keyword  string
	Category string
	MinScore *float64
	MaxScore *float64
	Pushed   *bool
	Bias     string
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

// QueryNews 按条件分页查询新闻，常用的信息流读路径走 Redis 短缓存
func (s *Store) QueryNews(f NewsFilter) ([]News, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}

	ctx := context.Background()
	cacheKey := newsCacheKey(f)

	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []News
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	db := s.DB.Model(&News{})
	if f.Source != "" {
		db = db.Where("source = ?", f.Source)
	}
	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		db = db.Where("title ILIKE ? OR content ILIKE ?", like, like)
	}
	if f.Category != "" {
		db = db.Where("categories::text ILIKE ?", "%"+f.Category+"%")
	}
	if f.MinScore != nil {
		db = db.Where("final_score >= ?", *f.MinScore)
	}
	if f.MaxScore != nil {
		db = db.Where("final_score <= ?", *f.MaxScore)
	}
	if f.Pushed != nil {
		db = db.Where("is_pushed = ?", *f.Pushed)
	}
	if f.Bias != "" {
		db = db.Where("position_bias = ?", f.Bias)
	}
	if f.Since != nil {
		db = db.Where("crawled_at >= ?", *f.Since)
	}
	if f.Until != nil {
		db = db.Where("crawled_at <= ?", *f.Until)
	}

	var list []News
	err := db.Order("final_score DESC").Order("crawled_at DESC").
		Offset(f.Offset).Limit(f.Limit).Find(&list).Error
	if err != nil {
		return nil, err
	}

	// 回写缓存（2 分钟，读路径抖动小，衰减排序由上层实时计算）
	const queryCacheTTL = 2 * time.Minute
	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, queryCacheTTL).Err()
		}
	}

	return list, nil
}

func newsCacheKey(f NewsFilter) string {
	minScore, maxScore := "", ""
	if f.MinScore != nil {
		minScore = fmt.Sprintf("%.2f", *f.MinScore)
	}
	if f.MaxScore != nil {
		maxScore = fmt.Sprintf("%.2f", *f.MaxScore)
	}
	pushed := ""
	if f.Pushed != nil {
		pushed = fmt.Sprintf("%t", *f.Pushed)
	}
	// 时间窗按分钟取整，和 2 分钟的 TTL 同量级，保证窗口滑动时能命中
	since, until := "", ""
	if f.Since != nil {
		since = f.Since.Truncate(time.Minute).Format("200601021504")
	}
	if f.Until != nil {
		until = f.Until.Truncate(time.Minute).Format("200601021504")
	}
	return fmt.Sprintf("news:q:%s:%s:%s:%s:%s:%s:%s:%s:%s:%d:%d",
		f.Source, f.Keyword, f.Category, minScore, maxScore, pushed, f.Bias, since, until, f.Limit, f.Offset)
}
