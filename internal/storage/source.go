package storage

import (
	"errors"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListSources 返回信息源配置，activeOnly 为 true 时只返回启用的
func (s *Store) ListSources(activeOnly bool) ([]Source, error) {
	var sources []Source
	db := s.DB.Order("priority DESC").Order("name ASC")
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	if err := db.Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

// GetSourceByName 按名字取单个信息源，不存在时返回 nil
func (s *Store) GetSourceByName(name string) (*Source, error) {
	var src Source
	if err := s.DB.Where("name = ?", name).First(&src).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &src, nil
}

// EnsureSource 确保某个信息源存在，已存在则原样返回
func (s *Store) EnsureSource(name, crawlerType, sourceURL string, intervalSeconds, priority int, custom map[string]any) (*Source, error) {
	src := &Source{}
	if err := s.DB.Where("name = ?", name).First(src).Error; err == nil {
		return src, nil
	}

	src = &Source{
		Name:            name,
		CrawlerType:     crawlerType,
		SourceURL:       sourceURL,
		IsActive:        true,
		IntervalSeconds: intervalSeconds,
		Priority:        priority,
		CustomConfig:    datatypes.JSONMap(custom),
	}
	if err := s.DB.Create(src).Error; err != nil {
		return nil, err
	}
	return src, nil
}

// UpdateStats 回写某个源的统计：最后抓取时间、成败计数与最近错误。
// 采集核心对源配置只写这几个字段。
func (s *Store) UpdateStats(name string, success bool, errMsg string) {
	now := time.Now().UTC()
	updates := map[string]any{
		"last_crawled_at": now,
	}
	if success {
		updates["last_success_at"] = now
		updates["last_error"] = ""
		updates["success_count"] = gorm.Expr("success_count + 1")
	} else {
		updates["last_error"] = errMsg
		updates["error_count"] = gorm.Expr("error_count + 1")
	}

	if err := s.DB.Model(&Source{}).Where("name = ?", name).Updates(updates).Error; err != nil {
		log.Printf("update stats for %s error: %v", name, err)
	}
}
