package crawler

import (
	"fmt"
	"strings"
)

// 内置的采集器类型
const (
	TypeFeed       = "feed"
	TypePage       = "page"
	TypeSinglePage = "single_page"
	TypeAPI        = "api"
	TypeCustom     = "custom"
)

const (
	defaultTimeoutSeconds = 30
	minIntervalSeconds    = 60
)

// SourceConfig 一个信息源的通用配置。Custom 里是各类型自己的配置，
// 由对应采集器在构造时解码为强类型结构并校验，而不是在抓取途中逐层取值。
type SourceConfig struct {
	Name            string
	Type            string
	SourceURL       string
	IsActive        bool
	IntervalSeconds int
	Priority        int
	Custom          map[string]any
}

// Validate 校验通用字段，构造采集器前调用
func (c *SourceConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewConfigError(c.Name, "source name is empty")
	}
	if c.IntervalSeconds < minIntervalSeconds {
		return NewConfigError(c.Name, "interval_seconds %d < %d", c.IntervalSeconds, minIntervalSeconds)
	}
	if c.Priority < 1 || c.Priority > 10 {
		return NewConfigError(c.Name, "priority %d out of range [1,10]", c.Priority)
	}
	return nil
}

// ---------- 各类型的强类型配置 ----------

// FeedConfig RSS/Atom 源配置
type FeedConfig struct {
	TimeoutSeconds int
}

// PageConfig 网页列表源配置：先抓列表页提取文章链接，再逐篇抓正文
type PageConfig struct {
	ArticleSelector string
	MaxArticles     int
	TimeoutSeconds  int
}

// APIConfig 结构化 API 源配置
type APIConfig struct {
	Method         string
	Headers        map[string]string
	Params         map[string]string
	APIKey         string
	DataPath       string
	FieldMapping   map[string]string
	TimeoutSeconds int
}

// CustomConfig 自定义源配置：要么引用已注册的插件名，要么给出子进程命令
type CustomConfig struct {
	Plugin         string
	Command        []string
	TimeoutSeconds int
}

func decodeFeedConfig(c SourceConfig) (FeedConfig, error) {
	if !hasHTTPScheme(c.SourceURL) {
		return FeedConfig{}, NewConfigError(c.Name, "feed source_url %q missing http(s) scheme", c.SourceURL)
	}
	return FeedConfig{TimeoutSeconds: intOr(c.Custom, "timeout", defaultTimeoutSeconds)}, nil
}

func decodePageConfig(c SourceConfig) (PageConfig, error) {
	if !hasHTTPScheme(c.SourceURL) {
		return PageConfig{}, NewConfigError(c.Name, "page source_url %q missing http(s) scheme", c.SourceURL)
	}
	cfg := PageConfig{
		ArticleSelector: stringOr(c.Custom, "article_selector", "a"),
		MaxArticles:     intOr(c.Custom, "max_articles", 10),
		TimeoutSeconds:  intOr(c.Custom, "timeout", defaultTimeoutSeconds),
	}
	if cfg.MaxArticles <= 0 {
		return PageConfig{}, NewConfigError(c.Name, "max_articles must be positive, got %d", cfg.MaxArticles)
	}
	return cfg, nil
}

func decodeAPIConfig(c SourceConfig) (APIConfig, error) {
	if !hasHTTPScheme(c.SourceURL) {
		return APIConfig{}, NewConfigError(c.Name, "api source_url %q missing http(s) scheme", c.SourceURL)
	}
	cfg := APIConfig{
		Method:         strings.ToUpper(stringOr(c.Custom, "method", "GET")),
		Headers:        stringMapOr(c.Custom, "headers"),
		Params:         stringMapOr(c.Custom, "params"),
		APIKey:         stringOr(c.Custom, "api_key", ""),
		DataPath:       stringOr(c.Custom, "data_path", "articles"),
		FieldMapping:   stringMapOr(c.Custom, "field_mapping"),
		TimeoutSeconds: intOr(c.Custom, "timeout", defaultTimeoutSeconds),
	}
	if cfg.Method != "GET" && cfg.Method != "POST" {
		return APIConfig{}, NewConfigError(c.Name, "unsupported method %q", cfg.Method)
	}
	return cfg, nil
}

func decodeCustomConfig(c SourceConfig) (CustomConfig, error) {
	cfg := CustomConfig{
		Plugin:         stringOr(c.Custom, "plugin", ""),
		Command:        stringListOr(c.Custom, "command"),
		TimeoutSeconds: intOr(c.Custom, "timeout", defaultTimeoutSeconds),
	}
	if cfg.Plugin == "" && len(cfg.Command) == 0 {
		return CustomConfig{}, NewConfigError(c.Name, "custom source needs either plugin or command")
	}
	return cfg, nil
}

func hasHTTPScheme(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// ---------- custom_config 取值辅助 ----------

func stringOr(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}

func intOr(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64: // JSON 反序列化后的数字都是 float64
		return int(v)
	default:
		return def
	}
}

func stringMapOr(m map[string]any, key string) map[string]string {
	out := map[string]string{}
	raw, ok := m[key].(map[string]any)
	if !ok {
		return out
	}
	for k, v := range raw {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

func stringListOr(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprintf("%v", e))
		}
		return out
	default:
		return nil
	}
}
