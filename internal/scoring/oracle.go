package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Analysis AI 打分服务返回的语义分析结果。
// 数值维度用指针区分“缺失”与“0 分”，缺失维度按中性 50 计。
// position_bias / position_magnitude 只是建议值，本地会重新推导。
type Analysis struct {
	MarketImpact      *float64 `json:"market_impact"`
	IndustryRelevance *float64 `json:"industry_relevance"`
	NoveltyScore      *float64 `json:"novelty_score"`
	Urgency           *float64 `json:"urgency"`
	Sentiment         string   `json:"sentiment"`
	Summary           string   `json:"summary"`
	Keywords          []string `json:"keywords"`
	Categories        []string `json:"categories"`
	PositionBias      string   `json:"position_bias"`
	PositionMagnitude float64  `json:"position_magnitude"`
}

// Oracle 外部 AI 打分服务。实现方可能随时不可用或超时，
// 调用方必须容忍失败并退回中性评分继续流程。
type Oracle interface {
	Analyze(ctx context.Context, title, content string) (*Analysis, error)
}

// NeutralAnalysis 打分服务不可用时的兜底结果：各维度 50 / 中性
func NeutralAnalysis() *Analysis {
	n := neutralScore
	return &Analysis{
		MarketImpact:      &n,
		IndustryRelevance: &n,
		NoveltyScore:      &n,
		Urgency:           &n,
		Sentiment:         "neutral",
		PositionBias:      BiasNeutral,
	}
}

// AnalyzeOrNeutral 调用打分服务，失败时记日志并返回中性结果，
// 绝不让 oracle 故障中断评分流程
func AnalyzeOrNeutral(ctx context.Context, o Oracle, title, content string) *Analysis {
	if o == nil {
		return nil
	}
	result, err := o.Analyze(ctx, title, content)
	if err != nil {
		log.Printf("oracle analyze error, fallback to neutral: %v", err)
		return NeutralAnalysis()
	}
	if result == nil {
		return NeutralAnalysis()
	}
	if result.Sentiment == "" {
		result.Sentiment = "neutral"
	}
	return result
}

const oracleMaxResponseBytes = 1 << 20 // 1MB

// HTTPOracle 走 HTTP JSON 协议的打分服务客户端
type HTTPOracle struct {
	endpoint string
	client   *http.Client
}

// NewHTTPOracle 构造打分服务客户端，timeout 即单次请求超时
func NewHTTPOracle(endpoint string, timeout time.Duration) *HTTPOracle {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPOracle{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (o *HTTPOracle) Analyze(ctx context.Context, title, content string) (*Analysis, error) {
	payload, err := json.Marshal(map[string]string{
		"title":   title,
		"content": content,
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("oracle: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle: unexpected status %d", resp.StatusCode)
	}

	var result Analysis
	if err := json.NewDecoder(io.LimitReader(resp.Body, oracleMaxResponseBytes)).Decode(&result); err != nil {
		return nil, fmt.Errorf("oracle: decode response: %w", err)
	}
	return &result, nil
}
