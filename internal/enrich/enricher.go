// Package enrich 摘要、关键词、问答与检索打分；远程模型不可用时退回本地策略
package enrich

import (
	"context"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"docmanager/internal/core/cache"
)

type Summary struct {
	Summary  string `json:"summary"`
	Keywords string `json:"keywords"` // 逗号分隔
}

// Score 候选文档打分，Index 为传入切片的下标，Score 范围 0-10
type Score struct {
	Index  int     `json:"index"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type Enricher interface {
	Summarize(ctx context.Context, content string) (Summary, error)
	Answer(ctx context.Context, question, content string) (string, error)
	Rank(ctx context.Context, query string, docs []string) ([]Score, error)
}

// SortScores 分数降序，同分按原下标升序
func SortScores(s []Score) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].Index < s[j].Index
	})
}

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration

	Cache    *cache.Cache // 可为 nil
	CacheTTL time.Duration

	Log     *zap.Logger
	Counter *prometheus.CounterVec
}

// New 未配置 APIKey 时只用本地策略；否则 远程(+缓存) 失败回落本地
func New(ctx context.Context, o Options) (Enricher, error) {
	local := NewLocal()
	if o.APIKey == "" {
		return local, nil
	}
	g, err := NewGemini(ctx, o.APIKey, o.Model, o.BaseURL, o.Timeout)
	if err != nil {
		return nil, err
	}
	var remote Enricher = g
	if o.Cache != nil {
		remote = NewCached(remote, o.Cache, o.CacheTTL, o.Model)
	}
	return NewFallback(remote, local, o.Log, o.Counter), nil
}
