package enrich

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"docmanager/internal/domain"
)

// Fallback Primary 出错时记录并改用 Secondary；两者都失败才返回 domain.ErrEnrichment
type Fallback struct {
	Primary   Enricher
	Secondary Enricher
	Log       *zap.Logger
	Counter   *prometheus.CounterVec // label: op
}

func NewFallback(primary, secondary Enricher, l *zap.Logger, counter *prometheus.CounterVec) *Fallback {
	if l == nil {
		l = zap.NewNop()
	}
	return &Fallback{Primary: primary, Secondary: secondary, Log: l, Counter: counter}
}

func (f *Fallback) degrade(op string, err error) {
	f.Log.Warn("remote enrichment failed, using local strategy", zap.String("op", op), zap.Error(err))
	if f.Counter != nil {
		f.Counter.WithLabelValues(op).Inc()
	}
}

func (f *Fallback) Summarize(ctx context.Context, content string) (Summary, error) {
	s, err := f.Primary.Summarize(ctx, content)
	if err == nil {
		return s, nil
	}
	f.degrade("summarize", err)
	s, err = f.Secondary.Summarize(ctx, content)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: summarize: %w", domain.ErrEnrichment, err)
	}
	return s, nil
}

func (f *Fallback) Answer(ctx context.Context, question, content string) (string, error) {
	a, err := f.Primary.Answer(ctx, question, content)
	if err == nil {
		return a, nil
	}
	f.degrade("answer", err)
	a, err = f.Secondary.Answer(ctx, question, content)
	if err != nil {
		return "", fmt.Errorf("%w: answer: %w", domain.ErrEnrichment, err)
	}
	return a, nil
}

func (f *Fallback) Rank(ctx context.Context, query string, docs []string) ([]Score, error) {
	s, err := f.Primary.Rank(ctx, query, docs)
	if err == nil {
		return s, nil
	}
	f.degrade("rank", err)
	s, err = f.Secondary.Rank(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("%w: rank: %w", domain.ErrEnrichment, err)
	}
	return s, nil
}
