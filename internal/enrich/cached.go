package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"docmanager/internal/core/cache"
)

// Cached 远程结果按输入 sha256 缓存；Rank 结果依赖候选集，不缓存
type Cached struct {
	Next  Enricher
	Cache *cache.Cache
	TTL   time.Duration
	Scope string // 一般为模型名，换模型后不复用旧结果
}

func NewCached(next Enricher, c *cache.Cache, ttl time.Duration, scope string) *Cached {
	return &Cached{Next: next, Cache: c, TTL: ttl, Scope: scope}
}

func (c *Cached) key(op string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(c.Scope))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return "enrich:" + op + ":" + hex.EncodeToString(h.Sum(nil))
}

func (c *Cached) Summarize(ctx context.Context, content string) (Summary, error) {
	return cache.GetOrLoadJSON(c.Cache, ctx, c.key("summary", content), c.TTL, func(ctx context.Context) (Summary, error) {
		return c.Next.Summarize(ctx, content)
	})
}

func (c *Cached) Answer(ctx context.Context, question, content string) (string, error) {
	return cache.GetOrLoadJSON(c.Cache, ctx, c.key("answer", question, content), c.TTL, func(ctx context.Context) (string, error) {
		return c.Next.Answer(ctx, question, content)
	})
}

func (c *Cached) Rank(ctx context.Context, query string, docs []string) ([]Score, error) {
	return c.Next.Rank(ctx, query, docs)
}
