package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"docmanager/internal/domain"
	"docmanager/internal/enrich"
)

type SearchService struct {
	docs     domain.DocumentRepository
	enricher enrich.Enricher
	log      *zap.Logger
}

func NewSearchService(docs domain.DocumentRepository, e enrich.Enricher, l *zap.Logger) *SearchService {
	if l == nil {
		l = zap.NewNop()
	}
	return &SearchService{docs: docs, enricher: e, log: l}
}

type SearchQuery struct {
	domain.ListFilter
	Q string
}

// List 没有 q 时按 id 分页；有 q 时先对候选集打分排序，去掉 0 分，再分页
func (s *SearchService) List(ctx context.Context, user *domain.User, in SearchQuery) ([]domain.Document, error) {
	f := in.ListFilter
	f.Offset, f.Limit = clampPage(f.Offset, f.Limit, DefaultSearchLimit)
	f.FileType = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(f.FileType)), ".")
	q := strings.TrimSpace(in.Q)
	if q == "" {
		return s.docs.ListOwned(ctx, user.ID, f)
	}

	candidates, err := s.docs.ListOwned(ctx, user.ID, domain.ListFilter{FileType: f.FileType, Limit: MaxListLimit})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []domain.Document{}, nil
	}
	texts := make([]string, len(candidates))
	for i := range candidates {
		texts[i] = rankText(&candidates[i])
	}
	scores, err := s.enricher.Rank(ctx, q, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: rank: %w", domain.ErrEnrichment, err)
	}

	ranked := make([]domain.Document, 0, len(scores))
	for _, sc := range scores {
		if sc.Score <= 0 || sc.Index < 0 || sc.Index >= len(candidates) {
			continue
		}
		ranked = append(ranked, candidates[sc.Index])
	}
	s.log.Debug("search ranked",
		zap.Uint("user_id", user.ID), zap.Int("candidates", len(candidates)), zap.Int("hits", len(ranked)))

	if f.Offset >= len(ranked) {
		return []domain.Document{}, nil
	}
	end := f.Offset + f.Limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[f.Offset:end], nil
}

func rankText(d *domain.Document) string {
	if d.Content == nil {
		return d.Title
	}
	return d.Title + "\n" + *d.Content
}

func (s *SearchService) Get(ctx context.Context, id uint, user *domain.User) (*domain.Document, error) {
	return s.docs.FindOwned(ctx, id, user.ID)
}

func (s *SearchService) Count(ctx context.Context, user *domain.User) (int64, error) {
	return s.docs.CountOwned(ctx, user.ID)
}
