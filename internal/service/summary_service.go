package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"docmanager/internal/domain"
	"docmanager/internal/enrich"
)

const (
	batchItemNotFound = "document not found or has no content"
	batchItemFailed   = "Failed to generate content"
)

type SummaryService struct {
	docs     *DocumentService
	repo     domain.DocumentRepository
	enricher enrich.Enricher
	log      *zap.Logger
}

func NewSummaryService(docs *DocumentService, repo domain.DocumentRepository, e enrich.Enricher, l *zap.Logger) *SummaryService {
	if l == nil {
		l = zap.NewNop()
	}
	return &SummaryService{docs: docs, repo: repo, enricher: e, log: l}
}

// Generate 与 DocumentService.Enrich 相同
func (s *SummaryService) Generate(ctx context.Context, id uint, user *domain.User) (*domain.Document, error) {
	return s.docs.Enrich(ctx, id, user)
}

type SummaryView struct {
	DocumentID uint    `json:"document_id"`
	Title      string  `json:"title"`
	Summary    *string `json:"summary"`
	Keywords   *string `json:"keywords"`
	HasSummary bool    `json:"has_summary"`
}

func (s *SummaryService) Get(ctx context.Context, id uint, user *domain.User) (SummaryView, error) {
	doc, err := s.repo.FindOwned(ctx, id, user.ID)
	if err != nil {
		return SummaryView{}, err
	}
	return SummaryView{
		DocumentID: doc.ID,
		Title:      doc.Title,
		Summary:    doc.Summary,
		Keywords:   doc.Keywords,
		HasSummary: doc.HasSummary(),
	}, nil
}

type AnswerView struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	DocumentID    uint   `json:"document_id"`
	DocumentTitle string `json:"document_title"`
}

func (s *SummaryService) Ask(ctx context.Context, id uint, user *domain.User, question string) (AnswerView, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return AnswerView{}, fmt.Errorf("%w: question is required", domain.ErrValidation)
	}
	doc, err := s.repo.FindOwned(ctx, id, user.ID)
	if err != nil {
		return AnswerView{}, err
	}
	if !hasContent(doc) {
		return AnswerView{}, fmt.Errorf("%w: document has no content", domain.ErrEmptyContent)
	}
	answer, err := s.enricher.Answer(ctx, question, *doc.Content)
	if err != nil {
		if !errors.Is(err, domain.ErrEnrichment) {
			err = fmt.Errorf("%w: %w", domain.ErrEnrichment, err)
		}
		return AnswerView{}, err
	}
	return AnswerView{Question: question, Answer: answer, DocumentID: doc.ID, DocumentTitle: doc.Title}, nil
}

type BatchItem struct {
	DocumentID uint    `json:"document_id"`
	Success    bool    `json:"success"`
	Summary    *string `json:"summary,omitempty"`
	Keywords   *string `json:"keywords,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type BatchResult struct {
	Results        []BatchItem `json:"results"`
	TotalProcessed int         `json:"total_processed"`
	Successful     int         `json:"successful"`
}

// Batch 逐个处理，单个失败不影响其他条目
func (s *SummaryService) Batch(ctx context.Context, ids []uint, user *domain.User) (BatchResult, error) {
	out := BatchResult{Results: make([]BatchItem, 0, len(ids)), TotalProcessed: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return BatchResult{}, err
		}
		item := BatchItem{DocumentID: id}
		doc, err := s.docs.Enrich(ctx, id, user)
		switch {
		case err == nil:
			item.Success = true
			item.Summary, item.Keywords = doc.Summary, doc.Keywords
			out.Successful++
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrEmptyContent):
			item.Error = batchItemNotFound
		default:
			s.log.Warn("batch summarize item failed", zap.Uint("document_id", id), zap.Error(err))
			item.Error = batchItemFailed
		}
		out.Results = append(out.Results, item)
	}
	return out, nil
}

func (s *SummaryService) Statistics(ctx context.Context, user *domain.User) (Statistics, error) {
	return s.docs.Statistics(ctx, user)
}

func hasContent(d *domain.Document) bool {
	return d.Content != nil && strings.TrimSpace(*d.Content) != ""
}
