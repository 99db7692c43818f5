package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"docmanager/internal/domain"
	"docmanager/internal/enrich"
	"docmanager/internal/storage"
	"docmanager/pkg/utils"
)

const (
	DefaultDocumentLimit = 100
	DefaultSearchLimit   = 20
	MaxListLimit         = 1000
)

// TextExtractor 按文件类型（不带点）抽取正文
type TextExtractor interface {
	Extract(fileType string, data []byte) (string, error)
}

type DocumentService struct {
	docs     domain.DocumentRepository
	blobs    storage.Blob
	extract  TextExtractor
	enricher enrich.Enricher
	maxSize  int64
	allowed  map[string]struct{}
	log      *zap.Logger
}

type DocumentDeps struct {
	Docs      domain.DocumentRepository
	Blobs     storage.Blob
	Extractor TextExtractor
	Enricher  enrich.Enricher
	// MaxSize 单文件上限（字节）
	MaxSize int64
	// AllowedExtensions 形如 ".pdf"，大小写不敏感
	AllowedExtensions []string
	Log               *zap.Logger
}

func NewDocumentService(d DocumentDeps) *DocumentService {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(d.AllowedExtensions))
	for _, e := range d.AllowedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = struct{}{}
	}
	return &DocumentService{
		docs:     d.Docs,
		blobs:    d.Blobs,
		extract:  d.Extractor,
		enricher: d.Enricher,
		maxSize:  d.MaxSize,
		allowed:  allowed,
		log:      d.Log,
	}
}

type UploadInput struct {
	Filename string
	Title    string
	Reader   io.Reader
}

// Upload 校验扩展名 -> 限长读取 -> 落盘 -> 抽取正文 -> 入库；后两步失败会删掉已写的文件
func (s *DocumentService) Upload(ctx context.Context, user *domain.User, in UploadInput) (*domain.Document, error) {
	original := strings.TrimSpace(filepath.Base(strings.ReplaceAll(in.Filename, "\\", "/")))
	if original == "" || original == "." || original == "/" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrValidation)
	}
	ext := strings.ToLower(filepath.Ext(original))
	if _, ok := s.allowed[ext]; !ok || ext == "" {
		return nil, fmt.Errorf("%w: file type %q is not allowed", domain.ErrUnsupportedMedia, ext)
	}
	if in.Reader == nil {
		return nil, fmt.Errorf("%w: file is required", domain.ErrValidation)
	}

	data, err := io.ReadAll(io.LimitReader(in.Reader, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, s.TooLarge()
	}

	name := utils.StorageName(original)
	location, err := s.blobs.Put(ctx, name, bytes.NewReader(data), int64(len(data)), mime.TypeByExtension(ext))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	fileType := strings.TrimPrefix(ext, ".")
	text, err := s.extract.Extract(fileType, data)
	if err != nil {
		s.discard(location)
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = original
	}
	doc := &domain.Document{
		Title:    title,
		Filename: name,
		FilePath: location,
		FileSize: int64(len(data)),
		FileType: fileType,
		Content:  &text,
		UserID:   user.ID,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.discard(location)
		return nil, fmt.Errorf("save document: %w", err)
	}
	s.log.Info("document uploaded",
		zap.Uint("document_id", doc.ID),
		zap.Uint("user_id", user.ID),
		zap.String("file_type", fileType),
		zap.Int64("file_size", doc.FileSize),
	)
	return doc, nil
}

// TooLarge 文件超过单文件上限
func (s *DocumentService) TooLarge() error {
	return fmt.Errorf("%w: limit is %d bytes", domain.ErrTooLarge, s.maxSize)
}

// discard 回滚时用独立 context，请求被取消也要删
func (s *DocumentService) discard(location string) {
	if err := s.blobs.Remove(context.Background(), location); err != nil {
		s.log.Warn("remove blob failed", zap.String("location", location), zap.Error(err))
	}
}

func clampPage(offset, limit, def int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = def
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return offset, limit
}

func (s *DocumentService) List(ctx context.Context, user *domain.User, offset, limit int) ([]domain.Document, error) {
	offset, limit = clampPage(offset, limit, DefaultDocumentLimit)
	return s.docs.ListOwned(ctx, user.ID, domain.ListFilter{Offset: offset, Limit: limit})
}

// ListFiltered 搜索列表，默认 20 条
func (s *DocumentService) ListFiltered(ctx context.Context, user *domain.User, f domain.ListFilter) ([]domain.Document, error) {
	f.Offset, f.Limit = clampPage(f.Offset, f.Limit, DefaultSearchLimit)
	f.FileType = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(f.FileType)), ".")
	return s.docs.ListOwned(ctx, user.ID, f)
}

func (s *DocumentService) Get(ctx context.Context, id uint, user *domain.User) (*domain.Document, error) {
	return s.docs.FindOwned(ctx, id, user.ID)
}

// Delete 不存在或不属于该用户返回 false；文件删除失败只记日志
func (s *DocumentService) Delete(ctx context.Context, id uint, user *domain.User) (bool, error) {
	doc, err := s.docs.FindOwned(ctx, id, user.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.blobs.Remove(ctx, doc.FilePath); err != nil {
		s.log.Warn("remove blob failed",
			zap.Uint("document_id", doc.ID), zap.String("location", doc.FilePath), zap.Error(err))
	}
	ok, err := s.docs.DeleteOwned(ctx, id, user.ID)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.Info("document deleted", zap.Uint("document_id", id), zap.Uint("user_id", user.ID))
	}
	return ok, nil
}

// Enrich 生成摘要和关键词，覆盖旧值
func (s *DocumentService) Enrich(ctx context.Context, id uint, user *domain.User) (*domain.Document, error) {
	doc, err := s.docs.FindOwned(ctx, id, user.ID)
	if err != nil {
		return nil, err
	}
	if !hasContent(doc) {
		return nil, fmt.Errorf("%w: document has no content", domain.ErrEmptyContent)
	}
	sum, err := s.enricher.Summarize(ctx, *doc.Content)
	if err != nil {
		if !errors.Is(err, domain.ErrEnrichment) {
			err = fmt.Errorf("%w: %w", domain.ErrEnrichment, err)
		}
		return nil, err
	}
	if err := s.docs.UpdateEnrichment(ctx, doc.ID, user.ID, sum.Summary, sum.Keywords); err != nil {
		return nil, err
	}
	return s.docs.FindOwned(ctx, doc.ID, user.ID)
}

func (s *DocumentService) Count(ctx context.Context, user *domain.User) (int64, error) {
	return s.docs.CountOwned(ctx, user.ID)
}

type Statistics struct {
	TotalDocuments          int64   `json:"total_documents"`
	DocumentsWithSummary    int64   `json:"documents_with_summary"`
	DocumentsWithoutSummary int64   `json:"documents_without_summary"`
	SummaryPercentage       float64 `json:"summary_percentage"`
}

func (s *DocumentService) Statistics(ctx context.Context, user *domain.User) (Statistics, error) {
	st, err := s.docs.StatsOwned(ctx, user.ID)
	if err != nil {
		return Statistics{}, err
	}
	out := Statistics{
		TotalDocuments:          st.Total,
		DocumentsWithSummary:    st.WithSummary,
		DocumentsWithoutSummary: st.Total - st.WithSummary,
	}
	if st.Total > 0 {
		out.SummaryPercentage = float64(st.WithSummary) / float64(st.Total) * 100
	}
	return out, nil
}

type DownloadInfo struct {
	FilePath string `json:"file_path"`
	Filename string `json:"filename"`
	FileSize int64  `json:"file_size"`
}

func (s *DocumentService) DownloadInfo(ctx context.Context, id uint, user *domain.User) (DownloadInfo, error) {
	doc, err := s.docs.FindOwned(ctx, id, user.ID)
	if err != nil {
		return DownloadInfo{}, err
	}
	return DownloadInfo{FilePath: doc.FilePath, Filename: doc.Filename, FileSize: doc.FileSize}, nil
}
