package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"docmanager/internal/domain"
)

type DocumentRepo struct{ db *gorm.DB }

func NewDocumentRepo(db *gorm.DB) *DocumentRepo { return &DocumentRepo{db: db} }

func (r *DocumentRepo) Create(ctx context.Context, d *domain.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DocumentRepo) owned(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Document{}).Where("user_id = ?", userID)
}

// FindOwned 不存在和不属于本人一律返回 domain.ErrNotFound
func (r *DocumentRepo) FindOwned(ctx context.Context, id, userID uint) (*domain.Document, error) {
	var d domain.Document
	err := r.owned(ctx, userID).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListOwned 按 id 升序，翻页稳定
func (r *DocumentRepo) ListOwned(ctx context.Context, userID uint, f domain.ListFilter) ([]domain.Document, error) {
	q := r.owned(ctx, userID)
	if f.FileType != "" {
		q = q.Where("file_type = ?", f.FileType)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	docs := make([]domain.Document, 0)
	if err := q.Order("id ASC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *DocumentRepo) CountOwned(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.owned(ctx, userID).Count(&n).Error
	return n, err
}

func (r *DocumentRepo) StatsOwned(ctx context.Context, userID uint) (domain.DocumentStats, error) {
	var s domain.DocumentStats
	if err := r.owned(ctx, userID).Count(&s.Total).Error; err != nil {
		return s, err
	}
	if err := r.owned(ctx, userID).Where("summary IS NOT NULL").Count(&s.WithSummary).Error; err != nil {
		return s, err
	}
	return s, nil
}

// UpdateEnrichment 覆盖写 summary/keywords
func (r *DocumentRepo) UpdateEnrichment(ctx context.Context, id, userID uint, summary, keywords string) error {
	res := r.owned(ctx, userID).Where("id = ?", id).Updates(map[string]any{
		"summary":  summary,
		"keywords": keywords,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) DeleteOwned(ctx context.Context, id, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Document{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
