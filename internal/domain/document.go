package domain

import (
	"context"
	"time"
)

// Document 上传文档；所有读写都按 (id, user_id) 过滤
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Filename  string    `gorm:"size:64;not null" json:"filename"`
	FilePath  string    `gorm:"size:512;not null" json:"-"`
	FileSize  int64     `gorm:"not null" json:"file_size"`
	FileType  string    `gorm:"size:16;not null;index" json:"file_type"`
	Content   *string   `gorm:"type:text" json:"content"`
	Summary   *string   `gorm:"type:text" json:"summary"`
	Keywords  *string   `gorm:"type:text" json:"keywords"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSummary 已做过摘要
func (d *Document) HasSummary() bool { return d.Summary != nil }

type ListFilter struct {
	FileType string
	Offset   int
	Limit    int
}

type DocumentStats struct {
	Total       int64
	WithSummary int64
}

type DocumentRepository interface {
	Create(ctx context.Context, d *Document) error
	FindOwned(ctx context.Context, id, userID uint) (*Document, error)
	ListOwned(ctx context.Context, userID uint, f ListFilter) ([]Document, error)
	CountOwned(ctx context.Context, userID uint) (int64, error)
	StatsOwned(ctx context.Context, userID uint) (DocumentStats, error)
	UpdateEnrichment(ctx context.Context, id, userID uint, summary, keywords string) error
	DeleteOwned(ctx context.Context, id, userID uint) (bool, error)
}
