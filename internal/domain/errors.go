package domain

import (
	"errors"
	"fmt"
)

// 业务错误；服务层用 fmt.Errorf("...: %w") 包装，传输层统一翻译
var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("duplicate")
	ErrUnsupportedMedia   = errors.New("unsupported media")
	ErrEmptyContent       = errors.New("empty content")
	ErrExtraction         = errors.New("extraction failed")
	ErrEnrichment         = errors.New("enrichment failed")
	ErrStorage            = errors.New("storage failure")
)

// ErrTooLarge 属于 ErrUnsupportedMedia
var ErrTooLarge = fmt.Errorf("file too large: %w", ErrUnsupportedMedia)
