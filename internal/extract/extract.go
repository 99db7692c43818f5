// Package extract 把上传文件的字节转成纯文本，按文件类型分发
package extract

import (
	"fmt"

	"docmanager/internal/domain"
)

type Extractor interface {
	Extract(data []byte) (string, error)
}

// ExtractorFunc 适配普通函数
type ExtractorFunc func(data []byte) (string, error)

func (f ExtractorFunc) Extract(data []byte) (string, error) { return f(data) }

// Registry 文件类型（不带点，小写）到 Extractor 的映射
type Registry struct {
	byType map[string]Extractor
}

// NewRegistry pdf / docx / txt；doc 故意不注册
func NewRegistry() *Registry {
	return &Registry{byType: map[string]Extractor{
		"pdf":  ExtractorFunc(PDF),
		"docx": ExtractorFunc(DOCX),
		"txt":  ExtractorFunc(TXT),
	}}
}

func (r *Registry) Register(fileType string, e Extractor) { r.byType[fileType] = e }

// Extract 所有失败都包成 domain.ErrExtraction
func (r *Registry) Extract(fileType string, data []byte) (string, error) {
	e, ok := r.byType[fileType]
	if !ok {
		return "", fmt.Errorf("%w: no extractor for %q", domain.ErrExtraction, fileType)
	}
	text, err := e.Extract(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrExtraction, fileType, err)
	}
	return text, nil
}
