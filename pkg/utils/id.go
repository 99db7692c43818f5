package utils

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func NewID() string { return uuid.NewString() }

// StorageName 随机文件名，保留原扩展名（小写）
func StorageName(original string) string {
	return NewID() + strings.ToLower(filepath.Ext(original))
}
