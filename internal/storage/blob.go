// Package storage 上传文件的落盘位置：本地目录或 MinIO bucket
package storage

import (
	"context"
	"io"
)

// Blob 按系统生成的名字读写；Put 返回写入库里的 location
type Blob interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (location string, err error)
	Get(ctx context.Context, location string) ([]byte, error)
	Remove(ctx context.Context, location string) error
}
