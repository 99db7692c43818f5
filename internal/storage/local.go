package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local 本地目录存储，location 即文件路径
type Local struct {
	Dir string
}

var ErrBadName = errors.New("invalid blob name")

// NewLocal 目录不存在时创建
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return &Local{Dir: abs}, nil
}

func (s *Local) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", ErrBadName
	}
	path := filepath.Join(s.Dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func (s *Local) Get(_ context.Context, location string) ([]byte, error) {
	if err := s.inside(location); err != nil {
		return nil, err
	}
	return os.ReadFile(location)
}

// Remove 文件已不存在视为成功
func (s *Local) Remove(_ context.Context, location string) error {
	if err := s.inside(location); err != nil {
		return err
	}
	if err := os.Remove(location); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Local) inside(location string) error {
	rel, err := filepath.Rel(s.Dir, filepath.Clean(location))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%w: %s", ErrBadName, location)
	}
	return nil
}
