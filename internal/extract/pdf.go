package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF 逐页取纯文本，页之间换行
func PDF(data []byte) (text string, err error) {
	// 解析器遇到损坏文件会 panic
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, err := p.GetPlainText(nil)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String()), nil
}
