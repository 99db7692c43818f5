package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docmanager/internal/domain"
)

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s</w:body></w:document>`, body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPDF 单页 PDF，xref 偏移按实际字节计算
func buildPDF(text string) []byte {
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestDOCX(t *testing.T) {
	data := buildDOCX(t,
		`<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>`+
			`<w:p/>`+
			`<w:p><w:r><w:t>last</w:t></w:r></w:p>`)

	got, err := DOCX(data)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\na\tb\nc\n\nlast", got)
}

func TestDOCX_Broken(t *testing.T) {
	_, err := DOCX([]byte("not a zip"))
	require.Error(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, _ = zw.Create("other.xml")
	require.NoError(t, zw.Close())
	_, err = DOCX(buf.Bytes())
	require.ErrorContains(t, err, "word/document.xml")
}

func TestPDF(t *testing.T) {
	got, err := PDF(buildPDF("Hello PDF"))
	require.NoError(t, err)
	assert.Contains(t, got, "Hello PDF")
}

func TestPDF_Garbage(t *testing.T) {
	for _, in := range [][]byte{nil, []byte("garbage"), []byte("%PDF-1.4\nbroken")} {
		_, err := PDF(in)
		require.Error(t, err)
	}
}

func TestTXT(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf8", []byte("hello world"), "hello world"},
		{"utf8 keeps whitespace", []byte("  line\n"), "  line\n"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "şöğüç"...), "şöğüç"},
		{"latin1", []byte{'c', 'a', 'f', 0xE9}, "café"},
		{"cp1252 quotes", []byte{0x93, 'h', 'i', 0x94}, "“hi”"},
		{"lossy", []byte{'a', 0x81, 0x93, 'b'}, "ab"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TXT(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	got, err := r.Extract("txt", []byte("hi"))
	require.NoError(t, err)
	require.Equal(t, "hi", got)

	_, err = r.Extract("doc", []byte("x"))
	require.ErrorIs(t, err, domain.ErrExtraction)

	_, err = r.Extract("docx", []byte("x"))
	require.ErrorIs(t, err, domain.ErrExtraction)

	r.Register("md", ExtractorFunc(func(b []byte) (string, error) { return strings.ToUpper(string(b)), nil }))
	got, err = r.Extract("md", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, "X", got)
}
