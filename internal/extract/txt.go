package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type decoder struct {
	name   string
	decode func([]byte) (string, bool)
}

// 依次尝试；都不行再做有损 UTF-8
var txtDecoders = []decoder{
	{"utf-8", decodeUTF8},
	{"iso-8859-1", decodeLatin1},
	{"windows-1252", decodeWindows1252},
}

// TXT 内容原样返回（不 trim），仅去掉 UTF-8 BOM
func TXT(data []byte) (string, error) {
	for _, d := range txtDecoders {
		if s, ok := d.decode(data); ok {
			return s, nil
		}
	}
	return lossyUTF8(data), nil
}

func decodeUTF8(b []byte) (string, bool) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// ISO-8859-1 每个字节都可解码；出现 C1 控制字符多半是 cp1252 的引号/破折号，交给下一个
func decodeLatin1(b []byte) (string, bool) {
	for _, c := range b {
		if c >= 0x80 && c <= 0x9F {
			return "", false
		}
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(s), true
}

// cp1252 有 5 个未定义字节
func decodeWindows1252(b []byte) (string, bool) {
	for _, c := range b {
		switch c {
		case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
			return "", false
		}
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(s), true
}

func lossyUTF8(b []byte) string {
	b = bytes.TrimPrefix(b, utf8BOM)
	return strings.ToValidUTF8(string(b), "")
}
