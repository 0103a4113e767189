package parsers

import (
	"bytes"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

// Encoding names reported in metadata
const (
	encodingUTF8        = "utf-8"
	encodingUTF16       = "utf-16"
	encodingWindows1252 = "windows-1252"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}

	errBinaryContent = errors.New("content looks binary")
)

// maxControlRatio is the share of control characters above which decoded
// text is treated as binary data.
const maxControlRatio = 0.10

// decodeText runs the encoding fallback chain: UTF-8, UTF-16 with a byte
// order mark, then Windows-1252. It returns the decoded text and the name
// of the encoding that succeeded.
func decodeText(data []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		data = data[len(utf8BOM):]
	case bytes.HasPrefix(data, utf16LEBOM), bytes.HasPrefix(data, utf16BEBOM):
		dec := xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(data)
		if err != nil {
			return "", "", err
		}
		return normalizeNewlines(string(out)), encodingUTF16, nil
	}

	if utf8.Valid(data) {
		s := string(data)
		if looksBinary(s) {
			return "", "", errBinaryContent
		}
		return normalizeNewlines(s), encodingUTF8, nil
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", err
	}
	s := string(out)
	if looksBinary(s) {
		return "", "", errBinaryContent
	}
	return normalizeNewlines(s), encodingWindows1252, nil
}

// looksBinary reports whether s carries NUL bytes or too many control characters.
func looksBinary(s string) bool {
	if s == "" {
		return false
	}
	var total, control int
	for _, r := range s {
		total++
		if r == 0 {
			return true
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' && r != '\f' {
			control++
		}
	}
	return float64(control)/float64(total) > maxControlRatio
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
