package parsers

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

var _ driven.Parser = (*PDFParser)(nil)

// pdfInfoFields maps Info dictionary keys to metadata keys.
var pdfInfoFields = map[string]string{
	"Title":    "title",
	"Author":   "author",
	"Subject":  "subject",
	"Keywords": "keywords",
	"Creator":  "creator",
	"Producer": "producer",
}

// PDFParser extracts text page by page from PDF documents.
type PDFParser struct {
	caps BinarySupport
}

// NewPDFParser creates a PDFParser gated by caps.
func NewPDFParser(caps BinarySupport) *PDFParser {
	return &PDFParser{caps: caps}
}

// Format returns domain.FormatPDF.
func (p *PDFParser) Format() domain.Format {
	return domain.FormatPDF
}

// Parse extracts page text and Info metadata. Sections come from the
// same heading rules as plain text.
func (p *PDFParser) Parse(in domain.ParseInput) (*domain.ParserResult, error) {
	if err := checkBinarySupport(p.caps, domain.FormatPDF, in); err != nil {
		return nil, err
	}
	data, err := readInput(in, domain.FormatPDF)
	if err != nil {
		return nil, err
	}

	text, metadata, err := extractPDF(data, true)
	if err != nil {
		return nil, withPath(domain.NewParseError(domain.ErrStructuralParse, domain.FormatPDF, err), in)
	}
	metadata["file_size"] = len(data)

	title := fileStem(in)
	if t, ok := metadata["title"].(string); ok && t != "" {
		title = t
	}
	return newResult(title, text, splitSections(text), metadata), nil
}

// FullText returns the text of every page without reading the Info
// dictionary or detecting headings.
func (p *PDFParser) FullText(in domain.ParseInput) (string, error) {
	if err := checkBinarySupport(p.caps, domain.FormatPDF, in); err != nil {
		return "", err
	}
	data, err := readInput(in, domain.FormatPDF)
	if err != nil {
		return "", err
	}

	text, _, err := extractPDF(data, false)
	if err != nil {
		return "", withPath(domain.NewParseError(domain.ErrStructuralParse, domain.FormatPDF, err), in)
	}
	return text, nil
}

// Sections returns heading-based sections over the page text.
func (p *PDFParser) Sections(in domain.ParseInput) ([]domain.Section, error) {
	return sectionsOf(p, in)
}

// extractPDF reads every page, and the Info dictionary when withInfo is
// set. The PDF library panics on some malformed input, so panics are
// turned into errors.
func extractPDF(data []byte, withInfo bool) (text string, metadata map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", nil, fmt.Errorf("page %d: %w", i, err)
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}

	metadata = map[string]any{"page_count": numPages}
	if !withInfo {
		return strings.Join(pages, "\n\n"), metadata, nil
	}
	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		for key, field := range pdfInfoFields {
			if v := strings.TrimSpace(info.Key(key).Text()); v != "" {
				metadata[field] = v
			}
		}
		if v := info.Key("CreationDate").Text(); v != "" {
			metadata["created"] = pdfDate(v)
		}
		if v := info.Key("ModDate").Text(); v != "" {
			metadata["modified"] = pdfDate(v)
		}
	}

	return strings.Join(pages, "\n\n"), metadata, nil
}

// pdfDate converts "D:YYYYMMDDHHmmSSOHH'mm'" to RFC 3339 in UTC, keeping
// the raw value if it does not parse. A missing zone means UTC.
func pdfDate(raw string) string {
	s := strings.TrimPrefix(raw, "D:")
	if len(s) < 14 {
		return raw
	}
	t, err := time.Parse("20060102150405", s[:14])
	if err != nil {
		return raw
	}
	offset, ok := pdfZoneOffset(s[14:])
	if !ok {
		return raw
	}
	return t.Add(-offset).UTC().Format(time.RFC3339)
}

// pdfZoneOffset reads the "Z", "+HH'mm'" or "-HH'mm'" suffix of a PDF date.
func pdfZoneOffset(zone string) (time.Duration, bool) {
	if zone == "" || zone[0] == 'Z' {
		return 0, true
	}

	sign := time.Duration(1)
	switch zone[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, false
	}

	digits := strings.ReplaceAll(zone[1:], "'", "")
	if len(digits) < 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(digits[:2])
	if err != nil || hours > 23 {
		return 0, false
	}
	minutes := 0
	if len(digits) >= 4 {
		if minutes, err = strconv.Atoi(digits[2:4]); err != nil || minutes > 59 {
			return 0, false
		}
	}
	return sign * (time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute), true
}
