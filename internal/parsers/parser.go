// Package parsers extracts text, sections and metadata from uploaded
// documents. Each format has one parser; the Selector picks a parser from
// a filename extension or declared media type.
package parsers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/pretty"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// Section titles shared by several parsers
const (
	contentSectionTitle      = "Content"
	introductionSectionTitle = "Introduction"
)

// readInput returns the bytes behind a ParseInput. In-memory data wins
// over a path; a path that cannot be opened is reported as ErrNotFound.
func readInput(in domain.ParseInput, format domain.Format) ([]byte, error) {
	if in.Data != nil || in.Path == "" {
		return in.Data, nil
	}
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, &domain.ParseError{Kind: domain.ErrNotFound, Format: format, Path: in.Path, Err: err}
	}
	return data, nil
}

// withPath attaches the input path to a parse error produced by a parser.
func withPath(err *domain.ParseError, in domain.ParseInput) *domain.ParseError {
	if err.Path == "" {
		err.Path = in.Path
	}
	return err
}

// fileStem is the file name without directory or extension.
func fileStem(in domain.ParseInput) string {
	name := in.Filename
	if name == "" {
		name = in.Path
	}
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// fallbackSections wraps the whole text in a single section.
func fallbackSections(content string) []domain.Section {
	return []domain.Section{{Title: contentSectionTitle, Content: content, Level: 1}}
}

// newResult builds a result and enforces the at-least-one-section rule.
func newResult(title, content string, sections []domain.Section, metadata map[string]any) *domain.ParserResult {
	if len(sections) == 0 {
		sections = fallbackSections(content)
	}
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &domain.ParserResult{
		Title:    title,
		Content:  content,
		Sections: sections,
		Metadata: metadata,
	}
}

// readText reads the input and runs the encoding fallback chain without
// any structural analysis.
func readText(in domain.ParseInput, format domain.Format) (string, string, []byte, error) {
	data, err := readInput(in, format)
	if err != nil {
		return "", "", nil, err
	}
	text, enc, err := decodeText(data)
	if err != nil {
		return "", "", nil, withPath(domain.NewParseError(domain.ErrDecode, format, err), in)
	}
	return text, enc, data, nil
}

// decodedText is the FullText path for text-bearing formats.
func decodedText(in domain.ParseInput, format domain.Format) (string, error) {
	text, _, _, err := readText(in, format)
	return text, err
}

// sectionsOf backs Sections with Parse so both share one extraction path.
func sectionsOf(p interface {
	Parse(domain.ParseInput) (*domain.ParserResult, error)
}, in domain.ParseInput) ([]domain.Section, error) {
	res, err := p.Parse(in)
	if err != nil {
		return nil, err
	}
	return res.Sections, nil
}

// truncateRunes shortens s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// EncodeResult renders a result as indented JSON followed by a newline.
func EncodeResult(res *domain.ParserResult) ([]byte, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(raw), nil
}
