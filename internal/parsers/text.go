package parsers

import (
	"strings"
	"unicode/utf8"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

var _ driven.Parser = (*TextParser)(nil)

// maxTitleRunes bounds titles taken from the first line of a document.
const maxTitleRunes = 100

// TextParser handles plain text, markdown and log files.
type TextParser struct{}

// NewTextParser creates a TextParser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Format returns domain.FormatText.
func (p *TextParser) Format() domain.Format {
	return domain.FormatText
}

// Parse decodes the text and splits it on detected headings.
func (p *TextParser) Parse(in domain.ParseInput) (*domain.ParserResult, error) {
	text, enc, data, err := readText(in, domain.FormatText)
	if err != nil {
		return nil, err
	}

	firstLine := firstNonEmptyLine(text)
	title := fileStem(in)
	if title == "" {
		title = firstLine
	}

	metadata := textStats(text)
	metadata["file_size"] = len(data)
	metadata["encoding"] = enc
	metadata["title"] = firstLine

	return newResult(title, text, splitSections(text), metadata), nil
}

// FullText returns the decoded text.
func (p *TextParser) FullText(in domain.ParseInput) (string, error) {
	return decodedText(in, domain.FormatText)
}

// Sections returns the heading-based sections.
func (p *TextParser) Sections(in domain.ParseInput) ([]domain.Section, error) {
	return sectionsOf(p, in)
}

// textStats counts lines, words and characters.
func textStats(text string) map[string]any {
	lines := 0
	if text != "" {
		lines = strings.Count(strings.TrimSuffix(text, "\n"), "\n") + 1
	}
	return map[string]any{
		"line_count": lines,
		"word_count": len(strings.Fields(text)),
		"char_count": utf8.RuneCountInString(text),
	}
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return truncateRunes(line, maxTitleRunes)
		}
	}
	return ""
}
