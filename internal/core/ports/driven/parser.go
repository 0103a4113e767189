package driven

import "github.com/quizforge/quizforge-core/internal/core/domain"

// Parser extracts text, sections and metadata from one document format.
// Implementations are stateless and safe for concurrent use.
type Parser interface {
	// Parse performs a full extraction. Failures are *domain.ParseError.
	Parse(in domain.ParseInput) (*domain.ParserResult, error)

	// FullText returns only the extracted text.
	FullText(in domain.ParseInput) (string, error)

	// Sections returns only the structural decomposition.
	// A document with no structural signal yields a single "Content" section.
	Sections(in domain.ParseInput) ([]domain.Section, error)

	// Format returns the format this parser handles.
	Format() domain.Format
}

// ParserSelector maps a filename and declared media type to a parser.
type ParserSelector interface {
	// Get returns the parser for a filename (or bare extension) and media type.
	// The extension wins when both are given. Returns nil if nothing matches.
	Get(filename, mimeType string) Parser

	// ForFormat returns the registered parser for a format, or nil.
	ForFormat(format domain.Format) Parser

	// Formats describes every registered format.
	Formats() []domain.FormatInfo
}
