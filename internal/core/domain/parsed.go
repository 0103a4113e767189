package domain

import "time"

// Format identifies a supported document format
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// IsBinary reports whether the format needs binary document support
func (f Format) IsBinary() bool {
	return f == FormatPDF || f == FormatDOCX
}

// Section is a titled slice of a parsed document
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Level   int    `json:"level"`
}

// ParserResult is the output of a successful parse
type ParserResult struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Sections []Section      `json:"sections"`
	Metadata map[string]any `json:"metadata"`
}

// ParseInput is the byte source handed to a parser.
// Exactly one of Path or Data is expected to be set; Data wins if both are.
type ParseInput struct {
	Path     string
	Data     []byte
	Filename string
	MimeType string
}

// ParsedContent is the persisted form of a ParserResult for an uploaded file
type ParsedContent struct {
	ID       string         `json:"id"`
	FileID   string         `json:"file_id"`
	Format   Format         `json:"format"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Sections []Section      `json:"sections"`
	Metadata map[string]any `json:"metadata"`
	ParsedAt time.Time      `json:"parsed_at"`
}

// FormatInfo describes one supported format for clients
type FormatInfo struct {
	Format     Format   `json:"format"`
	Extensions []string `json:"extensions"`
	MimeTypes  []string `json:"mime_types"`
	Available  bool     `json:"available"`
}
