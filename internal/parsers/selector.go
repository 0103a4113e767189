package parsers

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ParserSelector = (*Selector)(nil)

// extensionFormats is consulted before any media type.
var extensionFormats = map[string]domain.Format{
	".txt":  domain.FormatText,
	".text": domain.FormatText,
	".md":   domain.FormatText,
	".log":  domain.FormatText,
	".csv":  domain.FormatCSV,
	".tsv":  domain.FormatCSV,
	".json": domain.FormatJSON,
	".xml":  domain.FormatXML,
	".pdf":  domain.FormatPDF,
	".docx": domain.FormatDOCX,
}

// mimeFormats holds exact media type matches.
var mimeFormats = map[string]domain.Format{
	"application/pdf":           domain.FormatPDF,
	"application/json":          domain.FormatJSON,
	"application/xml":           domain.FormatXML,
	"text/xml":                  domain.FormatXML,
	"text/csv":                  domain.FormatCSV,
	"text/tab-separated-values": domain.FormatCSV,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": domain.FormatDOCX,
}

// formatOrder fixes the order formats are listed in.
var formatOrder = []domain.Format{
	domain.FormatText,
	domain.FormatCSV,
	domain.FormatJSON,
	domain.FormatXML,
	domain.FormatPDF,
	domain.FormatDOCX,
}

// Selector maps extensions and media types to registered parsers.
// Lookups never inspect file content.
type Selector struct {
	mu      sync.RWMutex
	parsers map[domain.Format]driven.Parser
	caps    BinarySupport
	logger  *slog.Logger
}

// NewSelector creates an empty selector.
func NewSelector(caps BinarySupport, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		parsers: make(map[domain.Format]driven.Parser),
		caps:    caps,
		logger:  logger,
	}
}

// DefaultSelector creates a selector with every built-in parser registered.
func DefaultSelector(caps BinarySupport, logger *slog.Logger) *Selector {
	s := NewSelector(caps, logger)
	s.Register(NewTextParser())
	s.Register(NewCSVParser())
	s.Register(NewJSONParser())
	s.Register(NewXMLParser())
	s.Register(NewPDFParser(caps))
	s.Register(NewDOCXParser(caps))
	return s
}

// Register adds or replaces the parser for its format.
func (s *Selector) Register(p driven.Parser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parsers[p.Format()] = p
}

// Get returns the parser for a filename (or bare extension such as
// ".csv") and declared media type. The extension wins when both match.
// Returns nil when nothing matches.
func (s *Selector) Get(filename, mimeType string) driven.Parser {
	format, ok := FormatFor(filename, mimeType)
	if !ok {
		s.logger.Debug("no parser for file", "filename", filename, "mime_type", mimeType)
		return nil
	}
	return s.ForFormat(format)
}

// ForFormat returns the registered parser for a format, or nil.
func (s *Selector) ForFormat(format domain.Format) driven.Parser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parsers[format]
}

// Formats describes every registered format with its extensions and media types.
func (s *Selector) Formats() []domain.FormatInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.FormatInfo, 0, len(s.parsers))
	for _, f := range formatOrder {
		if _, ok := s.parsers[f]; !ok {
			continue
		}
		info := domain.FormatInfo{
			Format:     f,
			Extensions: keysFor(extensionFormats, f),
			MimeTypes:  keysFor(mimeFormats, f),
			Available:  !f.IsBinary() || s.caps == nil || s.caps.BinaryFormatsAvailable(),
		}
		if f == domain.FormatText {
			info.MimeTypes = append(info.MimeTypes, "text/*")
		}
		infos = append(infos, info)
	}
	return infos
}

// FormatFor resolves a format by extension first, then media type.
func FormatFor(filename, mimeType string) (domain.Format, bool) {
	if ext := extensionOf(filename); ext != "" {
		if f, ok := extensionFormats[ext]; ok {
			return f, true
		}
	}
	return formatForMIME(mimeType)
}

func extensionOf(filename string) string {
	filename = strings.ToLower(strings.TrimSpace(filename))
	if filename == "" {
		return ""
	}
	if strings.HasPrefix(filename, ".") && !strings.ContainsAny(filename[1:], "./\\") {
		return filename
	}
	return filepath.Ext(filename)
}

// formatForMIME matches exact types, then +json/+xml suffixes, then text/*.
func formatForMIME(mimeType string) (domain.Format, bool) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if mimeType == "" {
		return "", false
	}

	if f, ok := mimeFormats[mimeType]; ok {
		return f, true
	}
	switch {
	case strings.HasSuffix(mimeType, "+json"):
		return domain.FormatJSON, true
	case strings.HasSuffix(mimeType, "+xml"):
		return domain.FormatXML, true
	case strings.HasPrefix(mimeType, "text/"):
		return domain.FormatText, true
	}
	return "", false
}

func keysFor(table map[string]domain.Format, f domain.Format) []string {
	var keys []string
	for k, v := range table {
		if v == f {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
