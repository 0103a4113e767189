package parsers

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

var _ driven.Parser = (*DOCXParser)(nil)

const (
	docxDocumentPart = "word/document.xml"
	docxCorePart     = "docProps/core.xml"
	wordsPerPage     = 500
)

var errNoDocumentPart = errors.New("word/document.xml not found in archive")

// docxCoreFields maps core property element names to metadata keys.
var docxCoreFields = map[string]string{
	"title":          "title",
	"creator":        "author",
	"subject":        "subject",
	"keywords":       "keywords",
	"description":    "description",
	"lastModifiedBy": "last_modified_by",
	"created":        "created",
	"modified":       "modified",
}

// DOCXParser extracts paragraphs from Word documents, using paragraph
// styles as the heading signal.
type DOCXParser struct {
	caps BinarySupport
}

// NewDOCXParser creates a DOCXParser gated by caps.
func NewDOCXParser(caps BinarySupport) *DOCXParser {
	return &DOCXParser{caps: caps}
}

// Format returns domain.FormatDOCX.
func (p *DOCXParser) Format() domain.Format {
	return domain.FormatDOCX
}

type docxParagraph struct {
	text  string
	level int
}

// Parse reads paragraphs and core properties from the archive.
func (p *DOCXParser) Parse(in domain.ParseInput) (*domain.ParserResult, error) {
	if err := checkBinarySupport(p.caps, domain.FormatDOCX, in); err != nil {
		return nil, err
	}
	data, zr, paragraphs, err := openDocx(in)
	if err != nil {
		return nil, err
	}

	content := joinParagraphs(paragraphs)
	words := len(strings.Fields(content))

	metadata := readDocxCore(zr)
	metadata["file_size"] = len(data)
	metadata["paragraph_count"] = len(paragraphs)
	metadata["word_count"] = words
	metadata["page_count"] = estimatePages(words)

	title := fileStem(in)
	if t, ok := metadata["title"].(string); ok && t != "" {
		title = t
	}
	return newResult(title, content, docxSections(paragraphs, content), metadata), nil
}

// FullText returns the paragraph text without reading core properties or
// building sections.
func (p *DOCXParser) FullText(in domain.ParseInput) (string, error) {
	if err := checkBinarySupport(p.caps, domain.FormatDOCX, in); err != nil {
		return "", err
	}
	_, _, paragraphs, err := openDocx(in)
	if err != nil {
		return "", err
	}
	return joinParagraphs(paragraphs), nil
}

// Sections returns style-based sections.
func (p *DOCXParser) Sections(in domain.ParseInput) ([]domain.Section, error) {
	return sectionsOf(p, in)
}

// openDocx reads the input, opens the archive and extracts paragraphs.
func openDocx(in domain.ParseInput) ([]byte, *zip.Reader, []docxParagraph, error) {
	data, err := readInput(in, domain.FormatDOCX)
	if err != nil {
		return nil, nil, nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, nil, withPath(domain.NewParseError(domain.ErrStructuralParse, domain.FormatDOCX, err), in)
	}

	paragraphs, err := readDocxParagraphs(zr)
	if err != nil {
		return nil, nil, nil, withPath(domain.NewParseError(domain.ErrStructuralParse, domain.FormatDOCX, err), in)
	}
	return data, zr, paragraphs, nil
}

func joinParagraphs(paragraphs []docxParagraph) string {
	texts := make([]string, 0, len(paragraphs))
	for _, para := range paragraphs {
		texts = append(texts, para.text)
	}
	return strings.Join(texts, "\n")
}

func openZipPart(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("part %s not found", name)
}

// docxFrame is a paragraph being read. Text boxes nest paragraphs inside
// paragraphs, so frames form a stack.
type docxFrame struct {
	text  strings.Builder
	style string
	split bool
}

// readDocxParagraphs streams word/document.xml, collecting text runs and
// the paragraph style of each non-empty paragraph. A paragraph containing
// a text box is emitted as the text before the box, the box paragraphs,
// then the text after the box.
func readDocxParagraphs(zr *zip.Reader) ([]docxParagraph, error) {
	rc, err := openZipPart(zr, docxDocumentPart)
	if err != nil {
		return nil, errNoDocumentPart
	}
	defer rc.Close()

	var (
		paragraphs []docxParagraph
		stack      []*docxFrame
		inText     bool
	)

	// emit flushes a frame's pending text. Text after a nested paragraph
	// is body text even when the outer paragraph is a heading.
	emit := func(f *docxFrame) {
		text := strings.TrimSpace(f.text.String())
		f.text.Reset()
		if text == "" {
			return
		}
		level := docxHeadingLevel(f.style)
		if f.split {
			level = 0
		}
		paragraphs = append(paragraphs, docxParagraph{text: text, level: level})
	}
	top := func() *docxFrame {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if outer := top(); outer != nil {
					emit(outer)
					outer.split = true
				}
				stack = append(stack, &docxFrame{})
			case "pStyle":
				if f := top(); f != nil {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							f.style = attr.Value
						}
					}
				}
			case "t":
				inText = top() != nil
			case "tab":
				if f := top(); f != nil {
					f.text.WriteByte('\t')
				}
			case "br", "cr":
				if f := top(); f != nil {
					f.text.WriteByte('\n')
				}
			}

		case xml.CharData:
			if f := top(); inText && f != nil {
				f.text.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if f := top(); f != nil {
					stack = stack[:len(stack)-1]
					emit(f)
				}
				inText = false
			}
		}
	}
	return paragraphs, nil
}

// docxHeadingLevel maps a paragraph style to a heading level, 0 for body text.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	switch lower {
	case "":
		return 0
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	idx := strings.Index(lower, "heading")
	if idx < 0 {
		return 0
	}
	if n, err := strconv.Atoi(lower[idx+len("heading"):]); err == nil && n >= 1 && n <= 9 {
		if n > maxHeadingLevel {
			return maxHeadingLevel
		}
		return n
	}
	return 1
}

func docxSections(paragraphs []docxParagraph, content string) []domain.Section {
	var (
		sections []domain.Section
		body     []string
		current  *domain.Section
	)
	flush := func() {
		text := strings.Join(body, "\n")
		body = body[:0]
		if current != nil {
			current.Content = text
			sections = append(sections, *current)
			return
		}
		if text != "" {
			sections = append(sections, domain.Section{Title: introductionSectionTitle, Content: text, Level: 1})
		}
	}

	found := false
	for _, para := range paragraphs {
		if para.level == 0 {
			body = append(body, para.text)
			continue
		}
		flush()
		found = true
		current = &domain.Section{Title: para.text, Level: para.level}
	}
	flush()

	if !found {
		return fallbackSections(content)
	}
	return sections
}

// readDocxCore reads docProps/core.xml. A missing or unreadable part
// yields no properties rather than an error.
func readDocxCore(zr *zip.Reader) map[string]any {
	metadata := make(map[string]any)

	rc, err := openZipPart(zr, docxCorePart)
	if err != nil {
		return metadata
	}
	defer rc.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(rc); err != nil || doc.Root() == nil {
		return metadata
	}
	for _, el := range doc.Root().ChildElements() {
		key, ok := docxCoreFields[el.Tag]
		if !ok {
			continue
		}
		if v := strings.TrimSpace(el.Text()); v != "" {
			metadata[key] = v
		}
	}
	return metadata
}

// estimatePages approximates a page count from the word count.
func estimatePages(words int) int {
	pages := int(math.Round(float64(words) / wordsPerPage))
	if pages < 1 {
		return 1
	}
	return pages
}
