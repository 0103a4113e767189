package parsers

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

var _ driven.Parser = (*XMLParser)(nil)

const (
	xmlMaxChildSections  = 10
	xmlOutlineDepth      = 3
	xmlOutlineChildren   = 5
	xmlOutlineAttributes = 3
	xmlOutlineTextRunes  = 30
	xmlDeclarationWindow = 100
)

// titleAttributes name a child element in its section title, first match wins.
var titleAttributes = []string{"name", "id", "title", "type"}

// XMLParser handles XML documents.
type XMLParser struct{}

// NewXMLParser creates an XMLParser.
func NewXMLParser() *XMLParser {
	return &XMLParser{}
}

// Format returns domain.FormatXML.
func (p *XMLParser) Format() domain.Format {
	return domain.FormatXML
}

// Parse builds a root overview, an outline and one section per direct child.
func (p *XMLParser) Parse(in domain.ParseInput) (*domain.ParserResult, error) {
	text, _, data, err := readText(in, domain.FormatXML)
	if err != nil {
		return nil, err
	}

	root, err := readXML(text)
	if err != nil {
		root, err = readXML(repairXML(text))
		if err != nil {
			return nil, withPath(domain.NewParseError(domain.ErrStructuralParse, domain.FormatXML, err), in)
		}
	}

	return newResult(fileStem(in), text, xmlSections(root), xmlMetadata(root, len(data))), nil
}

// FullText returns the document text as uploaded without building a tree,
// so malformed XML still yields its text.
func (p *XMLParser) FullText(in domain.ParseInput) (string, error) {
	return decodedText(in, domain.FormatXML)
}

// Sections returns the root, outline and child sections.
func (p *XMLParser) Sections(in domain.ParseInput) ([]domain.Section, error) {
	return sectionsOf(p, in)
}

// readXML parses already decoded text, so any declared charset is ignored.
func readXML(text string) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	doc.ReadSettings.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := doc.ReadFromString(text); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, etree.ErrXML
	}
	return root, nil
}

// repairXML drops an XML declaration that is not properly terminated.
func repairXML(text string) string {
	text = strings.TrimLeft(text, " \t\r\n")
	idx := strings.Index(text, "<?xml")
	if idx < 0 {
		return text
	}
	end := strings.Index(text[idx:], "?>")
	if end >= 0 && end <= xmlDeclarationWindow {
		return text
	}
	rest := text[idx+len("<?xml"):]
	if next := strings.IndexByte(rest, '<'); next >= 0 {
		return text[:idx] + rest[next:]
	}
	return text[:idx] + rest
}

func xmlSections(root *etree.Element) []domain.Section {
	children := root.ChildElements()

	sections := []domain.Section{
		{
			Title:   "Root Element",
			Content: fmt.Sprintf("<%s> (with %d direct children)", root.FullTag(), len(children)),
			Level:   1,
		},
		{
			Title:   "Structure",
			Content: xmlOutline(root, 0),
			Level:   1,
		},
	}

	shown := children
	if len(shown) > xmlMaxChildSections {
		shown = shown[:xmlMaxChildSections]
	}
	for _, child := range shown {
		sections = append(sections, domain.Section{
			Title:   childTitle(child),
			Content: childContent(child),
			Level:   2,
		})
	}

	if hidden := len(children) - len(shown); hidden > 0 {
		sections = append(sections, domain.Section{
			Title: "Note",
			Content: fmt.Sprintf("Showing only the first %d of %d child elements (%d more not shown).",
				len(shown), len(children), hidden),
			Level: 1,
		})
	}
	return sections
}

func childTitle(el *etree.Element) string {
	for _, key := range titleAttributes {
		if v := el.SelectAttrValue(key, ""); v != "" {
			return el.FullTag() + " - " + v
		}
	}
	return el.FullTag()
}

// childContent serialises a subtree with indentation, or summarises it
// if serialisation fails.
func childContent(el *etree.Element) string {
	doc := etree.NewDocumentWithRoot(el.Copy())
	doc.Indent(2)
	out, err := doc.WriteToString()
	if err == nil {
		return strings.TrimRight(out, "\n")
	}

	summary := fmt.Sprintf("<%s> with %d children and %d attributes", el.FullTag(), len(el.ChildElements()), len(el.Attr))
	if len(el.Attr) > 0 {
		attrs := make([]string, 0, len(el.Attr))
		for _, a := range el.Attr {
			attrs = append(attrs, fmt.Sprintf("%s='%s'", a.FullKey(), a.Value))
		}
		summary += "\n\nAttributes: " + strings.Join(attrs, ", ")
	}
	return summary
}

// xmlOutline renders a bounded indented outline of the tree.
func xmlOutline(el *etree.Element, depth int) string {
	indent := strings.Repeat("  ", depth)
	if depth > xmlOutlineDepth {
		return indent + "..."
	}

	var b strings.Builder
	b.WriteString(indent + "<" + el.FullTag())

	if len(el.Attr) > 0 {
		attrs := make([]string, 0, xmlOutlineAttributes+1)
		for i, a := range el.Attr {
			if i == xmlOutlineAttributes {
				attrs = append(attrs, "...")
				break
			}
			attrs = append(attrs, fmt.Sprintf("%s='%s'", a.FullKey(), a.Value))
		}
		b.WriteString(" " + strings.Join(attrs, " "))
	}

	children := el.ChildElements()
	text := strings.TrimSpace(el.Text())
	if len(children) == 0 && text == "" {
		b.WriteString("/>")
		return b.String()
	}
	b.WriteString(">")

	if text != "" {
		if len([]rune(text)) > xmlOutlineTextRunes {
			text = truncateRunes(text, xmlOutlineTextRunes) + "..."
		}
		b.WriteString(" " + text + " ")
	}

	if len(children) == 0 {
		b.WriteString("</" + el.FullTag() + ">")
		return b.String()
	}

	b.WriteString("\n")
	for i, child := range children {
		if i == xmlOutlineChildren {
			fmt.Fprintf(&b, "%s  ... (%d more elements)\n", indent, len(children)-xmlOutlineChildren)
			break
		}
		b.WriteString(xmlOutline(child, depth+1) + "\n")
	}
	b.WriteString(indent + "</" + el.FullTag() + ">")
	return b.String()
}

func xmlMetadata(root *etree.Element, size int) map[string]any {
	rootAttrs := make(map[string]string)
	namespaces := make(map[string]string)
	for _, a := range root.Attr {
		switch {
		case a.Space == "" && a.Key == "xmlns":
			namespaces["default"] = a.Value
		case a.Space == "xmlns":
			namespaces[a.Key] = a.Value
		default:
			rootAttrs[a.FullKey()] = a.Value
		}
	}

	counts := make(map[string]int)
	total := countElements(root, counts)

	metadata := map[string]any{
		"file_size":            size,
		"root_element":         root.FullTag(),
		"root_attributes":      rootAttrs,
		"child_elements_count": len(root.ChildElements()),
		"element_count":        total,
		"element_counts":       counts,
	}
	if len(namespaces) > 0 {
		metadata["namespaces"] = namespaces
	}
	return metadata
}

// countElements tallies every descendant by tag and returns the total.
func countElements(el *etree.Element, counts map[string]int) int {
	total := 0
	for _, child := range el.ChildElements() {
		counts[child.FullTag()]++
		total += 1 + countElements(child, counts)
	}
	return total
}
