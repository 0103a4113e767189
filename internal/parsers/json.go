package parsers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

var _ driven.Parser = (*JSONParser)(nil)

const (
	jsonSampleItems   = 10
	jsonMaxKeysListed = 20
)

var errInvalidJSON = errors.New("invalid JSON after repair")

// JSONParser handles JSON documents, tolerating comments and trailing commas.
type JSONParser struct{}

// NewJSONParser creates a JSONParser.
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// Format returns domain.FormatJSON.
func (p *JSONParser) Format() domain.Format {
	return domain.FormatJSON
}

// Parse validates the document, repairing it once if needed, and emits
// one section per top-level key or an array overview.
func (p *JSONParser) Parse(in domain.ParseInput) (*domain.ParserResult, error) {
	text, _, data, err := readText(in, domain.FormatJSON)
	if err != nil {
		return nil, err
	}

	doc := text
	repaired := false
	if !gjson.Valid(doc) {
		doc = repairJSON(doc)
		repaired = true
		if !gjson.Valid(doc) {
			return nil, withPath(domain.NewParseError(domain.ErrStructuralParse, domain.FormatJSON, errInvalidJSON), in)
		}
	}

	root := gjson.Parse(doc)
	metadata := map[string]any{
		"file_size": len(data),
		"repaired":  repaired,
	}

	var sections []domain.Section
	switch {
	case root.IsObject():
		sections = objectSections(root, metadata)
	case root.IsArray():
		sections = arraySections(root, metadata)
	default:
		metadata["structure_type"] = "scalar"
		sections = fallbackSections(jsonValueText(root))
	}

	return newResult(fileStem(in), text, sections, metadata), nil
}

// FullText returns the document text as uploaded. The document is not
// validated, so malformed JSON still yields its text.
func (p *JSONParser) FullText(in domain.ParseInput) (string, error) {
	return decodedText(in, domain.FormatJSON)
}

// Sections returns the per-key or array sections.
func (p *JSONParser) Sections(in domain.ParseInput) ([]domain.Section, error) {
	return sectionsOf(p, in)
}

func objectSections(root gjson.Result, metadata map[string]any) []domain.Section {
	var (
		sections []domain.Section
		keys     []string
	)
	root.ForEach(func(key, value gjson.Result) bool {
		keys = append(keys, key.String())
		sections = append(sections, domain.Section{
			Title:   key.String(),
			Content: jsonValueText(value),
			Level:   1,
		})
		return true
	})

	listed := keys
	if len(listed) > jsonMaxKeysListed {
		listed = listed[:jsonMaxKeysListed]
	}
	metadata["structure_type"] = "object"
	metadata["keys_count"] = len(keys)
	metadata["top_level_keys"] = listed
	return sections
}

func arraySections(root gjson.Result, metadata map[string]any) []domain.Section {
	items := root.Array()
	metadata["structure_type"] = "array"
	metadata["items_count"] = len(items)

	sections := []domain.Section{{
		Title:   "Structure",
		Content: fmt.Sprintf("Array with %d elements", len(items)),
		Level:   1,
	}}
	if len(items) == 0 {
		return sections
	}

	sample := items
	if len(sample) > jsonSampleItems {
		sample = sample[:jsonSampleItems]
	}
	parts := make([]string, 0, len(sample))
	allObjects := true
	for _, item := range sample {
		parts = append(parts, jsonValueText(item))
		if !item.IsObject() {
			allObjects = false
		}
	}
	sections = append(sections, domain.Section{
		Title:   fmt.Sprintf("Sample Items (1-%d)", len(sample)),
		Content: strings.Join(parts, "\n\n"),
		Level:   1,
	})

	if allObjects {
		fields := unionKeys(sample)
		metadata["common_item_keys"] = fields
		sections = append(sections, domain.Section{
			Title:   "Schema",
			Content: "Fields: " + strings.Join(fields, ", "),
			Level:   1,
		})
	}
	return sections
}

// unionKeys collects object keys in first-seen order.
func unionKeys(items []gjson.Result) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, item := range items {
		item.ForEach(func(key, _ gjson.Result) bool {
			k := key.String()
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
			return true
		})
	}
	return keys
}

// jsonValueText renders strings unquoted and containers pretty-printed.
func jsonValueText(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return v.String()
	case v.IsObject() || v.IsArray():
		return strings.TrimRight(string(pretty.Pretty([]byte(v.Raw))), "\n")
	default:
		return v.Raw
	}
}

// repairJSON strips comments outside strings and trailing commas before
// a closing bracket or brace.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch c {
			case '\\':
				if i+1 < len(s) {
					i++
					b.WriteByte(s[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				i = len(s)
			} else {
				i += end + 3
			}
		default:
			b.WriteByte(c)
		}
	}

	return stripTrailingCommas(b.String())
}

func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch c {
			case '\\':
				if i+1 < len(s) {
					i++
					b.WriteByte(s[i])
				}
			case '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == ']' || s[j] == '}') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
