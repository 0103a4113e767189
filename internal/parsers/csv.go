package parsers

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

var _ driven.Parser = (*CSVParser)(nil)

// csvDelimiters are tried in order; the first one that yields a
// multi-column header over more than one row wins.
var csvDelimiters = []rune{',', ';', '\t', '|'}

const csvSampleRows = 10

// CSVParser handles delimited tabular text.
type CSVParser struct{}

// NewCSVParser creates a CSVParser.
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Format returns domain.FormatCSV.
func (p *CSVParser) Format() domain.Format {
	return domain.FormatCSV
}

// Parse infers the delimiter and summarises the table.
func (p *CSVParser) Parse(in domain.ParseInput) (*domain.ParserResult, error) {
	text, enc, data, err := readText(in, domain.FormatCSV)
	if err != nil {
		return nil, err
	}

	rows, delim := readRows(text)

	metadata := map[string]any{
		"file_size": len(data),
		"encoding":  enc,
		"row_count": len(rows),
	}
	if delim != 0 {
		metadata["delimiter"] = string(delim)
	}
	if len(rows) > 0 {
		metadata["column_count"] = len(rows[0])
		metadata["has_header"] = len(rows) > 1
	} else {
		metadata["column_count"] = 0
		metadata["has_header"] = false
	}
	if len(rows) > 1 {
		metadata["columns"] = rows[0]
	}

	return newResult(fileStem(in), text, csvSections(rows), metadata), nil
}

// FullText returns the decoded file contents.
// Delimiters are not inferred.
func (p *CSVParser) FullText(in domain.ParseInput) (string, error) {
	return decodedText(in, domain.FormatCSV)
}

// Sections returns the header, summary and sample sections.
func (p *CSVParser) Sections(in domain.ParseInput) ([]domain.Section, error) {
	return sectionsOf(p, in)
}

// readRows tries each delimiter and falls back to a naive comma split.
// The returned delimiter is zero when the fallback was used.
func readRows(text string) ([][]string, rune) {
	for _, d := range csvDelimiters {
		r := csv.NewReader(strings.NewReader(text))
		r.Comma = d
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		rows, err := r.ReadAll()
		if err != nil {
			continue
		}
		if len(rows) > 1 && len(rows[0]) > 1 {
			return rows, d
		}
	}

	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, strings.Split(line, ","))
	}
	return rows, 0
}

func csvSections(rows [][]string) []domain.Section {
	var sections []domain.Section
	if len(rows) == 0 || len(rows[0]) == 0 {
		return sections
	}

	sections = append(sections, domain.Section{
		Title:   "Headers",
		Content: strings.Join(rows[0], ", "),
		Level:   1,
	})

	if len(rows) < 2 {
		return sections
	}
	dataRows := rows[1:]
	sections = append(sections, domain.Section{
		Title:   "Data Summary",
		Content: fmt.Sprintf("Total rows: %d\nColumns: %d", len(dataRows), len(rows[0])),
		Level:   1,
	})

	sample := dataRows
	if len(sample) > csvSampleRows {
		sample = sample[:csvSampleRows]
	}
	lines := make([]string, 0, len(sample))
	for _, row := range sample {
		lines = append(lines, strings.Join(row, ", "))
	}
	if content := strings.Join(lines, "\n"); content != "" {
		sections = append(sections, domain.Section{Title: "Sample Data", Content: content, Level: 1})
	}
	return sections
}
