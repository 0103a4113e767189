package parsers

import (
	"archive/zip"
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// staticCaps is a fixed BinarySupport for tests.
type staticCaps bool

func (c staticCaps) BinaryFormatsAvailable() bool { return bool(c) }

func dataInput(name, content string) domain.ParseInput {
	return domain.ParseInput{Data: []byte(content), Filename: name}
}

// buildTextPDF builds a one-page PDF whose lines are separated with T*,
// with an Info dictionary carrying title and author.
func buildTextPDF(t *testing.T, title, author string, lines ...string) []byte {
	t.Helper()

	var stream strings.Builder
	stream.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
	for i, line := range lines {
		if i > 0 {
			stream.WriteString("T*\n")
		}
		stream.WriteString("(" + pdfEscape(line) + ") Tj\n")
	}
	stream.WriteString("ET")
	content := stream.String()

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, 7)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Length " + strconv.Itoa(len(content)) + " >>\nstream\n" + content + "\nendstream\nendobj\n")
	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>\nendobj\n")
	offsets[6] = b.Len()
	b.WriteString("6 0 obj\n<< /Title (" + pdfEscape(title) + ") /Author (" + pdfEscape(author) + ") /CreationDate (D:20240315093000Z) >>\nendobj\n")

	xref := b.Len()
	b.WriteString("xref\n0 7\n0000000000 65535 f \n")
	for i := 1; i <= 6; i++ {
		off := strconv.Itoa(offsets[i])
		b.WriteString(strings.Repeat("0", 10-len(off)) + off + " 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size 7 /Root 1 0 R /Info 6 0 R >>\nstartxref\n")
	b.WriteString(strconv.Itoa(xref))
	b.WriteString("\n%%EOF\n")
	return []byte(b.String())
}

func pdfEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}

type docxPara struct {
	style string
	text  string
}

// buildDocx builds a minimal .docx archive. An empty title omits docProps/core.xml.
func buildDocx(t *testing.T, title string, paras ...docxPara) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paras {
		body.WriteString("<w:p>")
		if p.style != "" {
			body.WriteString(`<w:pPr><w:pStyle w:val="` + p.style + `"/></w:pPr>`)
		}
		body.WriteString("<w:r><w:t>" + p.text + "</w:t></w:r></w:p>")
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	files := map[string]string{"word/document.xml": document}
	if title != "" {
		files["docProps/core.xml"] = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
			` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">` +
			`<dc:title>` + title + `</dc:title><dc:creator>Grace Hopper</dc:creator>` +
			`<dcterms:created>2024-01-02T03:04:05Z</dcterms:created></cp:coreProperties>`
	}
	return buildZip(t, files)
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func sectionTitles(sections []domain.Section) []string {
	titles := make([]string, 0, len(sections))
	for _, s := range sections {
		titles = append(titles, s.Title)
	}
	return titles
}
