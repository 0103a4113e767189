package parsers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

func TestSelector_Get(t *testing.T) {
	s := DefaultSelector(staticCaps(true), nil)

	tests := []struct {
		name     string
		filename string
		mimeType string
		want     domain.Format
	}{
		{"text extension", "notes.txt", "", domain.FormatText},
		{"markdown", "README.md", "", domain.FormatText},
		{"uppercase extension", "DATA.CSV", "", domain.FormatCSV},
		{"bare extension", ".csv", "", domain.FormatCSV},
		{"tsv", "sheet.tsv", "", domain.FormatCSV},
		{"json", "a/b/config.json", "", domain.FormatJSON},
		{"xml", "feed.xml", "", domain.FormatXML},
		{"pdf", "paper.pdf", "", domain.FormatPDF},
		{"docx", "letter.docx", "", domain.FormatDOCX},
		{"extension wins over media type", "data.json", "text/plain", domain.FormatJSON},
		{"unknown extension uses media type", "file.xyz", "application/json", domain.FormatJSON},
		{"media type with parameters", "report", "application/pdf; charset=binary", domain.FormatPDF},
		{"media type case", "", "Application/XML", domain.FormatXML},
		{"json suffix", "", "application/ld+json", domain.FormatJSON},
		{"xml suffix", "", "image/svg+xml", domain.FormatXML},
		{"text wildcard", "", "text/markdown", domain.FormatText},
		{"text csv exact", "", "text/csv", domain.FormatCSV},
		{"docx media type", "", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", domain.FormatDOCX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := s.Get(tt.filename, tt.mimeType)
			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.Format())
		})
	}
}

func TestSelector_NoParser(t *testing.T) {
	s := DefaultSelector(nil, nil)

	tests := []struct {
		filename string
		mimeType string
	}{
		{"file.xyz", ""},
		{"image.png", "image/png"},
		{"archive", "application/zip"},
		{"", ""},
		{"legacy.doc", "application/msword"},
	}

	for _, tt := range tests {
		assert.Nil(t, s.Get(tt.filename, tt.mimeType), "%s %s", tt.filename, tt.mimeType)
	}
}

func TestSelector_UnregisteredFormat(t *testing.T) {
	s := NewSelector(nil, nil)
	s.Register(NewTextParser())

	assert.NotNil(t, s.Get("a.txt", ""))
	assert.Nil(t, s.Get("a.pdf", ""))
	assert.Nil(t, s.ForFormat(domain.FormatCSV))
}

func TestSelector_Formats(t *testing.T) {
	s := DefaultSelector(staticCaps(false), nil)

	formats := s.Formats()
	require.Len(t, formats, 6)

	byFormat := make(map[domain.Format]domain.FormatInfo)
	for _, f := range formats {
		byFormat[f.Format] = f
	}
	assert.True(t, byFormat[domain.FormatText].Available)
	assert.False(t, byFormat[domain.FormatPDF].Available)
	assert.False(t, byFormat[domain.FormatDOCX].Available)
	assert.Equal(t, []string{".csv", ".tsv"}, byFormat[domain.FormatCSV].Extensions)
	assert.Contains(t, byFormat[domain.FormatText].MimeTypes, "text/*")
	assert.Equal(t, domain.FormatText, formats[0].Format)
}

func TestSelector_ConcurrentUse(t *testing.T) {
	s := DefaultSelector(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := s.Get("doc.json", "")
			if p == nil {
				t.Error("expected json parser")
				return
			}
			if _, err := p.Parse(dataInput("doc.json", `{"k": [1, 2]}`)); err != nil {
				t.Errorf("parse: %v", err)
			}
		}()
	}
	wg.Wait()
}
