package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// Every successful parse yields at least one section, a non-nil
// metadata map with file_size, and the same result on a second call.
func TestAllParsers_ResultInvariants(t *testing.T) {
	s := DefaultSelector(staticCaps(true), nil)

	inputs := []domain.ParseInput{
		dataInput("a.txt", "no headings at all"),
		dataInput("b.txt", ""),
		dataInput("c.csv", "x"),
		dataInput("d.json", `{}`),
		dataInput("e.json", `42`),
		dataInput("f.xml", `<empty/>`),
		{Data: buildTextPDF(t, "", "", ""), Filename: "g.pdf"},
		{Data: buildDocx(t, ""), Filename: "h.docx"},
	}

	for _, in := range inputs {
		t.Run(in.Filename, func(t *testing.T) {
			p := s.Get(in.Filename, in.MimeType)
			require.NotNil(t, p)

			first, err := p.Parse(in)
			require.NoError(t, err)
			require.NotEmpty(t, first.Sections)
			require.NotNil(t, first.Metadata)
			assert.Contains(t, first.Metadata, "file_size")
			for _, sec := range first.Sections {
				assert.GreaterOrEqual(t, sec.Level, 1)
			}

			second, err := p.Parse(in)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestEncodeResult(t *testing.T) {
	res := newResult("Notes", "body", nil, map[string]any{"file_size": 4})

	out, err := EncodeResult(res)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, `"title": "Notes"`)
	assert.Contains(t, text, `"title": "Content"`)
	assert.Contains(t, text, `"file_size": 4`)
	assert.True(t, strings.HasSuffix(text, "}\n"))
}
