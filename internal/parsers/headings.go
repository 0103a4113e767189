package parsers

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// Heading heuristics for unstructured text. Rules are tried in order and
// the first match wins:
//
//  1. Markdown ATX headings ("# Title")
//  2. Chapter/Section/Part markers ("Chapter 2: Methods", "Section 1.2")
//  3. Enumerated markers ("1. Intro", "1.2 Scope", "IV. Results", "a) Notes", "(3) Limits")
//  4. Short all-caps lines ("RESULTS AND DISCUSSION")
//  5. A line underlined by ===, --- or ___
var (
	atxHeading      = regexp.MustCompile(`^(#{1,6})\s+(\S.*?)\s*#*$`)
	chapterHeading  = regexp.MustCompile(`^(?i:chapter|section|part)\s+(?:\d+|[IVXLCDM]+)((?:\.\d+)*)(?:\s*[:.\-]\s*(.*)|\s+(.*))?$`)
	dottedNumber    = regexp.MustCompile(`^(\d+(?:\.\d+)+)\.?\s+(.+)$`)
	simpleNumber    = regexp.MustCompile(`^\d+[.)]\s+(.+)$`)
	romanNumber     = regexp.MustCompile(`^[IVXLCDM]+[.)]\s+(.+)$`)
	letterMarker    = regexp.MustCompile(`^[A-Za-z][.)]\s+(.+)$`)
	parenthesized   = regexp.MustCompile(`^\((?:\d+|[A-Za-z]|[ivxlcdm]+)\)\s+(.+)$`)
	underlineLevel1 = regexp.MustCompile(`^={3,}$`)
	underlineLevel2 = regexp.MustCompile(`^(?:-{3,}|_{3,})$`)
)

// Limits that keep ordinary sentences from being taken for headings
const (
	maxHeadingRunes     = 100
	maxHeadingWords     = 12
	maxAllCapsWords     = 7
	minAllCapsLetters   = 2
	maxHeadingLevel     = 6
	maxEnumeratedLevels = 3
)

// headingLevel classifies one trimmed line. It returns 0 if the line is
// not a heading by rules 1 to 4; underlines are handled by the caller.
func headingLevel(line string) int {
	if line == "" || len([]rune(line)) >= maxHeadingRunes {
		return 0
	}

	if m := atxHeading.FindStringSubmatch(line); m != nil {
		return len(m[1])
	}

	if m := chapterHeading.FindStringSubmatch(line); m != nil {
		text := m[2] + m[3]
		if text == "" || plausibleHeadingText(text, false) {
			if m[1] != "" {
				return 2
			}
			return 1
		}
	}

	if m := dottedNumber.FindStringSubmatch(line); m != nil && plausibleHeadingText(m[2], true) {
		depth := strings.Count(m[1], ".") + 1
		if depth > maxEnumeratedLevels {
			depth = maxEnumeratedLevels
		}
		return depth
	}
	if m := simpleNumber.FindStringSubmatch(line); m != nil && plausibleHeadingText(m[1], true) {
		return 1
	}
	if m := romanNumber.FindStringSubmatch(line); m != nil && plausibleHeadingText(m[1], true) {
		return 1
	}
	if m := letterMarker.FindStringSubmatch(line); m != nil && plausibleHeadingText(m[1], true) {
		return 2
	}
	if m := parenthesized.FindStringSubmatch(line); m != nil && plausibleHeadingText(m[1], true) {
		return 2
	}

	if isAllCapsHeading(line) {
		return 1
	}
	return 0
}

// plausibleHeadingText rejects sentence-like text after a marker.
func plausibleHeadingText(text string, requireCapital bool) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if requireCapital {
		first := []rune(text)[0]
		if !unicode.IsUpper(first) && !unicode.IsDigit(first) {
			return false
		}
	}
	if len(strings.Fields(text)) > maxHeadingWords {
		return false
	}
	switch text[len(text)-1] {
	case '.', ',', ';':
		return false
	}
	return true
}

func isAllCapsHeading(line string) bool {
	if len(strings.Fields(line)) > maxAllCapsWords {
		return false
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= minAllCapsLetters
}

func underlineLevel(line string) int {
	switch {
	case underlineLevel1.MatchString(line):
		return 1
	case underlineLevel2.MatchString(line):
		return 2
	}
	return 0
}

// splitSections groups lines under detected headings. Text before the
// first heading becomes an "Introduction" section; text without any
// heading becomes a single "Content" section.
func splitSections(text string) []domain.Section {
	lines := strings.Split(text, "\n")

	var (
		sections []domain.Section
		current  *domain.Section
		body     []string
		found    bool
	)

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		if current != nil {
			current.Content = content
			sections = append(sections, *current)
			return
		}
		if content != "" {
			sections = append(sections, domain.Section{Title: introductionSectionTitle, Content: content, Level: 1})
		}
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		level := headingLevel(line)

		var next string
		if i+1 < len(lines) {
			next = strings.TrimSpace(lines[i+1])
		}
		underlined := line != "" && underlineLevel(line) == 0 && underlineLevel(next) > 0
		if level == 0 && underlined {
			level = underlineLevel(next)
		}

		if level == 0 {
			body = append(body, lines[i])
			continue
		}

		flush()
		found = true
		if level > maxHeadingLevel {
			level = maxHeadingLevel
		}
		current = &domain.Section{Title: headingTitle(line), Level: level}
		if underlined {
			i++
		}
	}
	flush()

	if !found {
		return fallbackSections(strings.TrimSpace(text))
	}
	return sections
}

// headingTitle strips markdown markers from a heading line.
func headingTitle(line string) string {
	if m := atxHeading.FindStringSubmatch(line); m != nil {
		return m[2]
	}
	return line
}
