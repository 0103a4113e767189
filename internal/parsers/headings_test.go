package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"# Title", 1},
		{"### Deep Dive", 3},
		{"Chapter 1: Introduction", 1},
		{"CHAPTER 2", 1},
		{"Section 2.1 Scope", 2},
		{"Part IV - Appendices", 1},
		{"Section 3 of the contract says fees apply.", 0},
		{"1. Introduction", 1},
		{"2) Background", 1},
		{"1.2 Background", 2},
		{"1.2.3 Details", 3},
		{"IV. Results", 1},
		{"a) Notes", 2},
		{"(3) Limitations", 2},
		{"RESULTS AND DISCUSSION", 1},
		{"Some body text.", 0},
		{"1. buy milk", 0},
		{"1. This sentence is a numbered list item that ends with a period.", 0},
		{"THIS LINE HAS FAR TOO MANY WORDS TO BE A HEADING", 0},
		{"I", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, headingLevel(tt.line))
		})
	}
}

func TestSplitSections_AllCaps(t *testing.T) {
	sections := splitSections("INTRODUCTION\nSome body text.\nMETHODS\nMore text.")

	require.Len(t, sections, 2)
	assert.Equal(t, domain.Section{Title: "INTRODUCTION", Content: "Some body text.", Level: 1}, sections[0])
	assert.Equal(t, domain.Section{Title: "METHODS", Content: "More text.", Level: 1}, sections[1])
}

func TestSplitSections_IntroductionBeforeFirstHeading(t *testing.T) {
	sections := splitSections("Some preamble.\n\nMETHODS\nBody.")

	require.Len(t, sections, 2)
	assert.Equal(t, "Introduction", sections[0].Title)
	assert.Equal(t, "Some preamble.", sections[0].Content)
	assert.Equal(t, "METHODS", sections[1].Title)
}

func TestSplitSections_Underlines(t *testing.T) {
	text := "Overview\n========\nBody here.\n\nDetails\n-------\nMore body."

	sections := splitSections(text)

	require.Len(t, sections, 2)
	assert.Equal(t, domain.Section{Title: "Overview", Content: "Body here.", Level: 1}, sections[0])
	assert.Equal(t, domain.Section{Title: "Details", Content: "More body.", Level: 2}, sections[1])
}

func TestSplitSections_Markdown(t *testing.T) {
	sections := splitSections("# Guide\nIntro line.\n## Install\nRun it.")

	require.Len(t, sections, 2)
	assert.Equal(t, "Guide", sections[0].Title)
	assert.Equal(t, 1, sections[0].Level)
	assert.Equal(t, "Install", sections[1].Title)
	assert.Equal(t, 2, sections[1].Level)
}

func TestSplitSections_NoHeadings(t *testing.T) {
	text := "just some words\nand a few more words here."

	sections := splitSections(text)

	require.Len(t, sections, 1)
	assert.Equal(t, "Content", sections[0].Title)
	assert.Equal(t, text, sections[0].Content)
}

func TestSplitSections_Empty(t *testing.T) {
	sections := splitSections("")

	require.Len(t, sections, 1)
	assert.Equal(t, "Content", sections[0].Title)
	assert.Equal(t, "", sections[0].Content)
}
