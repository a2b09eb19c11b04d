package service

import (
	"testing"
	"time"

	"github.com/studyforge/tutorai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frictionChapter() *domain.Chapter {
	return domain.NewChapter(
		"ch-friction",
		"Friction",
		"Friction chapter text.",
		[]domain.Section{
			{Title: "What Friction Is", Content: "..."},
			{Title: "Rolling Friction", Content: "..."},
		},
		[]domain.Passage{
			{Index: 0, Text: "Friction is a force that opposes relative motion between two surfaces.", SectionTitle: "What Friction Is"},
			{Index: 1, Text: "Rolling friction is smaller than sliding friction for the same pair of surfaces.", SectionTitle: "Rolling Friction"},
			{Index: 2, Text: "Lubricants reduce wear by forming a thin layer between moving parts.", SectionTitle: "Rolling Friction"},
			{Index: 3, Text: "Heat is generated when surfaces rub against each other.", SectionTitle: "Rolling Friction"},
		},
		time.Now().UTC(),
	)
}

func TestKeywordSearch_PhraseMatchRanksFirst(t *testing.T) {
	chapter := frictionChapter()
	chapter.Passages = append(chapter.Passages, domain.Passage{
		Index: 4, Text: "An aside mentioning that opposes relative motion appears here too.", SectionTitle: "Rolling Friction",
	})

	result := KeywordSearch(chapter, "opposes relative motion")
	require.NotEmpty(t, result.Passages)
	assert.Equal(t, domain.RetrievalMethodKeyword, result.Method)
	// Both passages phrase-match; source order decides between them.
	assert.Equal(t, chapter.Passages[0].Text, result.Passages[0].Text)
}

func TestKeywordSearch_TermMatch(t *testing.T) {
	result := KeywordSearch(frictionChapter(), "what is friction")
	require.NotEmpty(t, result.Passages)
	assert.Equal(t, "Friction is a force that opposes relative motion between two surfaces.", result.Passages[0].Text)
}

func TestKeywordSearch_ShortTermsIgnored(t *testing.T) {
	// Every word is two characters or fewer, so nothing can match.
	result := KeywordSearch(frictionChapter(), "is it ok")
	assert.Empty(t, result.Passages)
}

func TestKeywordSearch_SectionTitleMatch(t *testing.T) {
	result := KeywordSearch(frictionChapter(), "rolling")
	require.NotEmpty(t, result.Passages)
	// All passages under the "Rolling Friction" section match via the title.
	assert.Len(t, result.Passages, 3)
}

func TestKeywordSearch_DuplicateTextsRemoved(t *testing.T) {
	chapter := frictionChapter()
	chapter.Passages = append(chapter.Passages, domain.Passage{
		Index: 4, Text: chapter.Passages[0].Text, SectionTitle: "What Friction Is",
	})

	result := KeywordSearch(chapter, "friction")
	texts := map[string]int{}
	for _, p := range result.Passages {
		texts[p.Text]++
	}
	for text, count := range texts {
		assert.Equal(t, 1, count, "duplicate passage text returned: %q", text)
	}
}

func TestKeywordSearch_PunctuationTrimmed(t *testing.T) {
	result := KeywordSearch(frictionChapter(), "what is friction?")
	require.NotEmpty(t, result.Passages)
	assert.Equal(t, "Friction is a force that opposes relative motion between two surfaces.", result.Passages[0].Text)
}

func TestKeywordSearch_NoMatch(t *testing.T) {
	result := KeywordSearch(frictionChapter(), "photosynthesis chlorophyll")
	assert.Empty(t, result.Passages)
}

func TestKeywordSearch_EmptyQueryAndNilChapter(t *testing.T) {
	assert.Empty(t, KeywordSearch(frictionChapter(), "   ").Passages)
	assert.Empty(t, KeywordSearch(nil, "friction").Passages)
}

func TestKeywordSearch_CaseInsensitive(t *testing.T) {
	result := KeywordSearch(frictionChapter(), "LUBRICANTS")
	require.Len(t, result.Passages, 1)
	assert.Contains(t, result.Passages[0].Text, "Lubricants")
}
