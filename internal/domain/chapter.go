package domain

import (
	"fmt"
	"time"
)

// Section is a titled subdivision of a chapter, carried through from the
// source document so retrieval can match against section titles.
type Section struct {
	Title   string
	Content string
}

// Passage is the atomic unit of retrieval: a bounded, sentence-aligned slice
// of chapter text produced at ingestion. Passages are immutable after
// creation and ordered by Index within their chapter.
type Passage struct {
	Index        int
	Text         string
	SectionTitle string
	Embedding    []float32
}

// HasEmbedding reports whether the passage carries a usable embedding.
// A zero vector means the embedding provider was unavailable at ingestion.
func (p *Passage) HasEmbedding() bool {
	for _, v := range p.Embedding {
		if v != 0 {
			return true
		}
	}
	return false
}

// Chapter is one ingested knowledge chapter. A chapter owns its passages
// exclusively; re-ingestion replaces the record wholesale.
type Chapter struct {
	ID        string
	Title     string
	Content   string
	Sections  []Section
	Passages  []Passage
	UpdatedAt time.Time
}

// SectionTitles returns the ordered section titles of the chapter.
func (c *Chapter) SectionTitles() []string {
	titles := make([]string, 0, len(c.Sections))
	for _, s := range c.Sections {
		titles = append(titles, s.Title)
	}
	return titles
}

// ChapterSummary is the catalog view of a chapter, loaded without passages.
type ChapterSummary struct {
	ID           string
	Title        string
	PassageCount int
	UpdatedAt    time.Time
}

// NewChapter creates a new Chapter instance.
func NewChapter(id, title, content string, sections []Section, passages []Passage, updatedAt time.Time) *Chapter {
	return &Chapter{
		ID:        id,
		Title:     title,
		Content:   content,
		Sections:  sections,
		Passages:  passages,
		UpdatedAt: updatedAt,
	}
}

// ValidateChapter validates a Chapter instance.
func ValidateChapter(c *Chapter) error {
	if c == nil {
		return fmt.Errorf("chapter cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("chapter ID is required")
	}

	if c.Title == "" {
		return fmt.Errorf("chapter Title is required")
	}

	if c.Content == "" {
		return fmt.Errorf("chapter Content is required")
	}

	for i, p := range c.Passages {
		if p.Text == "" {
			return fmt.Errorf("chapter passage %d is empty", i)
		}
		if p.Index != i {
			return fmt.Errorf("chapter passage %d has index %d, ordering must match ingestion order", i, p.Index)
		}
	}

	return nil
}
