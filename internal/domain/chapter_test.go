package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validChapter() *Chapter {
	return NewChapter(
		"ch-friction",
		"Friction",
		"Friction is a force that opposes relative motion between surfaces in contact.",
		[]Section{{Title: "Static Friction", Content: "Static friction acts on bodies at rest."}},
		[]Passage{
			{Index: 0, Text: "Friction is a force that opposes relative motion between surfaces in contact."},
			{Index: 1, Text: "Static friction acts on bodies at rest."},
		},
		time.Now().UTC(),
	)
}

func TestValidateChapter(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Chapter)
		wantErr string
	}{
		{
			name:   "valid chapter",
			mutate: func(c *Chapter) {},
		},
		{
			name:    "missing ID",
			mutate:  func(c *Chapter) { c.ID = "" },
			wantErr: "chapter ID is required",
		},
		{
			name:    "missing title",
			mutate:  func(c *Chapter) { c.Title = "" },
			wantErr: "chapter Title is required",
		},
		{
			name:    "missing content",
			mutate:  func(c *Chapter) { c.Content = "" },
			wantErr: "chapter Content is required",
		},
		{
			name:    "empty passage text",
			mutate:  func(c *Chapter) { c.Passages[1].Text = "" },
			wantErr: "chapter passage 1 is empty",
		},
		{
			name:    "passage index out of order",
			mutate:  func(c *Chapter) { c.Passages[1].Index = 5 },
			wantErr: "ordering must match ingestion order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validChapter()
			tt.mutate(c)
			err := ValidateChapter(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateChapter_Nil(t *testing.T) {
	assert.ErrorContains(t, ValidateChapter(nil), "chapter cannot be nil")
}

func TestSectionTitles(t *testing.T) {
	c := validChapter()
	c.Sections = append(c.Sections, Section{Title: "Kinetic Friction", Content: "Kinetic friction acts on moving bodies."})
	assert.Equal(t, []string{"Static Friction", "Kinetic Friction"}, c.SectionTitles())
}

func TestPassageHasEmbedding(t *testing.T) {
	p := Passage{Index: 0, Text: "some text"}
	assert.False(t, p.HasEmbedding(), "no embedding")

	p.Embedding = make([]float32, 1536)
	assert.False(t, p.HasEmbedding(), "zero vector is not a real embedding")

	p.Embedding[3] = 0.12
	assert.True(t, p.HasEmbedding())
}
