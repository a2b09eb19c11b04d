package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/studyforge/tutorai/internal/domain"
)

// maxBackfillPerCycle caps how many passages are re-embedded in one polling
// cycle so a recovering provider is not flooded.
const maxBackfillPerCycle = 25

// BackfillStore defines the chapter access the backfill needs.
type BackfillStore interface {
	ListIDs(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id string) (*domain.Chapter, error)
	UpdatePassageEmbedding(ctx context.Context, chapterID string, index int, embedding []float32) error
}

// Embedder generates one embedding per text.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingBackfill re-embeds passages that were saved with zero vectors
// because the embedding provider was unavailable at ingestion time.
type EmbeddingBackfill struct {
	store    BackfillStore
	embedder Embedder
}

// NewEmbeddingBackfill creates a new EmbeddingBackfill instance
func NewEmbeddingBackfill(store BackfillStore, embedder Embedder) *EmbeddingBackfill {
	return &EmbeddingBackfill{
		store:    store,
		embedder: embedder,
	}
}

// ProcessJobs implements the JobProcessor interface. It scans loaded
// chapters for passages without a usable embedding and fills them in. The
// first provider failure aborts the cycle; the poller retries next round.
func (b *EmbeddingBackfill) ProcessJobs(ctx context.Context) error {
	ids, err := b.store.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list chapters: %w", err)
	}

	processed := 0
	for _, id := range ids {
		if processed >= maxBackfillPerCycle {
			return nil
		}

		chapter, err := b.store.GetByID(ctx, id)
		if err != nil {
			log.Printf("backfill: failed to load chapter %s: %v", id, err)
			continue
		}

		for i := range chapter.Passages {
			if processed >= maxBackfillPerCycle {
				return nil
			}
			p := &chapter.Passages[i]
			if p.HasEmbedding() {
				continue
			}

			embedding, err := b.embedder.GenerateEmbedding(ctx, p.Text)
			if err != nil {
				// Provider still down; try again next cycle.
				return fmt.Errorf("embedding provider unavailable: %w", err)
			}

			if err := b.store.UpdatePassageEmbedding(ctx, chapter.ID, p.Index, embedding); err != nil {
				log.Printf("backfill: failed to store embedding for chapter %s passage %d: %v", chapter.ID, p.Index, err)
				continue
			}
			processed++
		}
	}

	if processed > 0 {
		log.Printf("backfill: embedded %d passages", processed)
	}
	return nil
}
