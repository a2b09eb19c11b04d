package service

import (
	"context"
	"log"
	"math"
	"sort"

	"github.com/studyforge/tutorai/internal/domain"
	"github.com/studyforge/tutorai/internal/telemetry"
)

const (
	// DefaultSimilarityThreshold is the minimum cosine similarity a passage
	// must strictly exceed to be returned by semantic search.
	DefaultSimilarityThreshold = 0.3
	// DefaultSemanticLimit caps how many passages semantic search returns.
	DefaultSemanticLimit = 5
	// DefaultEmbeddingDimensions matches the embedding provider output size.
	DefaultEmbeddingDimensions = 1536
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SemanticRetriever ranks chapter passages by cosine similarity between the
// query embedding and each passage embedding.
type SemanticRetriever struct {
	client     EmbeddingClient
	threshold  float32
	limit      int
	dimensions int
}

// NewSemanticRetriever creates a SemanticRetriever with default threshold,
// result limit, and embedding dimensions.
func NewSemanticRetriever(client EmbeddingClient) *SemanticRetriever {
	return &SemanticRetriever{
		client:     client,
		threshold:  DefaultSimilarityThreshold,
		limit:      DefaultSemanticLimit,
		dimensions: DefaultEmbeddingDimensions,
	}
}

// Embed vectorizes text through the embedding provider. On any provider
// error it returns a zero vector; callers must treat a zero vector as
// "no signal", never as a real embedding.
func (r *SemanticRetriever) Embed(ctx context.Context, text string) []float32 {
	if r.client == nil {
		return make([]float32, r.dimensions)
	}

	embedding, err := r.client.GenerateEmbedding(ctx, text)
	if err != nil {
		log.Printf("embedding provider failed, degrading to zero vector: %v", err)
		telemetry.CaptureError(ctx, err)
		return make([]float32, r.dimensions)
	}
	return embedding
}

// Search embeds the query and ranks the chapter's passages by cosine
// similarity, keeping results strictly above the threshold, sorted
// descending. An unavailable provider yields a zero query vector, so nothing
// clears the threshold and the caller falls back to keyword retrieval.
func (r *SemanticRetriever) Search(ctx context.Context, query string, chapter *domain.Chapter) *domain.RetrievalResult {
	result := &domain.RetrievalResult{Method: domain.RetrievalMethodSemantic}
	if chapter == nil || len(chapter.Passages) == 0 {
		return result
	}

	queryVec := r.Embed(ctx, query)
	if isZeroVector(queryVec) {
		return result
	}

	type scored struct {
		index int
		score float32
	}
	candidates := make([]scored, 0, len(chapter.Passages))
	for i, p := range chapter.Passages {
		score := CosineSimilarity(queryVec, p.Embedding)
		if score > r.threshold {
			candidates = append(candidates, scored{index: i, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	limit := r.limit
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	for _, c := range candidates[:limit] {
		result.Passages = append(result.Passages, domain.RetrievedPassage{
			Text:  chapter.Passages[c.index].Text,
			Score: c.score,
		})
	}
	return result
}

// CosineSimilarity computes the normalized dot product of two vectors.
// Mismatched lengths are compared over the shorter prefix; zero-length or
// zero-magnitude vectors yield 0, never an error.
func CosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func isZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
