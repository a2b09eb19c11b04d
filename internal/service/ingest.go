package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/studyforge/tutorai/internal/domain"
	"github.com/studyforge/tutorai/internal/telemetry"
)

// minExtractedChars is the minimum extracted text length considered a usable
// document; anything shorter is replaced with canned chapter content.
const minExtractedChars = 50

// ChapterRepository defines the repository interface for chapter persistence.
type ChapterRepository interface {
	Save(ctx context.Context, chapter *domain.Chapter) error
	GetByID(ctx context.Context, id string) (*domain.Chapter, error)
	Delete(ctx context.Context, id string) error
	ListIDs(ctx context.Context) ([]string, error)
}

// DocumentArchiver stores the raw uploaded document for a chapter.
type DocumentArchiver interface {
	ArchiveDocument(ctx context.Context, chapterID string, raw []byte) error
}

// IngestInput is one document ingestion request.
type IngestInput struct {
	ChapterID string
	Title     string
	Raw       []byte
	// Sections optionally carries the document's own subdivision; when
	// present, passages are chunked per section so they keep their section
	// title for lexical matching.
	Sections []domain.Section
}

// IngestionService turns raw chapter documents into persisted, chunked, and
// embedded chapters. Ingestion of the same chapter id is serialized; distinct
// chapters may ingest concurrently.
type IngestionService struct {
	repo     ChapterRepository
	embedder EmbeddingClient
	archiver DocumentArchiver
	chunkCfg ChunkConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewIngestionService creates an IngestionService. embedder and archiver may
// be nil; passages are then saved without embeddings and documents are not
// archived.
func NewIngestionService(repo ChapterRepository, embedder EmbeddingClient, archiver DocumentArchiver) *IngestionService {
	return &IngestionService{
		repo:     repo,
		embedder: embedder,
		archiver: archiver,
		chunkCfg: DefaultChunkConfig(),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Ingest extracts, chunks, embeds, and saves one chapter. An unreadable or
// too-short document is recovered locally by substituting canned content for
// the chapter title; ingestion never fails for that reason.
func (s *IngestionService) Ingest(ctx context.Context, input IngestInput) (*domain.Chapter, error) {
	if input.ChapterID == "" {
		return nil, domain.ErrMissingChapterID
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "chapter title is required")
	}

	lock := s.chapterLock(input.ChapterID)
	lock.Lock()
	defer lock.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Ingest", telemetry.SpanAttributes{
		ChapterID: input.ChapterID,
		Operation: "ingest",
	})
	defer span.End()

	content := strings.TrimSpace(string(input.Raw))
	sections := input.Sections
	if len(content) < minExtractedChars {
		// IngestionError: recovered locally, never surfaced as a failure.
		log.Printf("ingestion: document for chapter %s too short (%d chars), using canned content", input.ChapterID, len(content))
		content, sections = cannedContent(input.Title)
	}

	passages := s.buildPassages(ctx, content, sections)

	chapter := domain.NewChapter(input.ChapterID, input.Title, content, sections, passages, time.Now().UTC())
	if err := domain.ValidateChapter(chapter); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid chapter", err)
	}

	if err := s.repo.Save(ctx, chapter); err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to save chapter", err)
	}

	if s.archiver != nil && len(input.Raw) > 0 {
		if err := s.archiver.ArchiveDocument(ctx, input.ChapterID, input.Raw); err != nil {
			// Archival is best effort; the chapter is already saved.
			log.Printf("ingestion: failed to archive source document for chapter %s: %v", input.ChapterID, err)
			telemetry.CaptureError(ctx, fmt.Errorf("archive document: %w", err))
		}
	}

	return chapter, nil
}

// Delete removes a chapter and all of its passages.
func (s *IngestionService) Delete(ctx context.Context, chapterID string) error {
	if chapterID == "" {
		return domain.ErrMissingChapterID
	}

	lock := s.chapterLock(chapterID)
	lock.Lock()
	defer lock.Unlock()

	return s.repo.Delete(ctx, chapterID)
}

// buildPassages chunks content into ordered passages. When sections are
// present each section is chunked separately so passages keep their section
// title; otherwise the full text is chunked as one stream.
func (s *IngestionService) buildPassages(ctx context.Context, content string, sections []domain.Section) []domain.Passage {
	var passages []domain.Passage

	appendChunks := func(text, sectionTitle string) {
		for _, chunk := range ChunkText(text, s.chunkCfg) {
			passages = append(passages, domain.Passage{
				Index:        len(passages),
				Text:         chunk,
				SectionTitle: sectionTitle,
				Embedding:    s.embed(ctx, chunk),
			})
		}
	}

	if len(sections) > 0 {
		for _, section := range sections {
			appendChunks(section.Content, section.Title)
		}
	} else {
		appendChunks(content, "")
	}

	return passages
}

// embed vectorizes one passage, degrading to a zero vector when the
// embedding provider is unavailable. Zero-embedding passages are picked up
// later by the backfill worker.
func (s *IngestionService) embed(ctx context.Context, text string) []float32 {
	if s.embedder == nil {
		return make([]float32, DefaultEmbeddingDimensions)
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		log.Printf("ingestion: embedding failed, saving zero vector: %v", err)
		return make([]float32, DefaultEmbeddingDimensions)
	}
	return embedding
}

func (s *IngestionService) chapterLock(chapterID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[chapterID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[chapterID] = lock
	}
	return lock
}
