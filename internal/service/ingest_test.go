package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/studyforge/tutorai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChapterRepository is a mock implementation of ChapterRepository
type MockChapterRepository struct {
	mock.Mock
}

func (m *MockChapterRepository) Save(ctx context.Context, chapter *domain.Chapter) error {
	args := m.Called(ctx, chapter)
	return args.Error(0)
}

func (m *MockChapterRepository) GetByID(ctx context.Context, id string) (*domain.Chapter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chapter), args.Error(1)
}

func (m *MockChapterRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockChapterRepository) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockDocumentArchiver is a mock implementation of DocumentArchiver
type MockDocumentArchiver struct {
	mock.Mock
}

func (m *MockDocumentArchiver) ArchiveDocument(ctx context.Context, chapterID string, raw []byte) error {
	args := m.Called(ctx, chapterID, raw)
	return args.Error(0)
}

func longDocument() []byte {
	sentence := "Friction is a force that opposes relative motion between two surfaces in contact. "
	return []byte(strings.TrimSpace(strings.Repeat(sentence, 20)))
}

func TestIngest_SavesChunkedChapter(t *testing.T) {
	repo := new(MockChapterRepository)
	embedder := new(MockEmbeddingClient)

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2, 0.3}, nil)

	var saved *domain.Chapter
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Chapter")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.Chapter) }).
		Return(nil)

	svc := NewIngestionService(repo, embedder, nil)
	chapter, err := svc.Ingest(context.Background(), IngestInput{
		ChapterID: "ch-friction",
		Title:     "Friction",
		Raw:       longDocument(),
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, "ch-friction", chapter.ID)
	assert.Equal(t, "Friction", chapter.Title)
	require.NotEmpty(t, chapter.Passages)
	for i, p := range chapter.Passages {
		assert.Equal(t, i, p.Index)
		assert.GreaterOrEqual(t, len(p.Text), minExtractedChars)
		assert.True(t, p.HasEmbedding())
	}
	assert.False(t, chapter.UpdatedAt.IsZero())
}

func TestIngest_TooShortDocumentFallsBackToCannedContent(t *testing.T) {
	repo := new(MockChapterRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	svc := NewIngestionService(repo, nil, nil)
	chapter, err := svc.Ingest(context.Background(), IngestInput{
		ChapterID: "ch-friction",
		Title:     "Friction",
		Raw:       []byte("too short"),
	})
	require.NoError(t, err, "unreadable documents must never fail ingestion")

	assert.Contains(t, chapter.Content, "opposes relative motion")
	require.NotEmpty(t, chapter.Sections)
	assert.Equal(t, "Force of Friction", chapter.Sections[0].Title)
	require.NotEmpty(t, chapter.Passages)
	assert.NotEmpty(t, chapter.Passages[0].SectionTitle)
}

func TestIngest_UnknownTitleGetsGenericCannedText(t *testing.T) {
	repo := new(MockChapterRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	svc := NewIngestionService(repo, nil, nil)
	chapter, err := svc.Ingest(context.Background(), IngestInput{
		ChapterID: "ch-thermo",
		Title:     "Thermodynamics",
		Raw:       nil,
	})
	require.NoError(t, err)
	assert.Contains(t, chapter.Content, "Thermodynamics")
}

func TestIngest_SectionsCarryTitlesOntoPassages(t *testing.T) {
	repo := new(MockChapterRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	sectionText := strings.TrimSpace(strings.Repeat("Static friction holds a body at rest until it is overcome by an applied force. ", 4))
	svc := NewIngestionService(repo, nil, nil)
	chapter, err := svc.Ingest(context.Background(), IngestInput{
		ChapterID: "ch-friction",
		Title:     "Friction",
		Raw:       longDocument(),
		Sections: []domain.Section{
			{Title: "Static Friction", Content: sectionText},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, chapter.Passages)
	for _, p := range chapter.Passages {
		assert.Equal(t, "Static Friction", p.SectionTitle)
	}
}

func TestIngest_EmbeddingFailureSavesZeroVectors(t *testing.T) {
	repo := new(MockChapterRepository)
	embedder := new(MockEmbeddingClient)

	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, errors.New("provider down"))

	svc := NewIngestionService(repo, embedder, nil)
	chapter, err := svc.Ingest(context.Background(), IngestInput{
		ChapterID: "ch-friction",
		Title:     "Friction",
		Raw:       longDocument(),
	})
	require.NoError(t, err, "embedding failures must not fail ingestion")

	for _, p := range chapter.Passages {
		require.Len(t, p.Embedding, DefaultEmbeddingDimensions)
		assert.False(t, p.HasEmbedding())
	}
}

func TestIngest_SaveFailureIsStorageError(t *testing.T) {
	repo := new(MockChapterRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := NewIngestionService(repo, nil, nil)
	_, err := svc.Ingest(context.Background(), IngestInput{
		ChapterID: "ch-friction",
		Title:     "Friction",
		Raw:       longDocument(),
	})
	var dErr *domain.DomainError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, domain.ErrCodeStorage, dErr.Code)
}

func TestIngest_ArchiverFailureDoesNotFailIngestion(t *testing.T) {
	repo := new(MockChapterRepository)
	archiver := new(MockDocumentArchiver)

	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	archiver.On("ArchiveDocument", mock.Anything, "ch-friction", mock.Anything).Return(errors.New("bucket gone"))

	svc := NewIngestionService(repo, nil, archiver)
	_, err := svc.Ingest(context.Background(), IngestInput{
		ChapterID: "ch-friction",
		Title:     "Friction",
		Raw:       longDocument(),
	})
	assert.NoError(t, err)
	archiver.AssertExpectations(t)
}

func TestIngest_IdempotentSave(t *testing.T) {
	repo := new(MockChapterRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil).Twice()

	svc := NewIngestionService(repo, nil, nil)
	input := IngestInput{ChapterID: "ch-friction", Title: "Friction", Raw: longDocument()}

	first, err := svc.Ingest(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), input)
	require.NoError(t, err)

	// Same input produces the same passage sequence; Save overwrites wholesale.
	require.Equal(t, len(first.Passages), len(second.Passages))
	for i := range first.Passages {
		assert.Equal(t, first.Passages[i].Text, second.Passages[i].Text)
	}
}

func TestIngest_MissingIDAndTitle(t *testing.T) {
	svc := NewIngestionService(new(MockChapterRepository), nil, nil)

	_, err := svc.Ingest(context.Background(), IngestInput{Title: "Friction"})
	assert.ErrorIs(t, err, domain.ErrMissingChapterID)

	_, err = svc.Ingest(context.Background(), IngestInput{ChapterID: "ch-friction"})
	var dErr *domain.DomainError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, domain.ErrCodeValidation, dErr.Code)
}
