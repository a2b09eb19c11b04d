package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/studyforge/tutorai/internal/domain"
	"github.com/studyforge/tutorai/internal/service"
)

type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Ingest(ctx context.Context, input service.IngestInput) (*domain.Chapter, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chapter), args.Error(1)
}

func (m *MockIngestionService) Delete(ctx context.Context, chapterID string) error {
	args := m.Called(ctx, chapterID)
	return args.Error(0)
}

type MockChapterCatalog struct {
	mock.Mock
}

func (m *MockChapterCatalog) GetByID(ctx context.Context, id string) (*domain.Chapter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chapter), args.Error(1)
}

func (m *MockChapterCatalog) ListSummaries(ctx context.Context) ([]*domain.ChapterSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChapterSummary), args.Error(1)
}

func newTestChapter() *domain.Chapter {
	return &domain.Chapter{
		ID:      "ch-friction",
		Title:   "Friction",
		Content: "Friction is a force that opposes relative motion between surfaces.",
		Sections: []domain.Section{
			{Title: "Causes of Friction", Content: "Surface irregularities interlock."},
		},
		Passages: []domain.Passage{
			{Index: 0, Text: "Friction is a force that opposes relative motion.", SectionTitle: "Causes of Friction"},
		},
		UpdatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func requestWithURLParam(method, url, key, value string) *http.Request {
	req := httptest.NewRequest(method, url, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestChapterHandler_Ingest_Success(t *testing.T) {
	mockIngestion := new(MockIngestionService)
	handler := NewChapterHandler(mockIngestion, new(MockChapterCatalog))

	mockIngestion.On("Ingest", mock.Anything, mock.MatchedBy(func(input service.IngestInput) bool {
		return input.ChapterID == "ch-friction" && input.Title == "Friction" && len(input.Sections) == 1
	})).Return(newTestChapter(), nil)

	body := `{"id":"ch-friction","title":"Friction","content":"Friction is a force that opposes relative motion between surfaces.","sections":[{"title":"Causes of Friction","content":"Surface irregularities interlock."}]}`
	req := httptest.NewRequest(http.MethodPost, "/chapters", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ch-friction", data["id"])
	assert.Equal(t, float64(1), data["passage_count"])
	mockIngestion.AssertExpectations(t)
}

func TestChapterHandler_Ingest_InvalidJSON(t *testing.T) {
	handler := NewChapterHandler(new(MockIngestionService), new(MockChapterCatalog))

	req := httptest.NewRequest(http.MethodPost, "/chapters", bytes.NewReader([]byte(`{invalid`)))
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestChapterHandler_Ingest_MissingID(t *testing.T) {
	handler := NewChapterHandler(new(MockIngestionService), new(MockChapterCatalog))

	body := `{"title":"Friction","content":"some content"}`
	req := httptest.NewRequest(http.MethodPost, "/chapters", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "id is required")
}

func TestChapterHandler_Get_Success(t *testing.T) {
	mockCatalog := new(MockChapterCatalog)
	handler := NewChapterHandler(new(MockIngestionService), mockCatalog)

	mockCatalog.On("GetByID", mock.Anything, "ch-friction").Return(newTestChapter(), nil)

	req := requestWithURLParam(http.MethodGet, "/chapters/ch-friction", "id", "ch-friction")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Friction", data["title"])
	mockCatalog.AssertExpectations(t)
}

func TestChapterHandler_Get_NotFound(t *testing.T) {
	mockCatalog := new(MockChapterCatalog)
	handler := NewChapterHandler(new(MockIngestionService), mockCatalog)

	mockCatalog.On("GetByID", mock.Anything, "ch-missing").Return(nil, domain.ErrChapterNotFound)

	req := requestWithURLParam(http.MethodGet, "/chapters/ch-missing", "id", "ch-missing")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChapterHandler_List_Success(t *testing.T) {
	mockCatalog := new(MockChapterCatalog)
	handler := NewChapterHandler(new(MockIngestionService), mockCatalog)

	mockCatalog.On("ListSummaries", mock.Anything).Return([]*domain.ChapterSummary{
		{ID: "ch-friction", Title: "Friction", PassageCount: 3, UpdatedAt: time.Now().UTC()},
		{ID: "ch-sound", Title: "Sound", PassageCount: 5, UpdatedAt: time.Now().UTC()},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/chapters", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	assert.Len(t, data, 2)
}

func TestChapterHandler_Delete_Success(t *testing.T) {
	mockIngestion := new(MockIngestionService)
	handler := NewChapterHandler(mockIngestion, new(MockChapterCatalog))

	mockIngestion.On("Delete", mock.Anything, "ch-friction").Return(nil)

	req := requestWithURLParam(http.MethodDelete, "/chapters/ch-friction", "id", "ch-friction")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockIngestion.AssertExpectations(t)
}

func TestChapterHandler_Delete_NotFound(t *testing.T) {
	mockIngestion := new(MockIngestionService)
	handler := NewChapterHandler(mockIngestion, new(MockChapterCatalog))

	mockIngestion.On("Delete", mock.Anything, "ch-missing").Return(domain.ErrChapterNotFound)

	req := requestWithURLParam(http.MethodDelete, "/chapters/ch-missing", "id", "ch-missing")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
