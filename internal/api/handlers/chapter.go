package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/studyforge/tutorai/internal/api"
	"github.com/studyforge/tutorai/internal/domain"
	"github.com/studyforge/tutorai/internal/service"
)

type IngestionService interface {
	Ingest(ctx context.Context, input service.IngestInput) (*domain.Chapter, error)
	Delete(ctx context.Context, chapterID string) error
}

type ChapterCatalog interface {
	GetByID(ctx context.Context, id string) (*domain.Chapter, error)
	ListSummaries(ctx context.Context) ([]*domain.ChapterSummary, error)
}

type ChapterHandler struct {
	ingestion IngestionService
	catalog   ChapterCatalog
}

func NewChapterHandler(ingestion IngestionService, catalog ChapterCatalog) *ChapterHandler {
	return &ChapterHandler{ingestion: ingestion, catalog: catalog}
}

type IngestChapterRequest struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Content  string           `json:"content"`
	Sections []SectionPayload `json:"sections,omitempty"`
}

type SectionPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ChapterResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Sections     []string `json:"sections"`
	PassageCount int      `json:"passage_count"`
	UpdatedAt    string   `json:"updated_at"`
}

type ChapterSummaryResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	PassageCount int    `json:"passage_count"`
	UpdatedAt    string `json:"updated_at"`
}

func chapterToResponse(c *domain.Chapter) *ChapterResponse {
	sections := c.SectionTitles()
	if sections == nil {
		sections = []string{}
	}
	return &ChapterResponse{
		ID:           c.ID,
		Title:        c.Title,
		Sections:     sections,
		PassageCount: len(c.Passages),
		UpdatedAt:    c.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *ChapterHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestChapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	sections := make([]domain.Section, 0, len(req.Sections))
	for _, s := range req.Sections {
		sections = append(sections, domain.Section{Title: s.Title, Content: s.Content})
	}

	chapter, err := h.ingestion.Ingest(r.Context(), service.IngestInput{
		ChapterID: req.ID,
		Title:     req.Title,
		Raw:       []byte(req.Content),
		Sections:  sections,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, chapterToResponse(chapter))
}

func (h *ChapterHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	chapter, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, chapterToResponse(chapter))
}

func (h *ChapterHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.catalog.ListSummaries(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*ChapterSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, &ChapterSummaryResponse{
			ID:           s.ID,
			Title:        s.Title,
			PassageCount: s.PassageCount,
			UpdatedAt:    s.UpdatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *ChapterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.ingestion.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}
