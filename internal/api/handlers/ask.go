package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/studyforge/tutorai/internal/api"
	"github.com/studyforge/tutorai/internal/domain"
	"github.com/studyforge/tutorai/internal/service"
)

type AskService interface {
	Ask(ctx context.Context, req *domain.QueryRequest) (*service.AskOutput, error)
}

type AskHandler struct {
	svc AskService
}

func NewAskHandler(svc AskService) *AskHandler {
	return &AskHandler{svc: svc}
}

type AskRequest struct {
	Question     string           `json:"question"`
	ChapterID    string           `json:"chapter_id"`
	ChapterTitle string           `json:"chapter_title"`
	History      []MessagePayload `json:"history,omitempty"`
}

type MessagePayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type RejectionPayload struct {
	MatchedChapterID    string `json:"matched_chapter_id"`
	MatchedChapterTitle string `json:"matched_chapter_title"`
}

type AskResponse struct {
	Answer     string            `json:"answer"`
	Sources    []string          `json:"sources"`
	Confidence float32           `json:"confidence"`
	Outcome    string            `json:"outcome"`
	Method     string            `json:"method"`
	Timestamp  string            `json:"timestamp"`
	Rejection  *RejectionPayload `json:"rejection,omitempty"`
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	history := make([]domain.Message, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, domain.Message{Role: m.Role, Content: m.Content})
	}

	out, err := h.svc.Ask(r.Context(), &domain.QueryRequest{
		Question:     req.Question,
		ChapterID:    req.ChapterID,
		ChapterTitle: req.ChapterTitle,
		History:      history,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := out.Answer.Sources
	if sources == nil {
		sources = []string{}
	}

	resp := &AskResponse{
		Answer:     out.Answer.Content,
		Sources:    sources,
		Confidence: out.Answer.Confidence,
		Outcome:    string(out.Outcome),
		Method:     string(out.Method),
		Timestamp:  out.Answer.Timestamp.Format("2006-01-02T15:04:05Z"),
	}
	if out.Rejection != nil {
		resp.Rejection = &RejectionPayload{
			MatchedChapterID:    out.Rejection.MatchedChapterID,
			MatchedChapterTitle: out.Rejection.MatchedChapterTitle,
		}
	}

	api.Success(w, http.StatusOK, resp)
}
