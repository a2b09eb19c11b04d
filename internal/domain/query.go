package domain

import (
	"fmt"
	"time"
)

// RetrievalMethod identifies which retriever produced a result set.
type RetrievalMethod string

const (
	RetrievalMethodNone     RetrievalMethod = "none"
	RetrievalMethodKeyword  RetrievalMethod = "keyword"
	RetrievalMethodSemantic RetrievalMethod = "semantic"
)

// Outcome is the terminal state of the query state machine.
type Outcome string

const (
	OutcomeRejected         Outcome = "rejected"
	OutcomeComposedEmpty    Outcome = "composed_empty"
	OutcomeComposed         Outcome = "composed"
	OutcomeComposedFallback Outcome = "composed_fallback"
)

// Message is one prior conversation turn. History entries are append-only
// and never mutated.
type Message struct {
	Role    string
	Content string
}

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// QueryRequest is one question asked against a loaded chapter.
type QueryRequest struct {
	Question     string
	ChapterID    string
	ChapterTitle string
	History      []Message
}

// RetrievedPassage is a single ranked passage. Score is only meaningful for
// semantic retrieval; keyword retrieval leaves it at zero.
type RetrievedPassage struct {
	Text  string
	Score float32
}

// RetrievalResult is the ordered output of one retrieval pass.
type RetrievalResult struct {
	Method   RetrievalMethod
	Passages []RetrievedPassage
}

// IsEmpty reports whether the retrieval produced no passages.
func (r *RetrievalResult) IsEmpty() bool {
	return r == nil || len(r.Passages) == 0
}

// Texts returns the passage texts in rank order.
func (r *RetrievalResult) Texts() []string {
	if r == nil {
		return nil
	}
	texts := make([]string, 0, len(r.Passages))
	for _, p := range r.Passages {
		texts = append(texts, p.Text)
	}
	return texts
}

// AnswerResult is the final answer object produced once per query and never
// mutated after return. Confidence is 0 exactly when no passage was retrieved.
type AnswerResult struct {
	Content    string
	Sources    []string
	Confidence float32
	Timestamp  time.Time
}

// ValidateQueryRequest validates a QueryRequest instance.
func ValidateQueryRequest(q *QueryRequest) error {
	if q == nil {
		return fmt.Errorf("query request cannot be nil")
	}

	if q.Question == "" {
		return fmt.Errorf("query Question is required")
	}

	if q.ChapterID == "" {
		return fmt.Errorf("query ChapterID is required")
	}

	return nil
}
