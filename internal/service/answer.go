package service

import (
	"context"
	"strings"
	"time"

	"github.com/studyforge/tutorai/internal/domain"
	"github.com/studyforge/tutorai/internal/telemetry"
)

// Fixed user-facing strings. Every failure path terminates in one of these;
// no raw technical error ever reaches the end user.
const (
	attributionHeader = "From the textbook:\n\n"
	noContentAnswer   = "I couldn't find any relevant content for this question in the current chapter."
	apologyFallback   = "I'm sorry, I couldn't generate an answer right now. Please try again in a moment."
)

// Confidence levels by answer path.
const (
	confidenceNone     float32 = 0
	confidenceKeyword  float32 = 0.7
	confidenceSemantic float32 = 0.9
)

// ChapterStore is the chapter lookup used by the answer pipeline.
type ChapterStore interface {
	GetByID(ctx context.Context, id string) (*domain.Chapter, error)
}

// TopicChecker rejects questions belonging to a different loaded chapter.
type TopicChecker interface {
	Check(ctx context.Context, question string, current *domain.Chapter) *Rejection
}

// SemanticSearcher ranks chapter passages by embedding similarity.
type SemanticSearcher interface {
	Search(ctx context.Context, query string, chapter *domain.Chapter) *domain.RetrievalResult
}

// Generator produces answer text from retrieved context through the
// provider fallback chain.
type Generator interface {
	Generate(ctx context.Context, input GenerateInput) (string, error)
}

// AskOutput is the composed answer plus the terminal state the query
// reached, so callers can distinguish designed outcomes without parsing
// message text.
type AskOutput struct {
	Answer    domain.AnswerResult
	Outcome   domain.Outcome
	Method    domain.RetrievalMethod
	Rejection *Rejection
}

// AskService runs one query through the full pipeline: topic check, chapter
// lookup, semantic retrieval with keyword fallback, generation, and response
// composition. Each query is strictly sequential; concurrent queries are
// independent and share only the chapter store.
type AskService struct {
	store     ChapterStore
	guard     TopicChecker
	semantic  SemanticSearcher
	generator Generator
	now       func() time.Time
}

// NewAskService creates an AskService. generator may be nil when no
// provider is configured; retrieved passages are then returned verbatim.
func NewAskService(store ChapterStore, guard TopicChecker, semantic SemanticSearcher, generator Generator) *AskService {
	return &AskService{
		store:     store,
		guard:     guard,
		semantic:  semantic,
		generator: generator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Ask answers one question against a loaded chapter.
//
// State machine: Received -> TopicCheck -> {Rejected | Retrieving};
// Retrieving -> {NoContent -> ComposedEmpty | ContentFound -> Generating};
// Generating -> {Succeeded -> Composed | AllProvidersFailed -> ComposedFallback}.
// No state is revisited within one query.
func (s *AskService) Ask(ctx context.Context, req *domain.QueryRequest) (*AskOutput, error) {
	if err := domain.ValidateQueryRequest(req); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid query", err)
	}

	ctx, span := telemetry.StartSpan(ctx, "AskService.Ask", telemetry.SpanAttributes{
		ChapterID: req.ChapterID,
		Operation: "ask",
	})
	defer span.End()

	chapter, err := s.store.GetByID(ctx, req.ChapterID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	// TopicCheck runs strictly before retrieval so an off-topic rejection
	// never touches the store for the wrong chapter.
	if rejection := s.guard.Check(ctx, req.Question, chapter); rejection != nil {
		return &AskOutput{
			Answer:    s.compose(rejection.Message, nil, confidenceNone),
			Outcome:   domain.OutcomeRejected,
			Method:    domain.RetrievalMethodNone,
			Rejection: rejection,
		}, nil
	}

	retrieval := s.semantic.Search(ctx, req.Question, chapter)
	if retrieval.IsEmpty() {
		retrieval = KeywordSearch(chapter, req.Question)
	}

	if retrieval.IsEmpty() {
		return &AskOutput{
			Answer:  s.compose(noContentAnswer, nil, confidenceNone),
			Outcome: domain.OutcomeComposedEmpty,
			Method:  domain.RetrievalMethodNone,
		}, nil
	}

	sources := retrieval.Texts()

	if s.generator == nil {
		// Generation skipped: return the retrieved passages verbatim.
		return &AskOutput{
			Answer:  s.compose(attributionHeader+strings.Join(sources, "\n\n"), sources, confidenceKeyword),
			Outcome: domain.OutcomeComposed,
			Method:  retrieval.Method,
		}, nil
	}

	text, err := s.generator.Generate(ctx, GenerateInput{
		Question:     req.Question,
		ChapterTitle: req.ChapterTitle,
		History:      req.History,
		Context:      sources,
	})
	if err != nil {
		span.SetError(err)
		return &AskOutput{
			Answer:  s.compose(apologyFallback, sources, confidenceNone),
			Outcome: domain.OutcomeComposedFallback,
			Method:  retrieval.Method,
		}, nil
	}

	confidence := confidenceKeyword
	if retrieval.Method == domain.RetrievalMethodSemantic {
		confidence = confidenceSemantic
	}

	return &AskOutput{
		Answer:  s.compose(attributionHeader+text, sources, confidence),
		Outcome: domain.OutcomeComposed,
		Method:  retrieval.Method,
	}, nil
}

func (s *AskService) compose(content string, sources []string, confidence float32) domain.AnswerResult {
	return domain.AnswerResult{
		Content:    content,
		Sources:    sources,
		Confidence: confidence,
		Timestamp:  s.now(),
	}
}
