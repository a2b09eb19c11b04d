package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/studyforge/tutorai/internal/domain"
	"github.com/studyforge/tutorai/internal/telemetry"
)

// systemInstruction is the fixed instruction sent with every generation
// request.
const systemInstruction = "You are a patient tutor. Answer only from the given textbook context. " +
	"If the context does not contain the answer, say that you do not know."

// DefaultAttemptTimeout bounds a single provider call before it is treated
// as a failure and the fallback chain advances.
const DefaultAttemptTimeout = 30 * time.Second

// GenerationProvider is the uniform completion boundary every generation
// backend implements so the orchestrator can treat them identically.
type GenerationProvider interface {
	Name() string
	Complete(ctx context.Context, credential, systemPrompt, userPrompt string) (string, error)
}

// ProviderPool pairs a provider with its ordered credential pool. Pool order
// is configuration and defines fallback precedence; it is never mutated at
// runtime.
type ProviderPool struct {
	Provider    GenerationProvider
	Credentials []string
}

// GenerationOrchestrator walks an ordered list of (provider, credential)
// pairs until one call succeeds or every pair has been tried once. Pairs are
// attempted strictly in sequence so order is reproducible and provider quota
// is never spent on redundant parallel calls.
type GenerationOrchestrator struct {
	pools          []ProviderPool
	attemptTimeout time.Duration
}

// NewGenerationOrchestrator creates an orchestrator over the given pools.
func NewGenerationOrchestrator(pools []ProviderPool, attemptTimeout time.Duration) *GenerationOrchestrator {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &GenerationOrchestrator{
		pools:          pools,
		attemptTimeout: attemptTimeout,
	}
}

// GenerateInput carries everything needed to build the generation prompt.
type GenerateInput struct {
	Question     string
	ChapterTitle string
	History      []domain.Message
	Context      []string
}

// Generate builds one prompt from the retrieved context and attempts the
// fallback chain. Each pair is tried at most once per query; any failure
// (transient or not) advances the chain. Returns domain.ErrProviderExhausted
// once every pair has failed.
func (o *GenerationOrchestrator) Generate(ctx context.Context, input GenerateInput) (string, error) {
	prompt := buildUserPrompt(input)

	for _, pool := range o.pools {
		for i, credential := range pool.Credentials {
			if err := ctx.Err(); err != nil {
				return "", domain.NewDomainErrorWithCause(domain.ErrCodeProvider, "generation cancelled", err)
			}

			text, err := o.attempt(ctx, pool.Provider, credential, prompt)
			if err == nil {
				return text, nil
			}

			log.Printf("generation attempt failed (provider=%s credential=%d): %v", pool.Provider.Name(), i, err)
			telemetry.CaptureError(ctx, fmt.Errorf("generation provider %s failed: %w", pool.Provider.Name(), err))
		}
	}

	return "", domain.ErrProviderExhausted
}

func (o *GenerationOrchestrator) attempt(ctx context.Context, provider GenerationProvider, credential, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	text, err := provider.Complete(attemptCtx, credential, systemInstruction, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyCompletion
	}
	return text, nil
}

// buildUserPrompt pairs the retrieved passages with any prior turns and the
// question itself.
func buildUserPrompt(input GenerateInput) string {
	var sb strings.Builder

	if input.ChapterTitle != "" {
		sb.WriteString("Chapter: ")
		sb.WriteString(input.ChapterTitle)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Context:\n")
	sb.WriteString(strings.Join(input.Context, "\n\n"))
	sb.WriteString("\n\n")

	if len(input.History) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, m := range input.History {
			sb.WriteString(m.Role)
			sb.WriteString(": ")
			sb.WriteString(m.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Question: ")
	sb.WriteString(input.Question)
	return sb.String()
}
