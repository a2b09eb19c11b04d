package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/studyforge/tutorai/internal/domain"
)

// TopicRule maps a subject keyword or phrase to its canonical chapter.
// Rules are evaluated in declaration order; the first match wins, which
// makes precedence auditable.
type TopicRule struct {
	Pattern   string
	ChapterID string
}

// questionTemplates are the question forms built from a rule's pattern when
// testing whether a question is about that subject.
var questionTemplates = []string{
	"what is %s",
	"what are %s",
	"explain %s",
	"define %s",
	"tell me about %s",
	"how does %s work",
}

// Rejection is the designed, user-visible outcome of an off-topic question.
// It is not an error: the query terminates in the Rejected state.
type Rejection struct {
	MatchedChapterID    string
	MatchedChapterTitle string
	CurrentSections     []string
	Message             string
}

// TopicChapterStore is the chapter lookup the guard uses to confirm that a
// matched chapter is actually loaded.
type TopicChapterStore interface {
	GetByID(ctx context.Context, id string) (*domain.Chapter, error)
}

type compiledTopicRule struct {
	TopicRule
	wholeWord *regexp.Regexp
}

// TopicGuard rejects questions that clearly belong to a different loaded
// chapter than the one in context, before any retrieval runs.
type TopicGuard struct {
	rules []compiledTopicRule
	store TopicChapterStore
}

// NewTopicGuard compiles the ordered rule list against the given store.
func NewTopicGuard(rules []TopicRule, store TopicChapterStore) *TopicGuard {
	compiled := make([]compiledTopicRule, 0, len(rules))
	for _, r := range rules {
		compiled = append(compiled, compiledTopicRule{
			TopicRule: r,
			wholeWord: regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(r.Pattern)) + `\b`),
		})
	}
	return &TopicGuard{rules: compiled, store: store}
}

// Check tests the question against the rule list in order. The first rule
// that matches, targets a chapter different from the current one, and whose
// target chapter is actually loaded produces a rejection. Otherwise the
// question passes through unchanged.
func (g *TopicGuard) Check(ctx context.Context, question string, current *domain.Chapter) *Rejection {
	if current == nil {
		return nil
	}

	normalized := strings.ToLower(strings.TrimSpace(question))
	if normalized == "" {
		return nil
	}

	for _, rule := range g.rules {
		if rule.ChapterID == current.ID {
			continue
		}
		if !rule.matches(normalized) {
			continue
		}

		target, err := g.store.GetByID(ctx, rule.ChapterID)
		if err != nil {
			if errors.Is(err, domain.ErrChapterNotFound) {
				continue
			}
			// Unreadable store entries never block a question.
			continue
		}

		sections := current.SectionTitles()
		return &Rejection{
			MatchedChapterID:    target.ID,
			MatchedChapterTitle: target.Title,
			CurrentSections:     sections,
			Message:             rejectionMessage(target.Title, current.Title, sections),
		}
	}

	return nil
}

func (r *compiledTopicRule) matches(question string) bool {
	if r.wholeWord.MatchString(question) {
		return true
	}
	pattern := strings.ToLower(r.Pattern)
	for _, tmpl := range questionTemplates {
		if strings.Contains(question, fmt.Sprintf(tmpl, pattern)) {
			return true
		}
	}
	return false
}

func rejectionMessage(matchedTitle, currentTitle string, sections []string) string {
	msg := fmt.Sprintf("This question belongs to the %q chapter, not %q.", matchedTitle, currentTitle)
	if len(sections) > 0 {
		msg += fmt.Sprintf(" The current chapter covers: %s.", strings.Join(sections, ", "))
	}
	return msg
}

// DefaultTopicRules is the built-in subject-to-chapter mapping for the
// bundled physics chapters. Order defines precedence.
func DefaultTopicRules() []TopicRule {
	return []TopicRule{
		{Pattern: "friction", ChapterID: "ch-friction"},
		{Pattern: "lubricant", ChapterID: "ch-friction"},
		{Pattern: "voltage", ChapterID: "ch-electric-current"},
		{Pattern: "electric current", ChapterID: "ch-electric-current"},
		{Pattern: "current", ChapterID: "ch-electric-current"},
		{Pattern: "resistance", ChapterID: "ch-electric-current"},
		{Pattern: "circuit", ChapterID: "ch-electric-current"},
		{Pattern: "gravitation", ChapterID: "ch-gravitation"},
		{Pattern: "gravity", ChapterID: "ch-gravitation"},
		{Pattern: "free fall", ChapterID: "ch-gravitation"},
		{Pattern: "refraction", ChapterID: "ch-light"},
		{Pattern: "reflection", ChapterID: "ch-light"},
		{Pattern: "lens", ChapterID: "ch-light"},
		{Pattern: "sound", ChapterID: "ch-sound"},
		{Pattern: "echo", ChapterID: "ch-sound"},
	}
}
