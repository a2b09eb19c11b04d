package service

import (
	"strings"
	"unicode"

	"github.com/studyforge/tutorai/internal/domain"
)

const keywordMinTermLength = 3

// KeywordSearch ranks a chapter's passages against a query by lexical
// overlap. An exact phrase match of the lower-cased query against a passage's
// text or section title ranks highest and settles that passage immediately;
// otherwise a passage is included when any query term of at least three
// characters appears in its text or section title. Duplicate passage texts
// are dropped. There is no frequency ranking beyond the phrase short-circuit.
func KeywordSearch(chapter *domain.Chapter, query string) *domain.RetrievalResult {
	result := &domain.RetrievalResult{Method: domain.RetrievalMethodKeyword}

	q := strings.ToLower(strings.TrimSpace(query))
	if chapter == nil || q == "" {
		return result
	}

	terms := queryTerms(q)

	seen := make(map[string]bool, len(chapter.Passages))
	var phraseMatches []domain.RetrievedPassage
	var termMatches []domain.RetrievedPassage

	for _, p := range chapter.Passages {
		if seen[p.Text] {
			continue
		}

		text := strings.ToLower(p.Text)
		title := strings.ToLower(p.SectionTitle)

		if strings.Contains(text, q) || (title != "" && strings.Contains(title, q)) {
			phraseMatches = append(phraseMatches, domain.RetrievedPassage{Text: p.Text})
			seen[p.Text] = true
			continue
		}

		for _, term := range terms {
			if strings.Contains(text, term) || (title != "" && strings.Contains(title, term)) {
				termMatches = append(termMatches, domain.RetrievedPassage{Text: p.Text})
				seen[p.Text] = true
				break
			}
		}
	}

	result.Passages = append(phraseMatches, termMatches...)
	return result
}

// queryTerms extracts the searchable terms from a lower-cased query,
// trimming surrounding punctuation and dropping words of two characters
// or fewer.
func queryTerms(query string) []string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(f) >= keywordMinTermLength {
			terms = append(terms, f)
		}
	}
	return terms
}
