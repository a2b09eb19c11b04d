//go:build e2e

package e2e

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chapterDetail struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Sections     []string `json:"sections"`
	PassageCount int      `json:"passage_count"`
}

type chapterSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	PassageCount int    `json:"passage_count"`
}

type askResult struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence float32  `json:"confidence"`
	Outcome    string   `json:"outcome"`
	Method     string   `json:"method"`
	Rejection  *struct {
		MatchedChapterID    string `json:"matched_chapter_id"`
		MatchedChapterTitle string `json:"matched_chapter_title"`
	} `json:"rejection"`
}

const frictionDocument = `Friction is a force that opposes relative motion between two surfaces in contact. ` +
	`It acts along the surfaces and against the direction of motion. ` +
	`Static friction acts on objects at rest and sliding friction acts on moving objects. ` +
	`Rolling friction is smaller than sliding friction, which is why wheels make movement easier. ` +
	`Lubricants such as oil reduce friction by forming a thin layer between surfaces.`

func TestE2E_IngestAndAskLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	// Ingest a chapter.
	var created chapterDetail
	status, err := env.DoJSON(http.MethodPost, "/chapters", map[string]interface{}{
		"id":      "ch-friction",
		"title":   "Friction",
		"content": frictionDocument,
	}, &created)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "ch-friction", created.ID)
	assert.Greater(t, created.PassageCount, 0)

	// The catalog lists it.
	var summaries []chapterSummary
	status, err = env.DoJSON(http.MethodGet, "/chapters", nil, &summaries)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Friction", summaries[0].Title)

	// An on-topic question retrieves passages lexically and quotes them.
	var answer askResult
	status, err = env.DoJSON(http.MethodPost, "/ask", map[string]interface{}{
		"question":      "what is friction?",
		"chapter_id":    "ch-friction",
		"chapter_title": "Friction",
	}, &answer)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "composed", answer.Outcome)
	assert.Equal(t, "keyword", answer.Method)
	assert.NotEmpty(t, answer.Sources)
	assert.True(t, strings.HasPrefix(answer.Answer, "From the textbook:"), "answer: %q", answer.Answer)
	assert.InDelta(t, 0.7, answer.Confidence, 1e-6)

	// Delete and confirm it is gone.
	status, err = env.DoJSON(http.MethodDelete, "/chapters/ch-friction", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)

	status, err = env.DoJSON(http.MethodGet, "/chapters/ch-friction", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestE2E_TopicRejection(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	status, err := env.DoJSON(http.MethodPost, "/chapters", map[string]interface{}{
		"id":      "ch-friction",
		"title":   "Friction",
		"content": frictionDocument,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, status)

	status, err = env.DoJSON(http.MethodPost, "/chapters", map[string]interface{}{
		"id":    "ch-electric-current",
		"title": "Electric Current",
		"content": "Electric current is the flow of electric charge through a conductor. " +
			"Voltage drives the current and resistance opposes it. " +
			"A circuit must be closed for current to flow through it continuously.",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, status)

	// A voltage question against the friction chapter is redirected.
	var answer askResult
	status, err = env.DoJSON(http.MethodPost, "/ask", map[string]interface{}{
		"question":      "what is voltage?",
		"chapter_id":    "ch-friction",
		"chapter_title": "Friction",
	}, &answer)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "rejected", answer.Outcome)
	require.NotNil(t, answer.Rejection)
	assert.Equal(t, "ch-electric-current", answer.Rejection.MatchedChapterID)
	assert.Contains(t, answer.Answer, "Electric Current")
	assert.Zero(t, answer.Confidence)

	// The same question against its own chapter is answered.
	status, err = env.DoJSON(http.MethodPost, "/ask", map[string]interface{}{
		"question":      "what is voltage?",
		"chapter_id":    "ch-electric-current",
		"chapter_title": "Electric Current",
	}, &answer)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "composed", answer.Outcome)
}

func TestE2E_TooShortDocumentGetsCannedContent(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	var created chapterDetail
	status, err := env.DoJSON(http.MethodPost, "/chapters", map[string]interface{}{
		"id":      "ch-sound",
		"title":   "Sound",
		"content": "too short",
	}, &created)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, status)
	assert.Greater(t, created.PassageCount, 0)
	assert.NotEmpty(t, created.Sections)

	// The canned chapter is queryable.
	var answer askResult
	status, err = env.DoJSON(http.MethodPost, "/ask", map[string]interface{}{
		"question":      "what is an echo?",
		"chapter_id":    "ch-sound",
		"chapter_title": "Sound",
	}, &answer)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "composed", answer.Outcome)
	assert.NotEmpty(t, answer.Sources)
}

func TestE2E_NoContentOutcome(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	status, err := env.DoJSON(http.MethodPost, "/chapters", map[string]interface{}{
		"id":      "ch-friction",
		"title":   "Friction",
		"content": frictionDocument,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, status)

	var answer askResult
	status, err = env.DoJSON(http.MethodPost, "/ask", map[string]interface{}{
		"question":      "zzz qqq xyzzy",
		"chapter_id":    "ch-friction",
		"chapter_title": "Friction",
	}, &answer)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "composed_empty", answer.Outcome)
	assert.Zero(t, answer.Confidence)
	assert.Empty(t, answer.Sources)
}

func TestE2E_AskUnknownChapter(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	status, err := env.DoJSON(http.MethodPost, "/ask", map[string]interface{}{
		"question":   "what is friction?",
		"chapter_id": "ch-missing",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestE2E_ReingestReplacesChapter(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	for _, content := range []string{frictionDocument, frictionDocument + " Streamlined shapes reduce friction from air and water."} {
		status, err := env.DoJSON(http.MethodPost, "/chapters", map[string]interface{}{
			"id":      "ch-friction",
			"title":   "Friction",
			"content": content,
		}, nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, status)
	}

	var summaries []chapterSummary
	status, err := env.DoJSON(http.MethodGet, "/chapters", nil, &summaries)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, summaries, 1)
}
