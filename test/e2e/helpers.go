//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studyforge/tutorai/internal/api/handlers"
	"github.com/studyforge/tutorai/internal/repository"
	"github.com/studyforge/tutorai/internal/server"
	"github.com/studyforge/tutorai/internal/service"
	"github.com/studyforge/tutorai/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	Pool       *pgxpool.Pool
	Server     *httptest.Server
	HTTPClient *http.Client
}

// SetupE2EEnv starts a Postgres container and a full API server wired with
// real repositories. No embedding or generation provider is configured, so
// retrieval is lexical and answers quote passages verbatim; outcomes stay
// deterministic.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	chapterRepo := repository.NewChapterRepository(pool)

	ingestionSvc := service.NewIngestionService(chapterRepo, nil, nil)
	semantic := service.NewSemanticRetriever(nil)
	guard := service.NewTopicGuard(service.DefaultTopicRules(), chapterRepo)
	askSvc := service.NewAskService(chapterRepo, guard, semantic, nil)

	router := server.NewRouter(server.RouterConfig{
		ChapterHandler: handlers.NewChapterHandler(ingestionSvc, chapterRepo),
		AskHandler:     handlers.NewAskHandler(askSvc),
	})

	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		Pool:       pool,
		Server:     srv,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// DoJSON issues a JSON request against the test server and decodes the
// "data" envelope into out when out is non-nil.
func (e *E2ETestEnv) DoJSON(method, path string, body interface{}, out interface{}) (int, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, e.Server.URL+path, reqBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if out != nil && len(raw) > 0 {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return resp.StatusCode, fmt.Errorf("parse envelope: %w", err)
		}
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("parse data: %w", err)
		}
	}

	return resp.StatusCode, nil
}
