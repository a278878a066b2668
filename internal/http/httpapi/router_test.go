package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carekorea/internal/adapter/memory"
	"carekorea/internal/domain"
	"carekorea/internal/http/handlers"
	"carekorea/internal/middleware"
	"carekorea/internal/pipeline"
	"carekorea/internal/providers/llm"
	"carekorea/internal/queue"
)

const secret = "test-secret"

type downDB struct{}

func (downDB) Ping(context.Context) error { return errors.New("connection refused") }

type server struct {
	*httptest.Server
	store *memory.Store
	token string
}

func newServer(t *testing.T, db handlers.Pinger) *server {
	t.Helper()
	store := memory.NewStore()
	store.PutKeyword(domain.Keyword{ID: "k1", Text: "rejuran korea", Locale: domain.LocaleEN, Category: "dermatology"})
	store.PutKeyword(domain.Keyword{ID: "k2", Text: "lasik seoul", Locale: domain.LocaleEN})
	store.PutKeyword(domain.Keyword{ID: "busy", Text: "botox", Locale: domain.LocaleEN, Status: domain.KeywordStatusGenerating})

	orch, err := pipeline.NewOrchestrator(pipeline.Options{
		Keywords: store,
		Posts:    memory.PostStore{Store: store},
		LLM:      llm.NewStaticClient(),
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	worker := queue.NewWorker(memory.JobStore{Store: store}, orch, zerolog.Nop())
	app := handlers.NewApp(store, orch, worker, db, queue.StreamLimits{MaxIterations: 20, PollInterval: 5 * time.Millisecond, MaxDuration: time.Second}, zerolog.Nop())

	srv := httptest.NewServer(NewRouter(app, Options{
		Logger:          zerolog.Nop(),
		AdminJWTSecret:  secret,
		AllowedOrigins:  []string{"https://admin.example.com"},
		RateLimitPerMin: 1000,
	}))
	t.Cleanup(srv.Close)

	token, err := middleware.SignAdminToken(secret, "ops", time.Hour)
	require.NoError(t, err)
	return &server{Server: srv, store: store, token: token}
}

func (s *server) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealth(t *testing.T) {
	s := newServer(t, nil)
	resp, err := http.Get(s.URL + "/v1/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	degraded := newServer(t, downDB{})
	resp, err = http.Get(degraded.URL + "/v1/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newServer(t, nil)
	resp, err := http.Get(s.URL + "/v1/batches/anything")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestKeywordStatus(t *testing.T) {
	s := newServer(t, nil)

	resp, body := s.do(t, http.MethodPatch, "/v1/keywords/k1/status", `{"status":"published"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "published", body["status"])
	assert.Equal(t, "rejuran korea", body["keyword"])

	resp, body = s.do(t, http.MethodPatch, "/v1/keywords/k1/status", `{"status":"error"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "bad_request", errBody["code"])

	resp, _ = s.do(t, http.MethodPatch, "/v1/keywords/k1/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPatch, "/v1/keywords/nope/status", `{"status":"pending"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	kw, err := s.store.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, domain.KeywordStatusPublished, kw.Status)
}

func TestKeywordGenerate(t *testing.T) {
	s := newServer(t, nil)

	resp, body := s.do(t, http.MethodPost, "/v1/keywords/k1/generate", `{"include_images":false,"auto_publish":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["blog_post_id"])
	assert.Equal(t, "published", body["keyword_status"])
	require.Len(t, s.store.Posts(), 1)
	assert.Equal(t, domain.PostStatusPublished, s.store.Posts()[0].Status)

	resp, body = s.do(t, http.MethodPost, "/v1/keywords/busy/generate", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, true, body["already_in_progress"])

	resp, body = s.do(t, http.MethodPost, "/v1/keywords/missing/generate", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(domain.CategoryNotFound), body["error_category"])

	resp, _ = s.do(t, http.MethodPost, "/v1/keywords/k2/generate", `{"image_count":42}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/v1/keywords/k2/generate", `{"unexpected":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBatchLifecycle(t *testing.T) {
	s := newServer(t, nil)

	resp, body := s.do(t, http.MethodPost, "/v1/batches", `{"keyword_ids":["k1","k2"],"options":{"include_images":false}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	batchID := body["id"].(string)
	assert.Equal(t, "running", body["status"])
	assert.EqualValues(t, 2, body["total"])

	resp, body = s.do(t, http.MethodGet, "/v1/batches/"+batchID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["jobs"], 2)

	resp, _ = s.do(t, http.MethodPost, "/v1/batches", `{"keyword_ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/v1/batches", `{"keyword_ids":["k1","ghost"]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/v1/batches/ghost", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type sseEvent struct {
	Type string
	Data map[string]any
}

func readEvents(t *testing.T, resp *http.Response) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &current.Data))
		case line == "" && current.Type != "":
			events = append(events, current)
			current = sseEvent{}
		}
	}
	return events
}

func (s *server) stream(t *testing.T, batchID, query string) []sseEvent {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.URL+"/v1/batches/"+batchID+"/stream"+query, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return readEvents(t, resp)
}

func TestBatchStreamDrivesWorker(t *testing.T) {
	s := newServer(t, nil)
	_, body := s.do(t, http.MethodPost, "/v1/batches", `{"keyword_ids":["k1","k2"],"options":{"include_images":false}}`)
	batchID := body["id"].(string)

	events := s.stream(t, batchID, "?start_worker=true")
	require.NotEmpty(t, events)

	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{"connected", "progress", "worker_started"}, types[:3])
	assert.Equal(t, "done", types[len(types)-1])
	assert.Equal(t, "batch_completed", types[len(types)-2])
	assert.Contains(t, types, "job_started")
	assert.Contains(t, types, "job_completed")

	assert.Equal(t, batchID, events[0].Data["batchId"])
	final := events[len(events)-2].Data
	assert.Equal(t, "completed", final["status"])
	assert.EqualValues(t, 2, final["completed"])
	jobs := final["jobs"].([]any)
	require.Len(t, jobs, 2)
	assert.NotNil(t, jobs[0].(map[string]any)["blogPostId"])
}

func TestBatchStreamReadOnly(t *testing.T) {
	s := newServer(t, nil)
	_, body := s.do(t, http.MethodPost, "/v1/batches", `{"keyword_ids":["k1"],"options":{"include_images":false}}`)
	batchID := body["id"].(string)

	events := s.stream(t, batchID, "")
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, "connected", events[0].Type)
	assert.Equal(t, "progress", events[1].Type)
	assert.Equal(t, "done", events[len(events)-1].Type)
	for _, ev := range events {
		assert.NotEqual(t, "job_started", ev.Type)
	}

	kw, err := s.store.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, domain.KeywordStatusPending, kw.Status)
}

func TestBatchStreamErrors(t *testing.T) {
	s := newServer(t, nil)
	resp, _ := s.do(t, http.MethodGet, "/v1/batches/ghost/stream", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body := s.do(t, http.MethodPost, "/v1/batches", `{"keyword_ids":["k1"]}`)
	resp, _ = s.do(t, http.MethodGet, "/v1/batches/"+body["id"].(string)+"/stream?start_worker=maybe", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	s := newServer(t, nil)
	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, s.URL+"/v1/batches", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	resp := preflight("https://admin.example.com")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://admin.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")

	resp = preflight("https://evil.example.com")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
