package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/ai-radar/backend/internal/logger"
	"github.com/DeafMist/ai-radar/backend/internal/models"
	"github.com/DeafMist/ai-radar/backend/internal/search"
)

type stubSyncer struct {
	news, startups int
	ctxErr         error
}

func (s *stubSyncer) SyncNews(ctx context.Context) int {
	s.ctxErr = ctx.Err()
	return s.news
}

func (s *stubSyncer) SyncStartups(ctx context.Context) int {
	s.ctxErr = ctx.Err()
	return s.startups
}

type stubSearcher struct {
	resp *search.Response
	err  error
	got  string
}

func (s *stubSearcher) Search(_ context.Context, message string) (*search.Response, error) {
	s.got = message
	if message == "" {
		return nil, search.ErrEmptyMessage
	}
	return s.resp, s.err
}

type stubStore struct {
	healthErr error
	companies []string
	tag       string
	limit     int
	news      []models.NewsRecord
	listErr   error
}

func (s *stubStore) Health(context.Context) error { return s.healthErr }

func (s *stubStore) ListNews(_ context.Context, companies []string, limit int) ([]models.NewsRecord, error) {
	s.companies, s.limit = companies, limit
	return s.news, s.listErr
}

func (s *stubStore) ListStartups(_ context.Context, tag string, limit int) ([]models.StartupRecord, error) {
	s.tag, s.limit = tag, limit
	return nil, s.listErr
}

func newTestServer() (*server, *stubSyncer, *stubSearcher, *stubStore) {
	sy := &stubSyncer{news: 7, startups: 2}
	se := &stubSearcher{resp: &search.Response{Message: "hello", Results: []models.ResultItem{}}}
	st := &stubStore{}
	return &server{log: logger.Discard(), maxPage: 50, store: st, syncer: sy, search: se}, sy, se, st
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSyncEndpoints(t *testing.T) {
	srv, _, _, _ := newTestServer()
	h := srv.routes()

	rec := do(t, h, http.MethodGet, "/api/news-sync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"syncedCount":7}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/startup-sync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"syncedCount":2}`, rec.Body.String())
}

func TestSyncSurvivesCanceledRequest(t *testing.T) {
	srv, sy, _, _ := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/news-sync", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, sy.ctxErr)
}

func TestChatSearch(t *testing.T) {
	srv, _, se, _ := newTestServer()

	rec := do(t, srv.routes(), http.MethodPost, "/api/chat-search", `{"message":"Tell me about Claude"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Tell me about Claude", se.got)
	require.JSONEq(t, `{"message":"hello","results":[]}`, rec.Body.String())
}

func TestChatSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		want   string
	}{
		{name: "missing message", body: `{}`, status: http.StatusBadRequest, want: "Message is required"},
		{name: "empty message", body: `{"message":""}`, status: http.StatusBadRequest, want: "Message is required"},
		{name: "not json", body: `message=hi`, status: http.StatusBadRequest, want: "Invalid request body"},
		{name: "store failure", body: `{"message":"openai"}`, err: errors.New("boom"), status: http.StatusInternalServerError, want: "Failed to process chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, se, _ := newTestServer()
			se.err = tt.err

			rec := do(t, srv.routes(), http.MethodPost, "/api/chat-search", tt.body)
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.want, decode(t, rec)["error"])
		})
	}
}

func TestListNewsExpandsClaudeFilter(t *testing.T) {
	srv, _, _, st := newTestServer()
	st.news = []models.NewsRecord{{ID: "a", Title: "Claude 5"}}

	rec := do(t, srv.routes(), http.MethodGet, "/api/news?company=Claude&limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"Claude", "Anthropic"}, st.companies)
	require.Equal(t, 50, st.limit)

	items := decode(t, rec)["items"].([]any)
	require.Len(t, items, 1)
}

func TestListStartupsDefaults(t *testing.T) {
	srv, _, _, st := newTestServer()

	rec := do(t, srv.routes(), http.MethodGet, "/api/startups?tag=Fintech", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Fintech", st.tag)
	require.Zero(t, st.limit)
	require.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestListFailure(t *testing.T) {
	srv, _, _, st := newTestServer()
	st.listErr = errors.New("es down")

	rec := do(t, srv.routes(), http.MethodGet, "/api/news", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	srv, _, _, st := newTestServer()

	rec := do(t, srv.routes(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	st.healthErr = errors.New("red")
	rec = do(t, srv.routes(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _, _ := newTestServer()

	rec := do(t, srv.routes(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestClampInt(t *testing.T) {
	require.Equal(t, 0, clampInt("", 0, 50))
	require.Equal(t, 0, clampInt("abc", 0, 50))
	require.Equal(t, 0, clampInt("-3", 0, 50))
	require.Equal(t, 10, clampInt("10", 0, 50))
	require.Equal(t, 50, clampInt("51", 0, 50))
}
