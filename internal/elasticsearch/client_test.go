package elasticsearch_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/ai-radar/backend/internal/elasticsearch"
	"github.com/DeafMist/ai-radar/backend/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeCluster answers a fixed response per path fragment and records requests.
type fakeCluster struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]string
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	for suffix, payload := range f.responses {
		if strings.Contains(r.URL.Path, suffix) {
			_, _ = io.WriteString(w, payload)
			return
		}
	}
	_, _ = io.WriteString(w, `{}`)
}

func (f *fakeCluster) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, responses map[string]string) (*elasticsearch.Client, *fakeCluster) {
	t.Helper()
	fake := &fakeCluster{responses: responses}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.New(elasticsearch.Config{
		Addr:        srv.URL,
		DeleteBatch: 2,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client, fake
}

func TestUpsertNewsSendsPartialUpdateWithUpsert(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"/_update/": `{"result":"created"}`,
	})

	rec := models.NewsRecord{
		ID:      "abc",
		Title:   "Claude Code: Remote Control",
		Company: "Claude",
		Summary: "summary",
		Link:    "https://x/1",
		Date:    time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
	}

	res, err := client.UpsertNews(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, models.UpsertCreated, res)
	require.True(t, res.Changed())

	req := fake.last()
	require.Equal(t, "/news/_update/abc", req.Path)

	doc := req.Body["doc"].(map[string]any)
	require.ElementsMatch(t, []string{"company", "date", "summary"}, keys(doc))
	upsert := req.Body["upsert"].(map[string]any)
	require.Equal(t, "https://x/1", upsert["link"])
	require.Contains(t, upsert, "createdAt")
}

func TestUpsertStartupKeepsCreatedAtOutOfUpdate(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"/_update/": `{"result":"noop"}`,
	})

	res, err := client.UpsertStartup(context.Background(), models.StartupRecord{ID: "s1", Name: "Ledgerly", Link: "https://x/s1", Tags: []string{"Tech"}})
	require.NoError(t, err)
	require.Equal(t, models.UpsertNoop, res)
	require.False(t, res.Changed())

	req := fake.last()
	require.Equal(t, "/startups/_update/s1", req.Path)
	doc := req.Body["doc"].(map[string]any)
	require.NotContains(t, doc, "createdAt")
	require.Contains(t, doc, "tags")
}

func TestUpsertSurfacesClusterErrors(t *testing.T) {
	fake := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
	})
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := elasticsearch.New(elasticsearch.Config{Addr: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.UpsertNews(context.Background(), models.NewsRecord{ID: "x", Link: "https://x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestFindNewsBuildsCaseInsensitiveWildcard(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"/_search": `{"hits":{"hits":[{"_id":"1","_source":{"id":"1","title":"Claude 5","company":"Claude","link":"https://x/1"}}]}}`,
	})

	items, err := client.FindNews(context.Background(), "claude*5?", 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Claude 5", items[0].Title)

	req := fake.last()
	require.Equal(t, "/news/_search", req.Path)
	require.EqualValues(t, 3, req.Body["size"])

	should := req.Body["query"].(map[string]any)["bool"].(map[string]any)["should"].([]any)
	require.Len(t, should, 4)
	first := should[0].(map[string]any)["wildcard"].(map[string]any)["title"].(map[string]any)
	require.Equal(t, `*claude\*5\?*`, first["value"])
	require.Equal(t, true, first["case_insensitive"])
}

func TestFindStartupsSearchesTags(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"/_search": `{"hits":{"hits":[]}}`,
	})

	items, err := client.FindStartups(context.Background(), "fintech", 3)
	require.NoError(t, err)
	require.Empty(t, items)

	should := fake.last().Body["query"].(map[string]any)["bool"].(map[string]any)["should"].([]any)
	var fields []string
	for _, clause := range should {
		for field := range clause.(map[string]any)["wildcard"].(map[string]any) {
			fields = append(fields, field)
		}
	}
	require.ElementsMatch(t, []string{"name", "description", "tags"}, fields)
}

func TestDeleteNewsBeforeLoopsUntilShortBatch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if r.URL.Path != "/news/_delete_by_query" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if calls.Add(1) == 1 {
			_, _ = io.WriteString(w, `{"deleted":2}`)
			return
		}
		_, _ = io.WriteString(w, `{"deleted":1}`)
	}))
	defer srv.Close()

	client, err := elasticsearch.New(elasticsearch.Config{Addr: srv.URL, DeleteBatch: 2}, nil)
	require.NoError(t, err)

	deleted, err := client.DeleteNewsBefore(context.Background(), time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 3, deleted)
	require.EqualValues(t, 2, calls.Load())
}

func TestHasNewsFromCompany(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"/_refresh": `{}`,
		"/_count":   `{"count":2}`,
	})

	ok, err := client.HasNewsFromCompany(context.Background(), "Claude")
	require.NoError(t, err)
	require.True(t, ok)

	req := fake.last()
	require.Equal(t, "/news/_count", req.Path)
	require.Equal(t, "Claude", req.Body["query"].(map[string]any)["term"].(map[string]any)["company"])
}

func TestListNewsFiltersCompanies(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"/_search": `{"hits":{"hits":[]}}`,
	})

	_, err := client.ListNews(context.Background(), []string{"Claude", "Anthropic"}, 0)
	require.NoError(t, err)

	req := fake.last()
	require.EqualValues(t, 100, req.Body["size"])
	terms := req.Body["query"].(map[string]any)["terms"].(map[string]any)["company"].([]any)
	require.Equal(t, []any{"Claude", "Anthropic"}, terms)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
