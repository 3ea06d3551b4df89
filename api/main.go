package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DeafMist/ai-radar/backend/internal/classify"
	"github.com/DeafMist/ai-radar/backend/internal/config"
	"github.com/DeafMist/ai-radar/backend/internal/elasticsearch"
	"github.com/DeafMist/ai-radar/backend/internal/feed"
	"github.com/DeafMist/ai-radar/backend/internal/ingestion"
	"github.com/DeafMist/ai-radar/backend/internal/logger"
	"github.com/DeafMist/ai-radar/backend/internal/models"
	"github.com/DeafMist/ai-radar/backend/internal/search"
	"github.com/DeafMist/ai-radar/backend/internal/sources"
)

type syncer interface {
	SyncNews(ctx context.Context) int
	SyncStartups(ctx context.Context) int
}

type searcher interface {
	Search(ctx context.Context, message string) (*search.Response, error)
}

type store interface {
	Health(ctx context.Context) error
	ListNews(ctx context.Context, companies []string, limit int) ([]models.NewsRecord, error)
	ListStartups(ctx context.Context, tag string, limit int) ([]models.StartupRecord, error)
}

func main() {
	config.LoadDotEnv()
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(elasticsearch.Config{
		Addr:          cfg.ElasticsearchAddr,
		NewsIndex:     cfg.NewsIndex,
		StartupsIndex: cfg.StartupsIndex,
	}, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := esClient.WaitReady(ctx, 10); err != nil {
		log.Error("elasticsearch unavailable", slog.Any("err", err))
		os.Exit(1)
	}
	if err := esClient.EnsureIndices(ctx); err != nil {
		log.Error("ensure indices", slog.Any("err", err))
		os.Exit(1)
	}

	opts := ingestion.Options{
		NewsMaxAge:    cfg.NewsMaxAge,
		StartupMaxAge: cfg.StartupMaxAge,
	}
	if cfg.GuaranteeEnabled() {
		opts.Guarantees = sources.Selected(cfg.Guarantee)
	}
	fetcher := feed.NewFetcher(cfg.FeedTimeout, cfg.UserAgent, log)

	srv := &server{
		log:     log,
		maxPage: cfg.MaxPage,
		store:   esClient,
		syncer:  ingestion.NewSyncer(fetcher, esClient, esClient, opts, log),
		search:  search.NewEngine(esClient, log),
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Sync cycles answer only after every source was visited.
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type server struct {
	log     *slog.Logger
	maxPage int
	store   store
	syncer  syncer
	search  searcher
}

type errorResponse struct {
	Error string `json:"error"`
}

type syncResponse struct {
	SyncedCount int `json:"syncedCount"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/news-sync", s.handleNewsSync)
		r.Get("/startup-sync", s.handleStartupSync)
		r.Post("/chat-search", s.handleChatSearch)
		r.Get("/news", s.handleListNews)
		r.Get("/startups", s.handleListStartups)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleNewsSync(w http.ResponseWriter, r *http.Request) {
	// A started cycle runs to completion even if the caller hangs up.
	synced := s.syncer.SyncNews(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, syncResponse{SyncedCount: synced})
}

func (s *server) handleStartupSync(w http.ResponseWriter, r *http.Request) {
	synced := s.syncer.SyncStartups(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, syncResponse{SyncedCount: synced})
}

func (s *server) handleChatSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := s.search.Search(ctx, req.Message)
	switch {
	case errors.Is(err, search.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Message is required"})
		return
	case err != nil:
		s.log.Error("chat search", slog.Any("err", err), slog.String("request_id", middleware.GetReqID(ctx)))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to process chat"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleListNews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	companies := classify.FilterLabels(r.URL.Query().Get("company"))
	limit := clampInt(r.URL.Query().Get("limit"), 0, s.maxPage)

	items, err := s.store.ListNews(ctx, companies, limit)
	if err != nil {
		s.log.Error("list news", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load news"})
		return
	}
	if items == nil {
		items = []models.NewsRecord{}
	}

	writeJSON(w, http.StatusOK, listResponse[models.NewsRecord]{Items: items})
}

func (s *server) handleListStartups(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	limit := clampInt(r.URL.Query().Get("limit"), 0, s.maxPage)

	items, err := s.store.ListStartups(ctx, tag, limit)
	if err != nil {
		s.log.Error("list startups", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load startups"})
		return
	}
	if items == nil {
		items = []models.StartupRecord{}
	}

	writeJSON(w, http.StatusOK, listResponse[models.StartupRecord]{Items: items})
}

// clampInt parses a positive integer capped at max. A zero fallback leaves
// the choice of default to the store.
func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
