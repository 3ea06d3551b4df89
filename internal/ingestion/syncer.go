package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/DeafMist/ai-radar/backend/internal/metrics"
	"github.com/DeafMist/ai-radar/backend/internal/models"
	"github.com/DeafMist/ai-radar/backend/internal/processing"
	"github.com/DeafMist/ai-radar/backend/internal/sources"
)

// Sync kinds.
const (
	KindNews     = "news"
	KindStartups = "startups"
)

// Default retention windows.
const (
	DefaultNewsMaxAge    = 7 * 24 * time.Hour
	DefaultStartupMaxAge = 2 * 365 * 24 * time.Hour
)

// ErrUnknownKind is returned by Run for anything but KindNews or KindStartups.
var ErrUnknownKind = errors.New("unknown sync kind")

// Fetcher turns one feed source into raw entries.
type Fetcher interface {
	Fetch(ctx context.Context, src sources.Source) ([]processing.Entry, error)
}

// NewsStore is the write side of the news collection.
type NewsStore interface {
	DeleteNewsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	UpsertNews(ctx context.Context, rec models.NewsRecord) (models.UpsertResult, error)
	HasNewsFromCompany(ctx context.Context, company string) (bool, error)
}

// StartupStore is the write side of the startups collection.
type StartupStore interface {
	UpsertStartup(ctx context.Context, rec models.StartupRecord) (models.UpsertResult, error)
}

// Options tunes a Syncer. Zero values fall back to the built-in registry
// and retention windows.
type Options struct {
	NewsSources    []sources.Source
	StartupSources []sources.Source
	NewsMaxAge     time.Duration
	StartupMaxAge  time.Duration
	// Guarantees are seeded after a news cycle that left their company empty.
	Guarantees []sources.Guarantee
	Now        func() time.Time
}

// Syncer pulls every registered feed and writes normalized records.
// Sources are processed one at a time; a failing source never aborts a cycle.
type Syncer struct {
	fetcher  Fetcher
	news     NewsStore
	startups StartupStore
	opts     Options
	log      *slog.Logger
}

// NewSyncer wires a Syncer.
func NewSyncer(fetcher Fetcher, news NewsStore, startups StartupStore, opts Options, logger *slog.Logger) *Syncer {
	if opts.NewsSources == nil {
		opts.NewsSources = sources.News
	}
	if opts.StartupSources == nil {
		opts.StartupSources = sources.Startups
	}
	if opts.NewsMaxAge <= 0 {
		opts.NewsMaxAge = DefaultNewsMaxAge
	}
	if opts.StartupMaxAge <= 0 {
		opts.StartupMaxAge = DefaultStartupMaxAge
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Syncer{fetcher: fetcher, news: news, startups: startups, opts: opts, log: logger}
}

// Run executes the cycle named by kind.
func (s *Syncer) Run(ctx context.Context, kind string) (int, error) {
	switch kind {
	case KindNews:
		return s.SyncNews(ctx), nil
	case KindStartups:
		return s.SyncStartups(ctx), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// SyncNews prunes news older than the retention window, then upserts every
// fresh entry of every news source. It returns the number of records inserted
// or modified.
func (s *Syncer) SyncNews(ctx context.Context) int {
	began := time.Now()
	start := s.opts.Now()
	cutoff := start.Add(-s.opts.NewsMaxAge)
	log := s.log.With(slog.String("kind", KindNews))

	if deleted, err := s.news.DeleteNewsBefore(ctx, cutoff); err != nil {
		log.Warn("prune stale news failed", slog.Any("err", err))
	} else if deleted > 0 {
		log.Info("pruned stale news", slog.Int64("deleted", deleted))
	}

	synced := 0
	for _, src := range s.opts.NewsSources {
		if ctx.Err() != nil {
			log.Warn("news sync interrupted", slog.Any("err", ctx.Err()))
			break
		}

		n, err := s.syncNewsSource(ctx, src, start, cutoff)
		synced += n
		if err != nil {
			metrics.RecordSourceFailure(KindNews, src.Name)
			log.Error("news source skipped",
				slog.String("source", src.Name),
				slog.Any("err", err),
			)
		}
	}

	synced += s.seedGuarantees(ctx, start, log)

	metrics.RecordSync(KindNews, synced, time.Since(began).Seconds())
	log.Info("news sync completed", slog.Int("synced", synced))
	return synced
}

func (s *Syncer) syncNewsSource(ctx context.Context, src sources.Source, now, cutoff time.Time) (int, error) {
	entries, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, entry := range entries {
		if entry.Link == "" {
			continue
		}

		rec := processing.NormalizeNews(entry, src, now)
		if rec.Date.Before(cutoff) {
			continue
		}

		res, err := s.news.UpsertNews(ctx, rec)
		if err != nil {
			return synced, err
		}
		if res.Changed() {
			synced++
		}
	}

	s.log.Debug("news source synced",
		slog.String("source", src.Name),
		slog.Int("entries", len(entries)),
		slog.Int("synced", synced),
	)
	return synced, nil
}

func (s *Syncer) seedGuarantees(ctx context.Context, now time.Time, log *slog.Logger) int {
	seeded := 0
	for _, g := range s.opts.Guarantees {
		found, err := s.news.HasNewsFromCompany(ctx, g.Company)
		if err != nil {
			log.Warn("guarantee check failed", slog.String("company", g.Company), slog.Any("err", err))
			continue
		}
		if found {
			continue
		}

		rec := models.NewsRecord{
			ID:        processing.BuildDocumentID(g.Link),
			Title:     g.Title,
			ToolName:  g.ToolName,
			Company:   g.Company,
			Summary:   g.Summary,
			Link:      g.Link,
			Date:      now,
			CreatedAt: now,
		}
		if _, err := s.news.UpsertNews(ctx, rec); err != nil {
			log.Warn("guarantee seed failed", slog.String("company", g.Company), slog.Any("err", err))
			continue
		}

		log.Info("seeded guaranteed news", slog.String("company", g.Company))
		seeded++
	}
	return seeded
}

// SyncStartups upserts every startup entry newer than the startup retention
// window. Older stored records are left alone. It returns the number of
// records inserted.
func (s *Syncer) SyncStartups(ctx context.Context) int {
	began := time.Now()
	start := s.opts.Now()
	cutoff := start.Add(-s.opts.StartupMaxAge)
	log := s.log.With(slog.String("kind", KindStartups))

	synced := 0
	for _, src := range s.opts.StartupSources {
		if ctx.Err() != nil {
			log.Warn("startup sync interrupted", slog.Any("err", ctx.Err()))
			break
		}

		n, err := s.syncStartupSource(ctx, src, start, cutoff)
		synced += n
		if err != nil {
			metrics.RecordSourceFailure(KindStartups, src.Name)
			log.Error("startup source skipped",
				slog.String("source", src.Name),
				slog.Any("err", err),
			)
		}
	}

	metrics.RecordSync(KindStartups, synced, time.Since(began).Seconds())
	log.Info("startup sync completed", slog.Int("synced", synced))
	return synced
}

func (s *Syncer) syncStartupSource(ctx context.Context, src sources.Source, now, cutoff time.Time) (int, error) {
	entries, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, entry := range entries {
		if entry.Link == "" {
			continue
		}

		rec := processing.NormalizeStartup(entry, src, now)
		if rec.Date.Before(cutoff) {
			continue
		}

		res, err := s.startups.UpsertStartup(ctx, rec)
		if err != nil {
			return inserted, err
		}
		if res == models.UpsertCreated {
			inserted++
		}
	}
	return inserted, nil
}
