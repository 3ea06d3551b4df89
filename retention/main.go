package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeafMist/ai-radar/backend/internal/config"
	"github.com/DeafMist/ai-radar/backend/internal/elasticsearch"
	"github.com/DeafMist/ai-radar/backend/internal/logger"
)

type newsPruner interface {
	DeleteNewsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func main() {
	config.LoadDotEnv()
	log := logger.New("retention")
	cfg, err := config.LoadRetention()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := elasticsearch.New(elasticsearch.Config{
		Addr:          cfg.ElasticsearchAddr,
		NewsIndex:     cfg.NewsIndex,
		StartupsIndex: cfg.StartupsIndex,
		DeleteBatch:   cfg.BatchSize,
	}, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	if err := esClient.WaitReady(ctx, 10); err != nil {
		if ctx.Err() != nil {
			log.Info("shutdown signal received during startup")
			return
		}
		log.Error("failed to connect to elasticsearch after retries", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("connected to elasticsearch")

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("retention job running",
		slog.Duration("interval", cfg.Interval),
		slog.Duration("max_age", cfg.MaxAge),
	)

	// First pass right away; a failure waits for the next tick.
	runOnce(ctx, log, esClient, cfg.MaxAge, time.Now())

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case now := <-ticker.C:
			runOnce(ctx, log, esClient, cfg.MaxAge, now)
		}
	}
}

func runOnce(ctx context.Context, log *slog.Logger, pruner newsPruner, maxAge time.Duration, now time.Time) int64 {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cutoff := now.UTC().Add(-maxAge)
	deleted, err := pruner.DeleteNewsBefore(subCtx, cutoff)
	if err != nil {
		log.Warn("retention run failed (will retry on next interval)", slog.Any("err", err))
		return deleted
	}

	if deleted > 0 {
		log.Info("retention run completed", slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	} else {
		log.Debug("retention run completed, no stale news found")
	}
	return deleted
}
