package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/ai-radar/backend/internal/config"
	"github.com/DeafMist/ai-radar/backend/internal/dedupe"
	"github.com/DeafMist/ai-radar/backend/internal/elasticsearch"
	"github.com/DeafMist/ai-radar/backend/internal/feed"
	"github.com/DeafMist/ai-radar/backend/internal/ingestion"
	"github.com/DeafMist/ai-radar/backend/internal/logger"
	"github.com/DeafMist/ai-radar/backend/internal/models"
	"github.com/DeafMist/ai-radar/backend/internal/sources"
)

type cycleRunner interface {
	Run(ctx context.Context, kind string) (int, error)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func main() {
	config.LoadDotEnv()
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
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
	runner := ingestion.NewSyncer(feed.NewFetcher(cfg.FeedTimeout, cfg.UserAgent, log), esClient, esClient, opts, log)
	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.SyncTopic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       1e6,
		CommitInterval: 0, // manual commit only
	})
	defer reader.Close()

	dlqTopic := cfg.SyncTopic + "_dlq"
	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       dlqTopic,
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.SyncTopic),
		slog.String("group", cfg.ConsumerGroup),
		slog.String("dlq_topic", dlqTopic),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, runner, cache, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			if !sendToDLQ(ctx, log, dlqWriter, msg, err) {
				if ctx.Err() != nil {
					return
				}
				// Skipping the commit only helps until a later message commits.
				log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// processMessage runs the cycle requested by msg. Requests already handled
// inside the dedupe window are acknowledged without running again.
func processMessage(ctx context.Context, log *slog.Logger, runner cycleRunner, cache *dedupe.Cache, msg kafka.Message) error {
	var req models.SyncRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("decode sync request: %w", err)
	}

	req.Kind = strings.ToLower(strings.TrimSpace(req.Kind))
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		req.ID = string(msg.Key)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if cache.Seen(req.ID) {
		log.Debug("duplicate sync request", slog.String("id", req.ID))
		return nil
	}

	started := time.Now()
	synced, err := runner.Run(ctx, req.Kind)
	if err != nil {
		return err
	}

	cache.Remember(req.ID)
	log.Info("sync request handled",
		slog.String("id", req.ID),
		slog.String("kind", req.Kind),
		slog.Int("synced", synced),
		slog.Duration("took", time.Since(started)),
	)
	return nil
}

// sendToDLQ forwards msg with error context, retrying with exponential backoff.
func sendToDLQ(ctx context.Context, log *slog.Logger, w messageWriter, msg kafka.Message, cause error) bool {
	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := 0; attempt < 5; attempt++ {
		dlqErr := w.WriteMessages(ctx, dlqMsg)
		if dlqErr == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			log.Info("context canceled during DLQ retry")
			return false
		}
	}
	return false
}
