package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr string
	NewsIndex         string
	StartupsIndex     string
}

// Ingest tunes feed fetching and sync cycles.
type Ingest struct {
	FeedTimeout   time.Duration
	UserAgent     string
	NewsMaxAge    time.Duration
	StartupMaxAge time.Duration
	// Guarantee names the company whose seed record is written after an
	// empty news cycle. "off" disables seeding.
	Guarantee string
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Ingest
	BindAddr     string
	WriteTimeout time.Duration
	MaxPage      int
}

// Worker holds configuration for the Kafka sync-trigger worker.
type Worker struct {
	Common
	Ingest
	KafkaBrokers   []string
	SyncTopic      string
	ConsumerGroup  string
	DedupeCapacity int
	DedupeTTL      time.Duration
}

// Retention configures the cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// CLI configures radarctl.
type CLI struct {
	Common
	Ingest
	KafkaBrokers []string
	SyncTopic    string
}

// LoadDotEnv reads a .env file from the working directory into the process
// environment. Variables already set win; a missing file is not an error.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	ingest, err := loadIngest()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:       loadCommon(),
		Ingest:       ingest,
		BindAddr:     getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		WriteTimeout: getDuration("API_WRITE_TIMEOUT", "5m"),
		MaxPage:      getInt("API_MAX_PAGE_SIZE", 200),
	}

	if c.WriteTimeout <= 0 {
		return nil, fmt.Errorf("API_WRITE_TIMEOUT must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	ingest, err := loadIngest()
	if err != nil {
		return nil, err
	}

	c := &Worker{
		Common:         loadCommon(),
		Ingest:         ingest,
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		SyncTopic:      getEnv("KAFKA_SYNC_TOPIC", "radar_sync"),
		ConsumerGroup:  getEnv("KAFKA_CONSUMER_GROUP", "radar-worker"),
		DedupeCapacity: getInt("WORKER_DEDUPE_CAPACITY", 1000),
		DedupeTTL:      getDuration("WORKER_DEDUPE_TTL", "24h"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_CRON", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "168h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}

	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_CRON must be positive")
	}

	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

// LoadCLI builds the radarctl config from environment variables.
func LoadCLI() (*CLI, error) {
	ingest, err := loadIngest()
	if err != nil {
		return nil, err
	}

	return &CLI{
		Common:       loadCommon(),
		Ingest:       ingest,
		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092")),
		SyncTopic:    getEnv("KAFKA_SYNC_TOPIC", "radar_sync"),
	}, nil
}

// GuaranteeEnabled reports whether guaranteed seeding is on.
func (c Ingest) GuaranteeEnabled() bool {
	return c.Guarantee != "" && !strings.EqualFold(c.Guarantee, "off")
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr: getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		NewsIndex:         getEnv("ELASTICSEARCH_NEWS_INDEX", "news"),
		StartupsIndex:     getEnv("ELASTICSEARCH_STARTUPS_INDEX", "startups"),
	}
}

func loadIngest() (Ingest, error) {
	c := Ingest{
		FeedTimeout:   getDuration("FEED_TIMEOUT", "20s"),
		UserAgent:     getEnv("FEED_USER_AGENT", ""),
		NewsMaxAge:    getDuration("NEWS_MAX_AGE", "168h"),
		StartupMaxAge: getDuration("STARTUP_MAX_AGE", "17520h"),
		Guarantee:     strings.TrimSpace(getEnv("NEWS_GUARANTEE", "Claude")),
	}

	if c.FeedTimeout <= 0 {
		return c, fmt.Errorf("FEED_TIMEOUT must be positive")
	}
	if c.NewsMaxAge <= 0 {
		return c, fmt.Errorf("NEWS_MAX_AGE must be positive")
	}
	if c.StartupMaxAge <= 0 {
		return c, fmt.Errorf("STARTUP_MAX_AGE must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
