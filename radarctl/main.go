package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/urfave/cli/v2"

	"github.com/DeafMist/ai-radar/backend/internal/config"
	"github.com/DeafMist/ai-radar/backend/internal/elasticsearch"
	"github.com/DeafMist/ai-radar/backend/internal/feed"
	"github.com/DeafMist/ai-radar/backend/internal/ingestion"
	"github.com/DeafMist/ai-radar/backend/internal/logger"
	"github.com/DeafMist/ai-radar/backend/internal/models"
	"github.com/DeafMist/ai-radar/backend/internal/search"
	"github.com/DeafMist/ai-radar/backend/internal/sources"
)

type cycleRunner interface {
	Run(ctx context.Context, kind string) (int, error)
}

type searcher interface {
	Search(ctx context.Context, message string) (*search.Response, error)
}

type publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// backend builds the dependencies a command needs on demand, so commands
// that never touch the cluster or the broker do not require them.
type backend interface {
	Runner(ctx context.Context) (cycleRunner, error)
	Searcher(ctx context.Context) (searcher, error)
	Publisher() (publisher, string, error)
}

func main() {
	config.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newApp(os.Stdout, &liveBackend{}).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer, b backend) *cli.App {
	return &cli.App{
		Name:      "radarctl",
		Usage:     "Operate the AI radar feed aggregator",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "warn",
			},
		},
		Before: func(c *cli.Context) error {
			return os.Setenv("LOG_LEVEL", c.String("log-level"))
		},
		Commands: []*cli.Command{
			{
				Name:   "sources",
				Usage:  "List the registered news and startup feeds",
				Action: sourcesCommand,
			},
			{
				Name:      "sync",
				Usage:     "Run one sync cycle in-process",
				ArgsUsage: "news|startups",
				Action: func(c *cli.Context) error {
					return syncCommand(c, b)
				},
			},
			{
				Name:      "search",
				Usage:     "Ask the chat assistant a question",
				ArgsUsage: "<message>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the raw JSON reply",
					},
				},
				Action: func(c *cli.Context) error {
					return searchCommand(c, b)
				},
			},
			{
				Name:      "trigger",
				Usage:     "Queue a sync cycle for the worker",
				ArgsUsage: "news|startups",
				Action: func(c *cli.Context) error {
					return triggerCommand(c, b)
				},
			},
		},
	}
}

func sourcesCommand(c *cli.Context) error {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tCATEGORY\tURL")
	for _, src := range sources.News {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ingestion.KindNews, src.Name, src.Category, src.URL)
	}
	for _, src := range sources.Startups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ingestion.KindStartups, src.Name, src.Category, src.URL)
	}
	return tw.Flush()
}

func syncCommand(c *cli.Context, b backend) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}

	runner, err := b.Runner(c.Context)
	if err != nil {
		return err
	}

	synced, err := runner.Run(c.Context, kind)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%s sync finished: %d records synced\n", kind, synced)
	return nil
}

func searchCommand(c *cli.Context, b backend) error {
	message := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(message) == "" {
		return search.ErrEmptyMessage
	}

	engine, err := b.Searcher(c.Context)
	if err != nil {
		return err
	}

	resp, err := engine.Search(c.Context, message)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintln(c.App.Writer, resp.Message)
	for _, item := range resp.Results {
		fmt.Fprintf(c.App.Writer, "- [%s] %s (%s) %s\n", item.Type, item.Title, item.Subtitle, item.Link)
	}
	return nil
}

func triggerCommand(c *cli.Context, b backend) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}

	w, topic, err := b.Publisher()
	if err != nil {
		return err
	}
	defer w.Close()

	req := models.SyncRequest{
		ID:          uuid.NewString(),
		Kind:        kind,
		RequestedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal sync request: %w", err)
	}

	if err := w.WriteMessages(c.Context, kafka.Message{Key: []byte(req.ID), Value: payload}); err != nil {
		return fmt.Errorf("publish sync request: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "queued %s sync %s on %s\n", kind, req.ID, topic)
	return nil
}

func parseKind(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one argument: %s|%s", ingestion.KindNews, ingestion.KindStartups)
	}
	kind := strings.ToLower(c.Args().First())
	if kind != ingestion.KindNews && kind != ingestion.KindStartups {
		return "", fmt.Errorf("%w: %q", ingestion.ErrUnknownKind, kind)
	}
	return kind, nil
}

type liveBackend struct {
	cfg *config.CLI
	es  *elasticsearch.Client
	log *slog.Logger
}

func (l *liveBackend) setup() error {
	if l.cfg != nil {
		return nil
	}
	cfg, err := config.LoadCLI()
	if err != nil {
		return err
	}
	l.cfg = cfg
	l.log = logger.New("radarctl")
	return nil
}

func (l *liveBackend) store(ctx context.Context) (*elasticsearch.Client, error) {
	if err := l.setup(); err != nil {
		return nil, err
	}
	if l.es != nil {
		return l.es, nil
	}

	es, err := elasticsearch.New(elasticsearch.Config{
		Addr:          l.cfg.ElasticsearchAddr,
		NewsIndex:     l.cfg.NewsIndex,
		StartupsIndex: l.cfg.StartupsIndex,
	}, l.log)
	if err != nil {
		return nil, err
	}
	if err := es.WaitReady(ctx, 3); err != nil {
		return nil, err
	}
	if err := es.EnsureIndices(ctx); err != nil {
		return nil, err
	}
	l.es = es
	return es, nil
}

func (l *liveBackend) Runner(ctx context.Context) (cycleRunner, error) {
	es, err := l.store(ctx)
	if err != nil {
		return nil, err
	}

	opts := ingestion.Options{
		NewsMaxAge:    l.cfg.NewsMaxAge,
		StartupMaxAge: l.cfg.StartupMaxAge,
	}
	if l.cfg.GuaranteeEnabled() {
		opts.Guarantees = sources.Selected(l.cfg.Guarantee)
	}
	fetcher := feed.NewFetcher(l.cfg.FeedTimeout, l.cfg.UserAgent, l.log)
	return ingestion.NewSyncer(fetcher, es, es, opts, l.log), nil
}

func (l *liveBackend) Searcher(ctx context.Context) (searcher, error) {
	es, err := l.store(ctx)
	if err != nil {
		return nil, err
	}
	return search.NewEngine(es, l.log), nil
}

func (l *liveBackend) Publisher() (publisher, string, error) {
	if err := l.setup(); err != nil {
		return nil, "", err
	}
	if len(l.cfg.KafkaBrokers) == 0 {
		return nil, "", errors.New("KAFKA_BROKERS must contain at least one broker")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(l.cfg.KafkaBrokers...),
		Topic:                  l.cfg.SyncTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return w, l.cfg.SyncTopic, nil
}
