package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/ai-radar/backend/internal/metrics"
	"github.com/DeafMist/ai-radar/backend/internal/models"
)

// ErrEmptyMessage is returned when the chat message is missing.
var ErrEmptyMessage = errors.New("message is required")

// Greeting answers queries too short to search for.
const Greeting = "Hello! I'm your AI Radar assistant. You can ask me about specific companies (like 'Claude' or 'OpenAI'), topics ('AI Agents'), or search for startups!"

// resultLimit caps each collection's contribution to a reply.
const resultLimit = 3

var fillers = regexp.MustCompile(`what's|what is|tell me about|search for|find|show me|any news on|about|latest`)

// Store is the read side the engine queries.
type Store interface {
	FindNews(ctx context.Context, needle string, limit int) ([]models.NewsRecord, error)
	FindStartups(ctx context.Context, needle string, limit int) ([]models.StartupRecord, error)
}

// Response is the chat assistant's reply.
type Response struct {
	Message string              `json:"message"`
	Results []models.ResultItem `json:"results"`
}

// Engine answers chat messages from the stored news and startups.
type Engine struct {
	store Store
	log   *slog.Logger
}

// NewEngine wires an Engine.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{store: store, log: logger}
}

// CleanQuery lowercases the message and strips conversational filler.
func CleanQuery(message string) string {
	q := strings.TrimSpace(strings.ToLower(message))
	q = fillers.ReplaceAllString(q, "")
	return strings.TrimSpace(q)
}

// Search answers message with up to three news items and three startups
// matching its cleaned form.
func (e *Engine) Search(ctx context.Context, message string) (*Response, error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}

	query := CleanQuery(message)
	if utf8.RuneCountInString(query) < 2 {
		metrics.RecordSearch("greeting")
		return &Response{Message: Greeting, Results: []models.ResultItem{}}, nil
	}

	var (
		news     []models.NewsRecord
		startups []models.StartupRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		news, err = e.store.FindNews(gctx, query, resultLimit)
		return err
	})
	g.Go(func() error {
		var err error
		startups, err = e.store.FindStartups(gctx, query, resultLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RecordSearch("error")
		e.log.Error("chat search failed", slog.String("query", query), slog.Any("err", err))
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	if len(news)+len(startups) == 0 {
		metrics.RecordSearch("miss")
	} else {
		metrics.RecordSearch("hit")
	}

	return &Response{
		Message: ComposeMessage(query, len(news) > 0, len(startups) > 0),
		Results: Merge(news, startups),
	}, nil
}

// ComposeMessage picks the reply template for which collections matched.
func ComposeMessage(query string, newsFound, startupsFound bool) string {
	switch {
	case newsFound && startupsFound:
		return fmt.Sprintf(`I've found these entries in our database for "%s":`, query)
	case newsFound:
		return fmt.Sprintf(`Here is the latest news record from our database on "%s":`, query)
	case startupsFound:
		return fmt.Sprintf(`I found a matching startup in our registry for "%s":`, query)
	default:
		return fmt.Sprintf(`I searched our internal radar database for "%s" but couldn't find any direct matches. Try searching for a different startup name or tech sector!`, query)
	}
}

// Merge maps both collections into result items, news first.
func Merge(news []models.NewsRecord, startups []models.StartupRecord) []models.ResultItem {
	out := make([]models.ResultItem, 0, len(news)+len(startups))
	for _, n := range news {
		out = append(out, models.ResultItem{
			ID:       n.ID,
			Type:     models.ResultNews,
			Title:    n.Title,
			Subtitle: n.Company,
			Content:  n.Summary,
			Link:     n.Link,
			Date:     n.Date,
		})
	}
	for _, s := range startups {
		out = append(out, models.ResultItem{
			ID:       s.ID,
			Type:     models.ResultStartup,
			Title:    s.Name,
			Subtitle: s.Source,
			Content:  s.Description,
			Link:     s.Link,
			Date:     s.Date,
		})
	}
	return out
}
