package feed

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/DeafMist/ai-radar/backend/internal/processing"
	"github.com/DeafMist/ai-radar/backend/internal/sources"
)

// DefaultUserAgent is sent to feed providers that reject unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Fetcher downloads and parses one feed source at a time.
type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
	log     *slog.Logger
}

// NewFetcher builds a Fetcher whose requests are bounded by timeout.
func NewFetcher(timeout time.Duration, userAgent string, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fp := gofeed.NewParser()
	fp.Client = newHTTPClient(timeout)
	fp.UserAgent = userAgent

	return &Fetcher{parser: fp, timeout: timeout, log: logger}
}

// Fetch parses src and converts its items into raw entries.
func (f *Fetcher) Fetch(ctx context.Context, src sources.Source) ([]processing.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parsed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}

	entries := make([]processing.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, toEntry(item))
	}

	f.log.Debug("feed fetched",
		slog.String("source", src.Name),
		slog.Int("items", len(entries)),
	)
	return entries, nil
}

func toEntry(item *gofeed.Item) processing.Entry {
	e := processing.Entry{
		Title:       strings.TrimSpace(item.Title),
		Content:     item.Content,
		Description: item.Description,
		PubDate:     item.Published,
		Link:        strings.TrimSpace(item.Link),
	}

	// Plain-text preview of the richest body the feed offers.
	switch {
	case item.Content != "":
		e.ContentSnippet = strings.TrimSpace(processing.StripMarkup(item.Content))
	case item.Description != "":
		e.ContentSnippet = strings.TrimSpace(processing.StripMarkup(item.Description))
	}

	switch {
	case item.PublishedParsed != nil:
		e.ISODate = item.PublishedParsed.UTC().Format(time.RFC3339)
		// gofeed already resolved the zone; the raw string may use an
		// abbreviation time.Parse cannot place.
		e.PubDate = e.ISODate
	case item.UpdatedParsed != nil:
		e.ISODate = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	if e.Link == "" && len(item.Links) > 0 {
		e.Link = strings.TrimSpace(item.Links[0])
	}

	return e
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
