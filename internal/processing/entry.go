package processing

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DeafMist/ai-radar/backend/internal/classify"
	"github.com/DeafMist/ai-radar/backend/internal/models"
	"github.com/DeafMist/ai-radar/backend/internal/sources"
)

// Entry is one raw item as parsed from a feed. Any field may be empty.
type Entry struct {
	Title          string
	ContentSnippet string
	Content        string
	Description    string
	PubDate        string
	ISODate        string
	Link           string
}

// Body returns the first non-empty text field of the entry.
func (e Entry) Body() string {
	for _, s := range []string{e.ContentSnippet, e.Content, e.Description} {
		if s != "" {
			return s
		}
	}
	return ""
}

// ResolveDate prefers the publish date, then the ISO date, then now.
func (e Entry) ResolveDate(now time.Time) time.Time {
	if ts := ParseTimestamp(e.PubDate); !ts.IsZero() {
		return ts
	}
	if ts := ParseTimestamp(e.ISODate); !ts.IsZero() {
		return ts
	}
	return now
}

// minSummaryLength is the length at or below which a summary is replaced by
// the title.
const minSummaryLength = 10

// NormalizeNews builds the canonical news record for an entry of src.
func NormalizeNews(e Entry, src sources.Source, now time.Time) models.NewsRecord {
	title := e.Title
	summary := CleanSummary(e.Body())
	company := classify.Company(title+" "+summary, src.Name)

	if utf8.RuneCountInString(summary) <= minSummaryLength {
		summary = title
	}

	return models.NewsRecord{
		ID:        BuildDocumentID(e.Link),
		Title:     title,
		ToolName:  ToolName(title),
		Company:   company,
		Summary:   summary,
		Link:      e.Link,
		Date:      e.ResolveDate(now),
		CreatedAt: now,
	}
}

// NormalizeStartup builds the canonical startup record for an entry of src.
func NormalizeStartup(e Entry, src sources.Source, now time.Time) models.StartupRecord {
	description := strings.TrimSpace(StripMarkup(e.Body()))

	return models.StartupRecord{
		ID:          BuildDocumentID(e.Link),
		Name:        LeadingSegment(e.Title),
		Description: description,
		Link:        e.Link,
		Source:      src.Name,
		Tags:        classify.Tags(e.Title+" "+description, src.Category),
		Date:        e.ResolveDate(now),
		CreatedAt:   now,
	}
}
