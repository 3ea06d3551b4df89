package elasticsearch

import (
	"context"
	"fmt"

	"github.com/DeafMist/ai-radar/backend/internal/models"
)

// UpsertStartup inserts rec when its link is new, otherwise refreshes every
// field except createdAt.
func (c *Client) UpsertStartup(ctx context.Context, rec models.StartupRecord) (models.UpsertResult, error) {
	body := map[string]any{
		"doc": map[string]any{
			"name":        rec.Name,
			"description": rec.Description,
			"source":      rec.Source,
			"tags":        rec.Tags,
			"date":        rec.Date,
		},
		"upsert": rec,
	}

	result, err := c.upsert(ctx, c.startups, rec.ID, body)
	if err != nil {
		return "", fmt.Errorf("upsert startup %s: %w", rec.Link, err)
	}
	return models.UpsertResult(result), nil
}

// FindStartups returns the newest startups whose name, description or tags
// contain needle, ignoring case.
func (c *Client) FindStartups(ctx context.Context, needle string, limit int) ([]models.StartupRecord, error) {
	query := containsQuery(needle, "name", "description", "tags")
	return searchDocs[models.StartupRecord](ctx, c, c.startups, newestFirst(query, clampSize(limit, 3)))
}

// ListStartups returns the newest startups, optionally restricted to a tag.
func (c *Client) ListStartups(ctx context.Context, tag string, limit int) ([]models.StartupRecord, error) {
	query := matchAll()
	if tag != "" {
		query = map[string]any{
			"term": map[string]any{"tags": tag},
		}
	}
	return searchDocs[models.StartupRecord](ctx, c, c.startups, newestFirst(query, clampSize(limit, 60)))
}
