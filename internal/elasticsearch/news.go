package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/DeafMist/ai-radar/backend/internal/models"
)

// UpsertNews inserts rec when its link is new, otherwise refreshes the
// company, date and summary of the stored record. createdAt survives updates.
func (c *Client) UpsertNews(ctx context.Context, rec models.NewsRecord) (models.UpsertResult, error) {
	body := map[string]any{
		"doc": map[string]any{
			"company": rec.Company,
			"date":    rec.Date,
			"summary": rec.Summary,
		},
		"upsert": rec,
	}

	result, err := c.upsert(ctx, c.news, rec.ID, body)
	if err != nil {
		return "", fmt.Errorf("upsert news %s: %w", rec.Link, err)
	}
	return models.UpsertResult(result), nil
}

// DeleteNewsBefore removes news dated strictly before cutoff using batched
// delete-by-query. It loops until a batch deletes fewer documents than the
// batch size.
func (c *Client) DeleteNewsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	totalDeleted := int64(0)

	for {
		body := map[string]any{
			"query": map[string]any{
				"range": map[string]any{
					"date": map[string]any{
						"lt": cutoff.UTC().Format(time.RFC3339),
					},
				},
			},
		}

		payload, err := json.Marshal(body)
		if err != nil {
			return totalDeleted, fmt.Errorf("marshal delete body: %w", err)
		}

		res, err := c.es.DeleteByQuery(
			[]string{c.news},
			bytes.NewReader(payload),
			c.es.DeleteByQuery.WithContext(ctx),
			c.es.DeleteByQuery.WithWaitForCompletion(true),
			c.es.DeleteByQuery.WithConflicts("proceed"),
			c.es.DeleteByQuery.WithScrollSize(c.deleteBatch),
			c.es.DeleteByQuery.WithRefresh(true),
		)
		if err != nil {
			return totalDeleted, fmt.Errorf("delete by query: %w", err)
		}

		if res.IsError() {
			data, _ := io.ReadAll(res.Body)
			res.Body.Close()
			return totalDeleted, fmt.Errorf("delete by query failed: %s", strings.TrimSpace(string(data)))
		}

		var parsed struct {
			Deleted int64 `json:"deleted"`
		}
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			res.Body.Close()
			return totalDeleted, fmt.Errorf("decode delete response: %w", err)
		}
		res.Body.Close()

		totalDeleted += parsed.Deleted

		if parsed.Deleted < int64(c.deleteBatch) {
			break
		}
	}

	return totalDeleted, nil
}

// HasNewsFromCompany reports whether any record carries the company label.
// The index is refreshed first so writes from the running cycle are visible.
func (c *Client) HasNewsFromCompany(ctx context.Context, company string) (bool, error) {
	if err := c.refresh(ctx, c.news); err != nil {
		return false, err
	}

	n, err := c.count(ctx, c.news, map[string]any{
		"term": map[string]any{"company": company},
	})
	if err != nil {
		return false, fmt.Errorf("count news for %s: %w", company, err)
	}
	return n > 0, nil
}

// FindNews returns the newest records whose title, summary, company or tool
// name contains needle, ignoring case.
func (c *Client) FindNews(ctx context.Context, needle string, limit int) ([]models.NewsRecord, error) {
	query := containsQuery(needle, "title", "summary", "company", "toolName")
	return searchDocs[models.NewsRecord](ctx, c, c.news, newestFirst(query, clampSize(limit, 3)))
}

// ListNews returns the newest records, optionally restricted to companies.
func (c *Client) ListNews(ctx context.Context, companies []string, limit int) ([]models.NewsRecord, error) {
	query := matchAll()
	if len(companies) > 0 {
		query = map[string]any{
			"terms": map[string]any{"company": companies},
		}
	}
	return searchDocs[models.NewsRecord](ctx, c, c.news, newestFirst(query, clampSize(limit, 100)))
}
