package elasticsearch

import "strings"

var newsMapping = map[string]any{
	"properties": map[string]any{
		"id":        map[string]any{"type": "keyword"},
		"title":     map[string]any{"type": "wildcard"},
		"toolName":  map[string]any{"type": "wildcard"},
		"company":   map[string]any{"type": "wildcard"},
		"summary":   map[string]any{"type": "wildcard"},
		"link":      map[string]any{"type": "keyword"},
		"date":      map[string]any{"type": "date"},
		"createdAt": map[string]any{"type": "date"},
	},
}

var startupsMapping = map[string]any{
	"properties": map[string]any{
		"id":          map[string]any{"type": "keyword"},
		"name":        map[string]any{"type": "wildcard"},
		"description": map[string]any{"type": "wildcard"},
		"link":        map[string]any{"type": "keyword"},
		"source":      map[string]any{"type": "keyword"},
		"tags":        map[string]any{"type": "wildcard"},
		"date":        map[string]any{"type": "date"},
		"createdAt":   map[string]any{"type": "date"},
	},
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// containsQuery matches documents where any field contains needle,
// ignoring case.
func containsQuery(needle string, fields ...string) map[string]any {
	pattern := "*" + wildcardEscaper.Replace(needle) + "*"

	should := make([]map[string]any, 0, len(fields))
	for _, field := range fields {
		should = append(should, map[string]any{
			"wildcard": map[string]any{
				field: map[string]any{
					"value":            pattern,
					"case_insensitive": true,
				},
			},
		})
	}

	return map[string]any{
		"bool": map[string]any{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
}

func newestFirst(query map[string]any, size int) map[string]any {
	return map[string]any{
		"size":  size,
		"query": query,
		"sort": []map[string]any{
			{"date": map[string]any{"order": "desc"}},
		},
	}
}

func matchAll() map[string]any {
	return map[string]any{"match_all": map[string]any{}}
}

func clampSize(size, fallback int) int {
	if size <= 0 {
		return fallback
	}
	if size > 200 {
		return 200
	}
	return size
}
