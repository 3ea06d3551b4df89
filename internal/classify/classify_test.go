package classify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/ai-radar/backend/internal/classify"
)

func TestCompany(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		source string
		want   string
	}{
		{name: "keyword", text: "OpenAI ships a new model", source: "TechCrunch AI", want: "OpenAI"},
		{name: "first rule wins", text: "Claude beats GPT on benchmarks", source: "The Verge AI", want: "Claude"},
		{name: "declaration order over text order", text: "Gemini and MCP integration", source: "The Verge AI", want: "Claude"},
		{name: "multi word keyword", text: "notes on model context protocol servers", source: "Simon Willison", want: "Claude"},
		{name: "mistral source fallback", text: "weekly roundup", source: "Mistral Blog", want: "Mistral AI"},
		{name: "anthropic source fallback", text: "engineering notes", source: "Anthropic Engineering", want: "Claude"},
		{name: "source name verbatim", text: "arxiv: new diffusion model released", source: "Arxiv AI", want: "Arxiv AI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, classify.Company(tt.text, tt.source))
		})
	}
}

func TestCompanyIgnoresCase(t *testing.T) {
	for _, text := range []string{"Claude 4 released", "claude 4 released", "CLAUDE 4 RELEASED"} {
		require.Equal(t, "Claude", classify.Company(text, "Google News AI"))
	}
}

func TestTags(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		want     []string
	}{
		{name: "no match seeds default", text: "a new way to brew coffee", category: "Consumer", want: []string{"Consumer", "Tech"}},
		{name: "no match tech default", text: "a new way to brew coffee", category: "Tech", want: []string{"Tech"}},
		{name: "blockchain implies web3", text: "a blockchain ledger for farms", category: "Tech", want: []string{"Blockchain", "Web3", "Tech"}},
		{name: "default added as prior", text: "an ai copilot for lawyers", category: "SaaS", want: []string{"AI", "SaaS", "Tech"}},
		{name: "default already matched", text: "b2b saas for ai agents", category: "SaaS", want: []string{"AI", "SaaS", "Tech"}},
		{name: "multiple categories", text: "Show HN: open-source payments SDK for developers", category: "DevTools", want: []string{"Fintech", "DevTools", "Tech"}},
		{name: "word boundary", text: "maintain a fair trail", category: "Tech", want: []string{"Tech"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, classify.Tags(tt.text, tt.category))
		})
	}
}

func TestTagsAlwaysIncludeTech(t *testing.T) {
	for _, text := range []string{"", "crypto", "ai agents marketplace", "fitness app"} {
		for _, category := range classify.Vocabulary {
			require.Contains(t, classify.Tags(text, category), classify.TagTech)
		}
	}
}

func TestFilterLabels(t *testing.T) {
	require.Equal(t, []string{"Claude", "Anthropic"}, classify.FilterLabels("Claude"))
	require.Equal(t, []string{"OpenAI"}, classify.FilterLabels(" OpenAI "))
	require.Nil(t, classify.FilterLabels(""))
}
