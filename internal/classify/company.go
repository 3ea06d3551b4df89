package classify

import "strings"

// CompanyRule maps a company label to the keywords that identify it.
type CompanyRule struct {
	Label    string
	Keywords []string
}

// Matches reports whether any keyword occurs in the lowercase text.
func (r CompanyRule) Matches(text string) bool {
	for _, k := range r.Keywords {
		if strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// SourceFallback labels an item by its feed name when no keyword matched.
type SourceFallback struct {
	Marker string
	Label  string
}

// Companies is evaluated in order; the first matching rule wins.
var Companies = []CompanyRule{
	{Label: "Claude", Keywords: []string{"Claude", "Anthropic", "MCP", "Model Context Protocol", "Computer Use", "Analysis Tool"}},
	{Label: "OpenAI", Keywords: []string{"OpenAI", "GPT", "Sora", "O1", "DALL-E"}},
	{Label: "Google AI", Keywords: []string{"Gemini", "Google AI", "Vertex", "DeepMind"}},
	{Label: "Meta AI", Keywords: []string{"Llama", "Meta AI", "PyTorch"}},
	{Label: "Mistral AI", Keywords: []string{"Mistral", "Mixtral"}},
}

// SourceFallbacks is consulted in order after every rule missed.
var SourceFallbacks = []SourceFallback{
	{Marker: "Mistral", Label: "Mistral AI"},
	{Marker: "Anthropic", Label: "Claude"},
}

// Company labels text published by sourceName. It never returns an empty
// label unless sourceName itself is empty.
func Company(text, sourceName string) string {
	content := strings.ToLower(text)
	for _, rule := range Companies {
		if rule.Matches(content) {
			return rule.Label
		}
	}

	for _, fb := range SourceFallbacks {
		if strings.Contains(sourceName, fb.Marker) {
			return fb.Label
		}
	}

	return sourceName
}

// filterAliases widens a listing filter to labels stored by older cycles.
var filterAliases = map[string][]string{
	"Claude": {"Claude", "Anthropic"},
}

// FilterLabels expands a company filter into the stored labels it covers.
func FilterLabels(company string) []string {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil
	}
	if labels, ok := filterAliases[company]; ok {
		return labels
	}
	return []string{company}
}
