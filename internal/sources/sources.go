package sources

import "strings"

// Source is a named external feed endpoint.
type Source struct {
	Name string
	URL  string
	// Category is the fallback startup tag contributed by this feed.
	Category string
}

// News lists the feeds polled for AI-industry news.
var News = []Source{
	{Name: "Simon Willison", URL: "https://simonwillison.net/atom/entries/", Category: "AI"},
	{Name: "Anthropic Engineering", URL: "https://www.anthropic.com/index.xml", Category: "AI"},
	{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/", Category: "AI"},
	{Name: "The Verge AI", URL: "https://www.theverge.com/ai-artificial-intelligence/rss/index.xml", Category: "AI"},
	{Name: "Arxiv AI", URL: "http://export.arxiv.org/api/query?search_query=cat:cs.AI&sortby=submittedDate&sortOrder=descending", Category: "AI"},
	{Name: "Google News AI", URL: "https://news.google.com/rss/search?q=Anthropic+Claude+OR+OpenAI+GPT+OR+Gemini+AI&hl=en-US&gl=US&ceid=US:en", Category: "AI"},
}

// Startups lists the feeds polled for startup launches.
var Startups = []Source{
	{Name: "YC Blog", URL: "https://www.ycombinator.com/blog/rss", Category: "Tech"},
	{Name: "BetaList", URL: "https://betalist.com/rss", Category: "Consumer"},
	{Name: "EU-Startups", URL: "https://www.eu-startups.com/feed/", Category: "Tech"},
	{Name: "Startup Barn", URL: "https://startupbarn.io/feed/", Category: "SaaS"},
	{Name: "Hacker News Show", URL: "https://hnrss.github.io/show", Category: "DevTools"},
}

// Guarantee describes a seed news record written when a cycle ends without
// any record for Company.
type Guarantee struct {
	Company  string
	Title    string
	ToolName string
	Summary  string
	Link     string
}

// Guarantees holds the known seed records, keyed by company label.
var Guarantees = []Guarantee{
	{
		Company:  "Claude",
		Title:    "Claude Code: Remote Control local sessions from any device",
		ToolName: "Claude Code",
		Summary:  "Anthropic has launched a research preview of Remote Control for Claude Code, allowing developers to start a coding session on their local machine and control it from any mobile phone, tablet, or web browser.",
		Link:     "https://anthropic.com/news/claude-code-remote-control",
	},
}

// GuaranteeFor returns the seed rule for company, matched case-insensitively.
func GuaranteeFor(company string) (Guarantee, bool) {
	for _, g := range Guarantees {
		if strings.EqualFold(g.Company, company) {
			return g, true
		}
	}
	return Guarantee{}, false
}

// Selected returns the seed rules enabled by a configured company label.
// An empty label, "off" or an unknown company yields none.
func Selected(label string) []Guarantee {
	if g, ok := GuaranteeFor(strings.TrimSpace(label)); ok {
		return []Guarantee{g}
	}
	return nil
}
