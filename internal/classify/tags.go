package classify

import (
	"regexp"
	"slices"
	"strings"
)

// Startup tag vocabulary.
const (
	TagAI         = "AI"
	TagBlockchain = "Blockchain"
	TagWeb3       = "Web3"
	TagSaaS       = "SaaS"
	TagFintech    = "Fintech"
	TagEcommerce  = "Ecommerce"
	TagDevTools   = "DevTools"
	TagConsumer   = "Consumer"
	TagTech       = "Tech"
)

// Vocabulary lists every tag in display order.
var Vocabulary = []string{
	TagAI, TagBlockchain, TagWeb3, TagSaaS, TagFintech,
	TagEcommerce, TagDevTools, TagConsumer, TagTech,
}

type tagRule struct {
	pattern *regexp.Regexp
	tags    []string
}

var tagRules = []tagRule{
	{
		pattern: regexp.MustCompile(`\b(ai|artificial intelligence|machine learning|ml|llms?|gpt|genai|agents?|neural|copilot)\b`),
		tags:    []string{TagAI},
	},
	{
		pattern: regexp.MustCompile(`\b(blockchain|crypto|cryptocurrency|bitcoin|ethereum|solana|defi|tokens?)\b`),
		tags:    []string{TagBlockchain, TagWeb3},
	},
	{
		pattern: regexp.MustCompile(`\b(web3|dao|dapps?|nfts?|decentralized)\b`),
		tags:    []string{TagWeb3},
	},
	{
		pattern: regexp.MustCompile(`\b(saas|b2b|crm|subscriptions?|workflows?|dashboards?)\b`),
		tags:    []string{TagSaaS},
	},
	{
		pattern: regexp.MustCompile(`\b(fintech|payments?|banking|lending|invoicing|insurtech|financial)\b`),
		tags:    []string{TagFintech},
	},
	{
		pattern: regexp.MustCompile(`\b(e-?commerce|shopify|marketplace|retail|checkout|storefront|d2c|dtc)\b`),
		tags:    []string{TagEcommerce},
	},
	{
		pattern: regexp.MustCompile(`\b(developers?|devtools|apis?|sdk|cli|open[- ]source|github|coding|debugging|devops)\b`),
		tags:    []string{TagDevTools},
	},
	{
		pattern: regexp.MustCompile(`\b(consumer|social|dating|fitness|travel|lifestyle|mobile app|gaming)\b`),
		tags:    []string{TagConsumer},
	},
}

// Tags detects startup categories in text. defaultCategory is the owning
// feed's category and acts as a weak prior. The result always contains Tech.
func Tags(text, defaultCategory string) []string {
	content := strings.ToLower(text)

	var out []string
	add := func(tag string) {
		if tag != "" && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}

	for _, rule := range tagRules {
		if rule.pattern.MatchString(content) {
			for _, tag := range rule.tags {
				add(tag)
			}
		}
	}

	if len(out) == 0 || defaultCategory != TagTech {
		add(defaultCategory)
	}
	add(TagTech)

	return out
}
