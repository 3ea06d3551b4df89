package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Display limits.
const (
	SummaryLimit  = 500
	ToolNameLimit = 80
	Ellipsis      = "..."
)

var markup = regexp.MustCompile(`<[^>]*>?`)

// StripMarkup removes anything shaped like a tag and decodes &nbsp;.
// It cleans display text only and must not be relied on to neutralize
// executable content.
func StripMarkup(input string) string {
	if input == "" {
		return ""
	}
	cleaned := markup.ReplaceAllString(input, "")
	return strings.ReplaceAll(cleaned, "&nbsp;", " ")
}

// CleanSummary strips markup and truncates to SummaryLimit characters,
// adding Ellipsis only when something was cut.
func CleanSummary(input string) string {
	cleaned := StripMarkup(input)
	if utf8.RuneCountInString(cleaned) <= SummaryLimit {
		return strings.TrimSpace(cleaned)
	}
	return strings.TrimSpace(Truncate(cleaned, SummaryLimit)) + Ellipsis
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// LeadingSegment returns the trimmed text before the first colon.
func LeadingSegment(title string) string {
	head, _, _ := strings.Cut(title, ":")
	return strings.TrimSpace(head)
}

// ToolName derives the short product name shown on news cards.
func ToolName(title string) string {
	return Truncate(LeadingSegment(title), ToolNameLimit)
}

// BuildDocumentID hashes the natural key so one link maps to one document.
func BuildDocumentID(link string) string {
	s := sha1.Sum([]byte(strings.TrimSpace(link)))
	return hex.EncodeToString(s[:])
}

// ParseTimestamp accepts the layouts seen in RSS, Atom and ISO feeds and
// returns the zero time when none applies.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		time.RFC1123Z,
		time.RFC1123,
		time.RFC822Z,
		time.RFC822,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}

	for _, f := range formats {
		ts, err := time.Parse(f, raw)
		if err != nil {
			continue
		}
		if strings.Contains(f, "MST") {
			var ok bool
			if ts, ok = resolveZone(ts); !ok {
				continue
			}
		}
		return ts
	}

	return time.Time{}
}

// zoneOffsets holds the RFC 822 zone names other than UT and GMT.
var zoneOffsets = map[string]int{
	"EST": -5 * 3600, "EDT": -4 * 3600,
	"CST": -6 * 3600, "CDT": -5 * 3600,
	"MST": -7 * 3600, "MDT": -6 * 3600,
	"PST": -8 * 3600, "PDT": -7 * 3600,
}

// resolveZone fixes the offset of a time parsed from a zone abbreviation.
// time.Parse gives an abbreviation it does not know a zero offset; those are
// mapped through zoneOffsets or rejected.
func resolveZone(ts time.Time) (time.Time, bool) {
	name, offset := ts.Zone()
	if offset != 0 || name == "UTC" || name == "GMT" {
		return ts, true
	}
	off, ok := zoneOffsets[name]
	if !ok {
		return time.Time{}, false
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), time.FixedZone(name, off)), true
}
