package utils

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizePolicy = bluemonday.StrictPolicy()

// sanitizePasses bounds the fixpoint loop; each pass strips one layer of
// entity encoding
const sanitizePasses = 8

// SanitizeText strips all HTML markup from user-supplied text, including
// markup hidden behind entity encoding. Script and style element content is
// removed entirely, not just the tags. The result is plain text with
// entities decoded.
func SanitizeText(s string) string {
	for i := 0; i < sanitizePasses; i++ {
		next := html.UnescapeString(sanitizePolicy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	// Pathologically nested encoding; return the escaped form rather than
	// decoded markup
	return strings.TrimSpace(sanitizePolicy.Sanitize(s))
}

// SanitizeTags normalizes a tag list: markup stripped, lowercased, trimmed,
// deduplicated, each capped at 50 characters and the list at 10 entries.
func SanitizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))

	for _, tag := range tags {
		t := strings.ToLower(SanitizeText(tag))
		if r := []rune(t); len(r) > 50 {
			t = string(r[:50])
		}
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == 10 {
			break
		}
	}

	return out
}

// dateLayouts are tried in order against the whole input
var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// monthNamePattern finds a "Month day, year" fragment inside longer text
var monthNamePattern = regexp.MustCompile(
	`(?i)(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})`)

// ExtractDate parses a free-form date string into ISO 8601 (YYYY-MM-DD).
// Returns the empty string when nothing recognizable is present or the
// components do not form a valid calendar date.
func ExtractDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatIfPlausible(t)
		}
	}

	// Fall back to scanning for a month-name date inside the text
	if m := monthNamePattern.FindStringSubmatch(s); m != nil {
		candidate := fmt.Sprintf("%s %s %s", normalizeMonth(m[1]), m[2], m[3])
		for _, layout := range []string{"January 2 2006", "Jan 2 2006"} {
			if t, err := time.Parse(layout, candidate); err == nil {
				return formatIfPlausible(t)
			}
		}
	}

	return ""
}

// formatIfPlausible rejects years outside the plausible archival range;
// time.Parse already guarantees the month/day combination is a real date
func formatIfPlausible(t time.Time) string {
	if t.Year() < 1700 || t.Year() > 2100 {
		return ""
	}
	return t.Format("2006-01-02")
}

func normalizeMonth(m string) string {
	m = strings.TrimSuffix(strings.ToLower(m), ".")
	return strings.ToUpper(m[:1]) + m[1:]
}
