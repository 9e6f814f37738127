// Package news prepares backend headlines for display in the stock panel.
package news

import (
	"html"
	"regexp"
	"strings"

	"stockdesk/internal/dashboard"
	"stockdesk/pkg/stockdesk"
)

// Entry is a headline ready to render.
type Entry struct {
	Title     string
	Summary   string
	Published string
	URL       string
}

// Entries converts items in server order. Summaries from upstream feeds
// often carry markup, which is stripped.
func Entries(items []stockdesk.NewsItem) []Entry {
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		e := Entry{
			Title:   StripHTML(it.Title),
			Summary: StripHTML(it.Summary),
			URL:     it.URL,
		}
		if it.PublishedAt > 0 {
			e.Published = dashboard.FormatDateTime(it.Published())
		}
		out = append(out, e)
	}
	return out
}

// --- HTML helpers ---

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
