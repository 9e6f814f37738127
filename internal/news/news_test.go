package news

import (
	"testing"
	"time"

	"stockdesk/internal/dashboard"
	"stockdesk/pkg/stockdesk"
)

func TestEntriesKeepServerOrder(t *testing.T) {
	ts := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	items := []stockdesk.NewsItem{
		{Title: "Markets rally", Summary: "<p>Stocks <b>up</b></p>", PublishedAt: ts.UnixMilli()},
		{Title: "Oil &amp; gas dip", Summary: "plain"},
	}
	got := Entries(items)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Title != "Markets rally" || got[1].Title != "Oil & gas dip" {
		t.Errorf("unexpected titles %q, %q", got[0].Title, got[1].Title)
	}
	if got[0].Summary != "Stocks up" {
		t.Errorf("Summary = %q, want %q", got[0].Summary, "Stocks up")
	}
	if got[0].Published != dashboard.FormatDateTime(ts) {
		t.Errorf("Published = %q", got[0].Published)
	}
	if got[1].Published != "" {
		t.Errorf("missing timestamp should render empty, got %q", got[1].Published)
	}
}

func TestStripHTML(t *testing.T) {
	in := "<div>Hello&nbsp;<br/>world</div>\n\t!"
	if got := StripHTML(in); got != "Hello world !" {
		t.Errorf("StripHTML = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("headline", 5); got != "head…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
}
