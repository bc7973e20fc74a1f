package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

const yahooFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Yahoo! Finance: AAPL News</title>
    <item>
      <title>Apple announces results</title>
      <link>https://finance.yahoo.com/news/apple-results</link>
      <pubDate>Mon, 15 Jan 2024 14:30:00 +0000</pubDate>
      <description>&lt;p&gt;Apple reported &lt;b&gt;record&lt;/b&gt; revenue.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Analysts weigh in</title>
      <link>https://finance.yahoo.com/news/analysts</link>
      <pubDate>Sun, 14 Jan 2024 09:00:00 +0000</pubDate>
      <description></description>
    </item>
  </channel>
</rss>`

func TestYahooRSSFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("s")
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, yahooFeedXML)
	}))
	defer srv.Close()

	src := NewYahooRSS()
	src.baseURL = srv.URL

	items, err := src.Fetch(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if gotQuery != "AAPL" {
		t.Errorf("ticker should be normalized in feed URL, got %q", gotQuery)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	first := items[0]
	if first.Title != "Apple announces results" {
		t.Errorf("Title: got %q", first.Title)
	}
	if first.Source != "Yahoo Finance" {
		t.Errorf("Source: got %q", first.Source)
	}
	if first.Published == "" {
		t.Error("Published should carry the feed's raw date string")
	}
	if strings.Contains(first.Summary, "<") {
		t.Errorf("Summary should be HTML-stripped, got %q", first.Summary)
	}
	if !strings.Contains(first.Summary, "record revenue") {
		t.Errorf("Summary content: got %q", first.Summary)
	}
	if !strings.HasSuffix(first.Summary, "...") {
		t.Errorf("non-empty summary should end with ellipsis, got %q", first.Summary)
	}

	if items[1].Summary != "" {
		t.Errorf("empty description should stay empty, got %q", items[1].Summary)
	}
}

func TestYahooRSSFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewYahooRSS()
	src.baseURL = srv.URL

	if _, err := src.Fetch(context.Background(), "AAPL"); err == nil {
		t.Error("expected error for unavailable feed")
	}
}

func TestGoogleNewsFetchAppendsStock(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>search</title>
<item><title>Nvidia surges</title><link>https://example.com/1</link><pubDate>Mon, 15 Jan 2024 10:00:00 +0000</pubDate></item>
</channel></rss>`)
	}))
	defer srv.Close()

	src := NewGoogleNews()
	src.baseURL = srv.URL

	items, err := src.Fetch(context.Background(), "nvidia earnings")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if gotQuery != "nvidia earnings stock" {
		t.Errorf("query: got %q, want %q", gotQuery, "nvidia earnings stock")
	}
	if len(items) != 1 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].Source != "Google News" {
		t.Errorf("Source: got %q", items[0].Source)
	}
	if items[0].Summary != "" {
		t.Errorf("search results carry no summary, got %q", items[0].Summary)
	}
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<p>hello <b>world</b></p>", "hello world"},
		{"  <div>spaced</div>  ", "spaced"},
	}
	for _, tc := range tests {
		if got := cleanHTML(tc.input); got != tc.want {
			t.Errorf("cleanHTML(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestClipSummary(t *testing.T) {
	if got := clipSummary(""); got != "" {
		t.Errorf("empty summary: got %q", got)
	}

	short := clipSummary("short text")
	if short != "short text..." {
		t.Errorf("short summary: got %q", short)
	}

	long := clipSummary(strings.Repeat("x", 300))
	if len(long) != summaryLimit+3 {
		t.Errorf("long summary length: got %d, want %d", len(long), summaryLimit+3)
	}
	if !strings.HasSuffix(long, "...") {
		t.Errorf("long summary should end with ellipsis")
	}

	// A multibyte character straddling the limit must not be cut in half.
	multibyte := clipSummary(strings.Repeat("€", 100))
	if !utf8.ValidString(multibyte) {
		t.Errorf("clipped multibyte summary is not valid UTF-8: %q", multibyte)
	}
	if !strings.HasSuffix(multibyte, "...") {
		t.Errorf("clipped multibyte summary should end with ellipsis")
	}
}
