package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/quantbrief/quantbrief/pkg/models"
	"github.com/quantbrief/quantbrief/pkg/utils"
)

// summaryLimit caps the length of a news summary before the ellipsis.
const summaryLimit = 200

// yahooRSSBaseURL is the Yahoo Finance per-ticker headline feed.
const yahooRSSBaseURL = "https://feeds.finance.yahoo.com/rss/2.0/headline"

// YahooRSS fetches ticker headlines from the Yahoo Finance RSS feed.
type YahooRSS struct {
	baseURL string
	parser  *gofeed.Parser
}

// NewYahooRSS creates a Yahoo Finance RSS source.
func NewYahooRSS() *YahooRSS {
	return &YahooRSS{baseURL: yahooRSSBaseURL, parser: gofeed.NewParser()}
}

// Name returns the source name.
func (y *YahooRSS) Name() string { return "Yahoo Finance" }

// Fetch returns headlines for the given ticker.
func (y *YahooRSS) Fetch(ctx context.Context, ticker string) ([]models.NewsItem, error) {
	ticker = utils.NormalizeTicker(ticker)

	feedURL := fmt.Sprintf("%s?s=%s&region=US&lang=en-US", y.baseURL, url.QueryEscape(ticker))
	feed, err := y.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse yahoo RSS for %s: %w", ticker, err)
	}

	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, models.NewsItem{
			Title:     entry.Title,
			Link:      entry.Link,
			Published: entry.Published,
			Source:    y.Name(),
			Summary:   clipSummary(cleanHTML(entry.Description)),
		})
	}
	return items, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// clipSummary bounds a summary and marks it with an ellipsis. Empty
// summaries stay empty.
func clipSummary(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > summaryLimit {
		// Clip on a rune boundary so a multibyte character is never split.
		cut := summaryLimit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s + "..."
}
