package news

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/quantbrief/quantbrief/pkg/models"
)

// googleRSSBaseURL is the Google News RSS search endpoint.
const googleRSSBaseURL = "https://news.google.com/rss/search"

// GoogleNews searches news by free-text query via the Google News RSS feed.
// It backs the aggregator's search operation rather than per-ticker fetching.
type GoogleNews struct {
	baseURL string
	parser  *gofeed.Parser
}

// NewGoogleNews creates a Google News search source.
func NewGoogleNews() *GoogleNews {
	return &GoogleNews{baseURL: googleRSSBaseURL, parser: gofeed.NewParser()}
}

// Name returns the source name.
func (g *GoogleNews) Name() string { return "Google News" }

// Fetch searches for news matching the query. "stock" is appended to bias
// results toward market coverage.
func (g *GoogleNews) Fetch(ctx context.Context, query string) ([]models.NewsItem, error) {
	q := url.QueryEscape(query + " stock")
	feedURL := fmt.Sprintf("%s?q=%s&hl=en-US&gl=US&ceid=US:en", g.baseURL, q)

	feed, err := g.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse google news RSS for %q: %w", query, err)
	}

	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, models.NewsItem{
			Title:     entry.Title,
			Link:      entry.Link,
			Published: entry.Published,
			Source:    g.Name(),
		})
	}
	return items, nil
}
