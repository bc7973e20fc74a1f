// Package news aggregates financial news from RSS sources. It defines a
// Source adapter interface and an Aggregator that deduplicates, sorts, and
// truncates the combined results.
package news

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/quantbrief/quantbrief/pkg/models"
)

// Source fetches news items for a ticker or query from one upstream feed.
type Source interface {
	// Name returns the human-readable name of this source.
	Name() string

	// Fetch returns news items for the given ticker symbol.
	Fetch(ctx context.Context, ticker string) ([]models.NewsItem, error)
}

// marketIndices are the index symbols polled for general market news.
var marketIndices = []string{"^GSPC", "^DJI", "^IXIC"}

// Aggregator combines news from multiple sources.
type Aggregator struct {
	sources []Source
	search  Source
	log     *slog.Logger
}

// NewAggregator creates an aggregator over the given ticker sources and a
// separate search source.
func NewAggregator(log *slog.Logger, search Source, sources ...Source) *Aggregator {
	return &Aggregator{sources: sources, search: search, log: log}
}

// GetNews returns up to limit news items for a ticker, combined across all
// sources. A failing source contributes nothing; duplicates (by exact title)
// keep the first occurrence; results are sorted newest-first by the raw
// published string.
func (a *Aggregator) GetNews(ctx context.Context, ticker string, limit int) []models.NewsItem {
	var all []models.NewsItem
	for _, src := range a.sources {
		items, err := src.Fetch(ctx, ticker)
		if err != nil {
			a.log.Warn("news source failed", "source", src.Name(), "ticker", ticker, "error", err)
			continue
		}
		all = append(all, items...)
	}

	unique := dedupeByTitle(all)

	// Published strings keep each feed's native format, so this ordering is
	// lexicographic rather than strictly chronological. Good enough for
	// roughly-sorted per-source feeds.
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Published > unique[j].Published
	})

	return truncate(unique, limit)
}

// GetMarketNews returns general market news gathered from the major index
// symbols. Sources are fetched concurrently per index but results keep the
// fixed index order, so deduplication stays deterministic. Unlike GetNews,
// first-seen order is preserved without re-sorting.
func (a *Aggregator) GetMarketNews(ctx context.Context, limit int) []models.NewsItem {
	perIndex := make([][]models.NewsItem, len(marketIndices))

	g, gctx := errgroup.WithContext(ctx)
	for i, index := range marketIndices {
		i, index := i, index
		g.Go(func() error {
			var items []models.NewsItem
			for _, src := range a.sources {
				got, err := src.Fetch(gctx, index)
				if err != nil {
					a.log.Warn("market news source failed", "source", src.Name(), "index", index, "error", err)
					continue
				}
				items = append(items, got...)
			}
			perIndex[i] = items
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors; failures are per-source warnings

	var all []models.NewsItem
	for _, items := range perIndex {
		all = append(all, items...)
	}
	return truncate(dedupeByTitle(all), limit)
}

// SearchNews returns up to limit items matching a free-text query from the
// search source. No dedup or sort pipeline: the feed's own relevance order
// is kept.
func (a *Aggregator) SearchNews(ctx context.Context, query string, limit int) []models.NewsItem {
	items, err := a.search.Fetch(ctx, query)
	if err != nil {
		a.log.Warn("news search failed", "query", query, "error", err)
		return []models.NewsItem{}
	}
	return truncate(items, limit)
}

// TrendingTopics returns the current set of stock market themes.
func (a *Aggregator) TrendingTopics() []string {
	return []string{
		"Federal Reserve",
		"Interest Rates",
		"Inflation",
		"Earnings Reports",
		"Tech Stocks",
		"AI & Technology",
		"Energy Sector",
		"Banking Crisis",
		"Cryptocurrency",
		"Market Volatility",
	}
}

// dedupeByTitle removes items with duplicate titles, keeping the first seen.
func dedupeByTitle(items []models.NewsItem) []models.NewsItem {
	seen := make(map[string]bool, len(items))
	unique := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		if seen[item.Title] {
			continue
		}
		seen[item.Title] = true
		unique = append(unique, item)
	}
	return unique
}

func truncate(items []models.NewsItem, limit int) []models.NewsItem {
	if items == nil {
		return []models.NewsItem{}
	}
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
