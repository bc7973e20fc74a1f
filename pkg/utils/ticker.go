// Package utils provides small shared helpers for ticker handling.
package utils

import (
	"sort"
	"strings"
)

// commonStocks maps well-known company names to their US ticker symbols.
// Used for name-based ticker search, which the quote providers do not offer.
var commonStocks = map[string]string{
	"apple":      "AAPL",
	"microsoft":  "MSFT",
	"google":     "GOOGL",
	"alphabet":   "GOOGL",
	"amazon":     "AMZN",
	"tesla":      "TSLA",
	"meta":       "META",
	"facebook":   "META",
	"nvidia":     "NVDA",
	"berkshire":  "BRK-B",
	"visa":       "V",
	"jpmorgan":   "JPM",
	"walmart":    "WMT",
	"disney":     "DIS",
	"netflix":    "NFLX",
	"adobe":      "ADBE",
	"salesforce": "CRM",
	"intel":      "INTC",
	"amd":        "AMD",
	"uber":       "UBER",
}

// TrendingTickers is the default watchlist surfaced by the trending endpoint.
var TrendingTickers = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA",
	"TSLA", "META", "BRK-B", "V", "JPM",
}

// NormalizeTicker normalizes user input to the canonical uppercase symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// MatchTickers returns ticker symbols whose company name contains the query,
// or whose symbol matches it exactly (case-insensitive). The query itself,
// uppercased, is always included as a candidate so direct symbols pass
// through even when they are not in the name table.
func MatchTickers(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var names []string
	for name, ticker := range commonStocks {
		if strings.Contains(name, q) || q == strings.ToLower(ticker) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var matches []string
	seen := map[string]bool{}
	for _, name := range names {
		ticker := commonStocks[name]
		if !seen[ticker] {
			seen[ticker] = true
			matches = append(matches, ticker)
		}
	}

	direct := NormalizeTicker(query)
	if !seen[direct] {
		matches = append([]string{direct}, matches...)
	}
	return matches
}
