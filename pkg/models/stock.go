// Package models defines the core data structures used throughout QuantBrief.
package models

import (
	"math"
	"time"
)

// Quote represents a point-in-time snapshot of a stock.
// It is constructed fresh per request and never persisted.
//
// Providers may report partial data: price fields are always populated when a
// quote is returned at all, while metadata and fundamentals degrade to "N/A"
// or nil when the auxiliary fetch fails.
type Quote struct {
	Ticker        string   `json:"ticker"`
	Name          string   `json:"name"`
	CurrentPrice  float64  `json:"current_price"`
	PreviousClose float64  `json:"previous_close"`
	ChangePercent float64  `json:"change_percent"`
	Volume        int64    `json:"volume"`
	MarketCap     float64  `json:"market_cap"`
	Sector        string   `json:"sector"`
	Industry      string   `json:"industry"`
	PERatio       *float64 `json:"pe_ratio"`
	DividendYield *float64 `json:"dividend_yield"`
	Week52High    *float64 `json:"52_week_high"`
	Week52Low     *float64 `json:"52_week_low"`
}

// ChangePercent computes the percentage change from prev to current.
// Returns 0 when prev is zero.
func ChangePercent(current, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return Round2((current - prev) / prev * 100)
}

// Round2 rounds a value to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// OHLCV represents a single daily (or finer) candlestick bar.
type OHLCV struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// IndexSnapshot is a compact view of a market index used in market summaries.
type IndexSnapshot struct {
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
}
