package market

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quantbrief/quantbrief/pkg/models"
	"github.com/quantbrief/quantbrief/pkg/utils"
)

// alphaVantageBaseURL is the default Alpha Vantage API host.
const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantage implements Provider using the Alpha Vantage REST API. It is
// the primary source when an API key is configured. The free tier allows 5
// requests per minute, so callers should pair it with a 12s pacer.
type AlphaVantage struct {
	client *resty.Client
	apiKey string
	pacer  *Pacer
}

// NewAlphaVantage creates an Alpha Vantage provider.
func NewAlphaVantage(apiKey string, pacer *Pacer) *AlphaVantage {
	client := resty.New()
	client.SetBaseURL(alphaVantageBaseURL)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", DefaultUserAgent)

	return &AlphaVantage{client: client, apiKey: apiKey, pacer: pacer}
}

// Name returns the provider name.
func (a *AlphaVantage) Name() string { return "Alpha Vantage" }

// --- Alpha Vantage API types ---

// avBar holds one OHLCV bar. Alpha Vantage returns all values as strings.
type avBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type avIntradayResponse struct {
	ErrorMessage string           `json:"Error Message"`
	Note         string           `json:"Note"`
	Information  string           `json:"Information"`
	Series       map[string]avBar `json:"Time Series (5min)"`
}

type avDailyResponse struct {
	ErrorMessage string           `json:"Error Message"`
	Note         string           `json:"Note"`
	Information  string           `json:"Information"`
	Series       map[string]avBar `json:"Time Series (Daily)"`
}

type avOverviewResponse struct {
	Symbol               string `json:"Symbol"`
	Name                 string `json:"Name"`
	Sector               string `json:"Sector"`
	Industry             string `json:"Industry"`
	MarketCapitalization string `json:"MarketCapitalization"`
	PERatio              string `json:"PERatio"`
	DividendYield        string `json:"DividendYield"`
	Week52High           string `json:"52WeekHigh"`
	Week52Low            string `json:"52WeekLow"`
}

// --- Public methods ---

// GetQuote returns a quote from the latest intraday bars, enriched with
// company overview data. An overview failure degrades the result to "N/A"
// and nil fundamentals rather than failing the quote.
func (a *AlphaVantage) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	ticker = utils.NormalizeTicker(ticker)

	if err := a.pacer.Acquire(ctx); err != nil {
		return nil, err
	}

	var intraday avIntradayResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function":   "TIME_SERIES_INTRADAY",
			"symbol":     ticker,
			"interval":   "5min",
			"outputsize": "compact",
			"apikey":     a.apiKey,
		}).
		SetResult(&intraday).
		Get("/query")
	if err != nil {
		return nil, fmt.Errorf("alphavantage intraday %s: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alphavantage intraday %s: HTTP %d", ticker, resp.StatusCode())
	}
	if msg := avAPIError(intraday.ErrorMessage, intraday.Note, intraday.Information); msg != "" {
		return nil, fmt.Errorf("alphavantage API error: %s", msg)
	}
	if len(intraday.Series) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	// Timestamps are "2006-01-02 15:04:05"; lexicographic order is
	// chronological, so the latest two bars are the last two keys.
	keys := make([]string, 0, len(intraday.Series))
	for k := range intraday.Series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	latest := intraday.Series[keys[len(keys)-1]]
	current := avFloat(latest.Close)
	if current == 0 {
		return nil, fmt.Errorf("%w: %s (no price data)", ErrTickerNotFound, ticker)
	}

	// With a single bar there is no earlier close to diff against, so the
	// change reads as zero.
	prev := current
	if len(keys) > 1 {
		prev = avFloat(intraday.Series[keys[len(keys)-2]].Close)
	}

	quote := &models.Quote{
		Ticker:        ticker,
		Name:          ticker,
		CurrentPrice:  models.Round2(current),
		PreviousClose: models.Round2(prev),
		ChangePercent: models.ChangePercent(current, prev),
		Volume:        avInt(latest.Volume),
		Sector:        "N/A",
		Industry:      "N/A",
	}

	// Overview is best-effort.
	if err := a.enrichQuote(ctx, ticker, quote); err != nil {
		return quote, nil
	}
	return quote, nil
}

// GetHistory returns daily OHLCV bars using TIME_SERIES_DAILY, trimmed to the
// requested period. Periods of a year or more request the full series.
func (a *AlphaVantage) GetHistory(ctx context.Context, ticker string, period string) ([]models.OHLCV, error) {
	ticker = utils.NormalizeTicker(ticker)

	if err := a.pacer.Acquire(ctx); err != nil {
		return nil, err
	}

	outputSize := "compact"
	if periodBars(period) > 100 {
		outputSize = "full"
	}

	var daily avDailyResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function":   "TIME_SERIES_DAILY",
			"symbol":     ticker,
			"outputsize": outputSize,
			"apikey":     a.apiKey,
		}).
		SetResult(&daily).
		Get("/query")
	if err != nil {
		return nil, fmt.Errorf("alphavantage daily %s: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alphavantage daily %s: HTTP %d", ticker, resp.StatusCode())
	}
	if msg := avAPIError(daily.ErrorMessage, daily.Note, daily.Information); msg != "" {
		return nil, fmt.Errorf("alphavantage API error: %s", msg)
	}
	if len(daily.Series) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	dates := make([]string, 0, len(daily.Series))
	for d := range daily.Series {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	if n := periodBars(period); n > 0 && len(dates) > n {
		dates = dates[len(dates)-n:]
	}

	bars := make([]models.OHLCV, 0, len(dates))
	for _, d := range dates {
		bar := daily.Series[d]
		date, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		bars = append(bars, models.OHLCV{
			Date:   date,
			Open:   avFloat(bar.Open),
			High:   avFloat(bar.High),
			Low:    avFloat(bar.Low),
			Close:  avFloat(bar.Close),
			Volume: avInt(bar.Volume),
		})
	}
	return bars, nil
}

// GetBatch fetches quotes sequentially with a courtesy delay between calls.
func (a *AlphaVantage) GetBatch(ctx context.Context, tickers []string) []models.Quote {
	return batchQuotes(ctx, a, tickers)
}

// --- Internal helpers ---

// enrichQuote fills name, sector, and fundamentals from the OVERVIEW endpoint.
func (a *AlphaVantage) enrichQuote(ctx context.Context, ticker string, quote *models.Quote) error {
	if err := a.pacer.Acquire(ctx); err != nil {
		return err
	}

	var overview avOverviewResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "OVERVIEW",
			"symbol":   ticker,
			"apikey":   a.apiKey,
		}).
		SetResult(&overview).
		Get("/query")
	if err != nil {
		return fmt.Errorf("alphavantage overview %s: %w", ticker, err)
	}
	if resp.IsError() || overview.Symbol == "" {
		return fmt.Errorf("alphavantage overview unavailable for %s", ticker)
	}

	if overview.Name != "" {
		quote.Name = overview.Name
	}
	if overview.Sector != "" {
		quote.Sector = overview.Sector
	}
	if overview.Industry != "" {
		quote.Industry = overview.Industry
	}
	quote.MarketCap = avFloat(overview.MarketCapitalization)
	if pe := avFloat(overview.PERatio); pe != 0 {
		quote.PERatio = &pe
	}
	if dy := avFloat(overview.DividendYield); dy != 0 {
		dy *= 100 // ratio to percentage
		quote.DividendYield = &dy
	}
	if high := avFloat(overview.Week52High); high != 0 {
		quote.Week52High = &high
	}
	if low := avFloat(overview.Week52Low); low != 0 {
		quote.Week52Low = &low
	}
	return nil
}

// avAPIError returns the first non-empty API-level error message. Alpha
// Vantage reports errors and throttling notes inside a 200 response.
func avAPIError(msgs ...string) string {
	for _, m := range msgs {
		if strings.TrimSpace(m) != "" {
			return m
		}
	}
	return ""
}

// avFloat parses an Alpha Vantage numeric string, returning 0 for "None",
// "-", or malformed values.
func avFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func avInt(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// periodBars maps a period string to an approximate number of trading days.
// 0 means the whole series.
func periodBars(period string) int {
	switch period {
	case "1d":
		return 1
	case "5d":
		return 5
	case "1mo":
		return 22
	case "3mo":
		return 66
	case "6mo":
		return 132
	case "1y":
		return 252
	case "2y":
		return 504
	case "5y":
		return 1260
	case "10y":
		return 2520
	case "ytd":
		return int(time.Since(time.Date(time.Now().Year(), 1, 1, 0, 0, 0, 0, time.UTC)).Hours() / 24)
	case "max":
		return 0
	default:
		return 22
	}
}
