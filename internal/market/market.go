// Package market provides stock quote and history fetching from multiple
// market data providers. It defines a common Provider interface, concrete
// providers for Alpha Vantage and Yahoo Finance, and a failover Chain that
// tries providers in order until one succeeds.
package market

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/quantbrief/quantbrief/internal/config"
	"github.com/quantbrief/quantbrief/pkg/models"
)

// Provider defines the common interface that all market data providers
// implement.
type Provider interface {
	// Name returns the human-readable name of this provider.
	Name() string

	// GetQuote returns a near-real-time quote for the given ticker.
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)

	// GetHistory returns daily OHLCV bars for the given ticker and period
	// (e.g. "1mo", "1y").
	GetHistory(ctx context.Context, ticker string, period string) ([]models.OHLCV, error)

	// GetBatch returns quotes for multiple tickers. Tickers that fail to
	// resolve are skipped rather than failing the whole batch.
	GetBatch(ctx context.Context, tickers []string) []models.Quote
}

// --- Sentinel errors ---

// ErrTickerNotFound is returned when a ticker cannot be resolved by any provider.
var ErrTickerNotFound = fmt.Errorf("ticker not found")

// ErrNotSupported is returned when a provider does not support an operation.
var ErrNotSupported = fmt.Errorf("operation not supported by this provider")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests. Yahoo
// rejects requests without a browser-like agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPClient is a pre-configured HTTP client with reasonable timeouts.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doGet performs a GET request with the given URL and headers, returning the
// response body. The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.StatusCode, nil
}

// --- Provider selection ---

// Select builds the provider stack from configuration. The composition is
// fixed at startup: a configured Alpha Vantage key puts Alpha Vantage first
// with Yahoo Finance as per-call fallback; without a key Yahoo Finance serves
// alone.
func Select(cfg config.MarketConfig, log *slog.Logger) Provider {
	yahoo := NewYahoo(NewPacer(time.Duration(cfg.YahooIntervalSec) * time.Second))
	if !cfg.UseAlphaVantage() {
		log.Info("market provider selected", "provider", yahoo.Name())
		return yahoo
	}

	av := NewAlphaVantage(cfg.AlphaVantageKey, NewPacer(time.Duration(cfg.AlphaVantageIntervalSec)*time.Second))
	chain := NewChain(log, av, yahoo)
	log.Info("market provider selected", "provider", chain.Name())
	return chain
}

// --- Failover chain ---

// Chain tries each provider in order and returns the first success.
type Chain struct {
	providers []Provider
	log       *slog.Logger
}

// NewChain creates a failover chain over the given providers, in priority order.
func NewChain(log *slog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, log: log}
}

// Name returns the chain's composite name, e.g. "chain(Alpha Vantage, Yahoo Finance)".
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return "chain(" + strings.Join(names, ", ") + ")"
}

// GetQuote tries each provider in turn, returning the first successful quote.
func (c *Chain) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	for _, p := range c.providers {
		quote, err := p.GetQuote(ctx, ticker)
		if err == nil {
			return quote, nil
		}
		c.log.Warn("provider quote failed, trying next", "provider", p.Name(), "ticker", ticker, "error", err)
	}
	return nil, fmt.Errorf("%w: %s (all providers failed)", ErrTickerNotFound, ticker)
}

// GetHistory tries each provider in turn, returning the first non-empty history.
func (c *Chain) GetHistory(ctx context.Context, ticker string, period string) ([]models.OHLCV, error) {
	for _, p := range c.providers {
		bars, err := p.GetHistory(ctx, ticker, period)
		if err == nil && len(bars) > 0 {
			return bars, nil
		}
		c.log.Warn("provider history failed, trying next", "provider", p.Name(), "ticker", ticker, "error", err)
	}
	return nil, fmt.Errorf("%w: %s (all providers failed)", ErrTickerNotFound, ticker)
}

// GetBatch fetches quotes sequentially through the chain's failover logic.
func (c *Chain) GetBatch(ctx context.Context, tickers []string) []models.Quote {
	return batchQuotes(ctx, c, tickers)
}

// batchDelay is the pause between sequential quote calls in a batch, on top
// of whatever floor each provider's pacer enforces.
const batchDelay = 500 * time.Millisecond

// batchQuotes fetches quotes one by one with a courtesy delay between calls.
// Tickers that fail are skipped.
func batchQuotes(ctx context.Context, p Provider, tickers []string) []models.Quote {
	quotes := make([]models.Quote, 0, len(tickers))
	for i, ticker := range tickers {
		if i > 0 {
			select {
			case <-ctx.Done():
				return quotes
			case <-time.After(batchDelay):
			}
		}
		quote, err := p.GetQuote(ctx, ticker)
		if err != nil {
			continue
		}
		quotes = append(quotes, *quote)
	}
	return quotes
}
