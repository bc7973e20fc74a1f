package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/quantbrief/quantbrief/pkg/models"
	"github.com/quantbrief/quantbrief/pkg/utils"
)

// yahooBaseURL is the default Yahoo Finance API host.
const yahooBaseURL = "https://query1.finance.yahoo.com"

// validPeriods are the chart API range values Yahoo accepts.
var validPeriods = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

// Yahoo implements Provider using the public Yahoo Finance API. It needs no
// API key, which makes it the fallback of last resort.
type Yahoo struct {
	baseURL string
	pacer   *Pacer
}

// NewYahoo creates a Yahoo Finance provider.
func NewYahoo(pacer *Pacer) *Yahoo {
	return &Yahoo{baseURL: yahooBaseURL, pacer: pacer}
}

// Name returns the provider name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yfSummaryResponse struct {
	QuoteSummary struct {
		Result []yfSummaryResult `json:"result"`
		Error  *yfError          `json:"error"`
	} `json:"quoteSummary"`
}

type yfSummaryResult struct {
	Price *struct {
		LongName  string `json:"longName"`
		ShortName string `json:"shortName"`
		MarketCap *yfVal `json:"marketCap"`
	} `json:"price"`
	AssetProfile *struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
	} `json:"assetProfile"`
	SummaryDetail *struct {
		TrailingPE       *yfVal `json:"trailingPE"`
		DividendYield    *yfVal `json:"dividendYield"`
		FiftyTwoWeekHigh *yfVal `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  *yfVal `json:"fiftyTwoWeekLow"`
	} `json:"summaryDetail"`
}

type yfVal struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// GetQuote returns a quote assembled from the chart API (price, previous
// close, volume) and the quoteSummary API (name, sector, fundamentals).
// Quote assembly fails only when price data is unavailable; a metadata
// failure degrades the result to "N/A" and nil fundamentals.
func (y *Yahoo) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	ticker = utils.NormalizeTicker(ticker)

	result, err := y.fetchChart(ctx, ticker, "2d", "1d")
	if err != nil {
		return nil, err
	}

	current := result.Meta.RegularMarketPrice
	prev := result.Meta.ChartPreviousClose
	var volume int64

	if len(result.Indicators.Quote) > 0 {
		bars := result.Indicators.Quote[0]
		n := len(bars.Close)
		if n > 0 && bars.Close[n-1] != nil && current == 0 {
			current = *bars.Close[n-1]
		}
		if n > 1 && bars.Close[n-2] != nil && prev == 0 {
			prev = *bars.Close[n-2]
		}
		if n > 0 && n <= len(bars.Volume) && bars.Volume[n-1] != nil {
			volume = *bars.Volume[n-1]
		}
	}
	if current == 0 {
		return nil, fmt.Errorf("%w: %s (no price data)", ErrTickerNotFound, ticker)
	}

	quote := &models.Quote{
		Ticker:        ticker,
		Name:          ticker,
		CurrentPrice:  models.Round2(current),
		PreviousClose: models.Round2(prev),
		ChangePercent: models.ChangePercent(current, prev),
		Volume:        volume,
		Sector:        "N/A",
		Industry:      "N/A",
	}

	// Metadata is best-effort.
	if err := y.enrichQuote(ctx, ticker, quote); err != nil {
		return quote, nil
	}
	return quote, nil
}

// GetHistory returns daily OHLCV bars. Unknown periods fall back to "1mo".
func (y *Yahoo) GetHistory(ctx context.Context, ticker string, period string) ([]models.OHLCV, error) {
	ticker = utils.NormalizeTicker(ticker)
	if !validPeriods[period] {
		period = "1mo"
	}

	result, err := y.fetchChart(ctx, ticker, period, "1d")
	if err != nil {
		return nil, err
	}

	bars := parseChartBars(result)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s (no history)", ErrTickerNotFound, ticker)
	}
	return bars, nil
}

// GetBatch fetches quotes sequentially with a courtesy delay between calls.
func (y *Yahoo) GetBatch(ctx context.Context, tickers []string) []models.Quote {
	return batchQuotes(ctx, y, tickers)
}

// --- Internal helpers ---

func (y *Yahoo) fetchChart(ctx context.Context, ticker, rng, interval string) (*yfChartResult, error) {
	if err := y.pacer.Acquire(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s", y.baseURL, ticker, rng, interval)
	body, _, err := doGet(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo chart: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}
	return &resp.Chart.Result[0], nil
}

// enrichQuote fills name, sector, and fundamentals from the quoteSummary API.
func (y *Yahoo) enrichQuote(ctx context.Context, ticker string, quote *models.Quote) error {
	if err := y.pacer.Acquire(ctx); err != nil {
		return err
	}

	modules := "price,assetProfile,summaryDetail"
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", y.baseURL, ticker, modules)
	body, _, err := doGet(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return fmt.Errorf("yahoo summary %s: %w", ticker, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var resp yfSummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("parse yahoo summary: %w", err)
	}
	if resp.QuoteSummary.Error != nil || len(resp.QuoteSummary.Result) == 0 {
		return fmt.Errorf("yahoo summary unavailable for %s", ticker)
	}

	r := resp.QuoteSummary.Result[0]
	if r.Price != nil {
		if name := coalesce(r.Price.LongName, r.Price.ShortName); name != "" {
			quote.Name = name
		}
		if r.Price.MarketCap != nil {
			quote.MarketCap = r.Price.MarketCap.Raw
		}
	}
	if r.AssetProfile != nil {
		if r.AssetProfile.Sector != "" {
			quote.Sector = r.AssetProfile.Sector
		}
		if r.AssetProfile.Industry != "" {
			quote.Industry = r.AssetProfile.Industry
		}
	}
	if sd := r.SummaryDetail; sd != nil {
		if sd.TrailingPE != nil {
			pe := sd.TrailingPE.Raw
			quote.PERatio = &pe
		}
		if sd.DividendYield != nil {
			dy := sd.DividendYield.Raw * 100 // ratio to percentage
			quote.DividendYield = &dy
		}
		if sd.FiftyTwoWeekHigh != nil {
			high := sd.FiftyTwoWeekHigh.Raw
			quote.Week52High = &high
		}
		if sd.FiftyTwoWeekLow != nil {
			low := sd.FiftyTwoWeekLow.Raw
			quote.Week52Low = &low
		}
	}
	return nil
}

func parseChartBars(result *yfChartResult) []models.OHLCV {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	q := result.Indicators.Quote[0]
	bars := make([]models.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		b := models.OHLCV{Date: time.Unix(ts, 0).UTC()}
		if i < len(q.Open) && q.Open[i] != nil {
			b.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			b.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			b.Low = *q.Low[i]
		}
		if i < len(q.Close) && q.Close[i] != nil {
			b.Close = *q.Close[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		bars = append(bars, b)
	}
	return bars
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
