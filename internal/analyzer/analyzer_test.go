package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/quantbrief/quantbrief/internal/analyzer/prompts"
	"github.com/quantbrief/quantbrief/internal/market"
	"github.com/quantbrief/quantbrief/internal/news"
	"github.com/quantbrief/quantbrief/pkg/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGen returns canned text and records the prompts it saw.
type fakeGen struct {
	response string
	err      error
	prompts  []string
	budgets  []int
}

func (g *fakeGen) Generate(_ context.Context, prompt string, maxTokens int) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.budgets = append(g.budgets, maxTokens)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

// fakeMarket returns a fixed quote for known tickers.
type fakeMarket struct {
	quotes map[string]*models.Quote
}

func (m *fakeMarket) Name() string { return "fake" }

func (m *fakeMarket) GetQuote(_ context.Context, ticker string) (*models.Quote, error) {
	q, ok := m.quotes[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", market.ErrTickerNotFound, ticker)
	}
	return q, nil
}

func (m *fakeMarket) GetHistory(_ context.Context, _ string, _ string) ([]models.OHLCV, error) {
	return nil, market.ErrNotSupported
}

func (m *fakeMarket) GetBatch(ctx context.Context, tickers []string) []models.Quote {
	var out []models.Quote
	for _, t := range tickers {
		if q, ok := m.quotes[t]; ok {
			out = append(out, *q)
		}
	}
	return out
}

// fakeExtractor returns fixed text.
type fakeExtractor struct {
	text string
	err  error
}

func (e *fakeExtractor) ExtractText(_ []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

func emptyAggregator() *news.Aggregator {
	return news.NewAggregator(discardLogger(), nil)
}

func newTestAnalyzer(m *fakeMarket, g *fakeGen, e *fakeExtractor) *Analyzer {
	if m == nil {
		m = &fakeMarket{}
	}
	if e == nil {
		e = &fakeExtractor{}
	}
	return New(discardLogger(), m, emptyAggregator(), g, e)
}

func TestAnalyzeStock(t *testing.T) {
	m := &fakeMarket{quotes: map[string]*models.Quote{
		"AAPL": {Ticker: "AAPL", Name: "Apple Inc.", CurrentPrice: 182.5, ChangePercent: 1.39},
	}}
	g := &fakeGen{response: "Solid quarter, outlook positive."}
	a := newTestAnalyzer(m, g, nil)

	result, err := a.AnalyzeStock(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("AnalyzeStock() error: %v", err)
	}

	if result.Ticker != "AAPL" || result.CurrentPrice != 182.5 {
		t.Errorf("quote fields: got %+v", result)
	}
	if result.Summary != "Solid quarter, outlook positive." {
		t.Errorf("Summary: got %q", result.Summary)
	}
	if result.Sentiment != models.SentimentPositive {
		t.Errorf("Sentiment: got %q, want Positive", result.Sentiment)
	}
	if len(g.budgets) != 1 || g.budgets[0] != 300 {
		t.Errorf("token budget: got %v, want [300]", g.budgets)
	}
	if !strings.Contains(g.prompts[0], "Ticker: AAPL") {
		t.Errorf("prompt missing ticker:\n%s", g.prompts[0])
	}
}

func TestAnalyzeStockUnknownTicker(t *testing.T) {
	a := newTestAnalyzer(nil, &fakeGen{}, nil)

	_, err := a.AnalyzeStock(context.Background(), "NOPE")
	if !errors.Is(err, market.ErrTickerNotFound) {
		t.Errorf("expected ErrTickerNotFound, got %v", err)
	}
}

func TestAnalyzeStockLLMFailureDegrades(t *testing.T) {
	m := &fakeMarket{quotes: map[string]*models.Quote{
		"AAPL": {Ticker: "AAPL", CurrentPrice: 182.5},
	}}
	g := &fakeGen{err: errors.New("connection refused")}
	a := newTestAnalyzer(m, g, nil)

	result, err := a.AnalyzeStock(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("LLM failure should not fail the analysis: %v", err)
	}
	if !strings.HasPrefix(result.Summary, "Error generating response: ") {
		t.Errorf("Summary should carry the error text, got %q", result.Summary)
	}
	if result.Sentiment != models.SentimentNeutral {
		t.Errorf("error text should classify Neutral, got %q", result.Sentiment)
	}
}

func TestSummarize(t *testing.T) {
	g := &fakeGen{response: "A short summary."}
	a := newTestAnalyzer(nil, g, nil)

	out := a.Summarize(context.Background(), "long article text")
	if out != "A short summary." {
		t.Errorf("got %q", out)
	}
	if g.budgets[0] != 150 {
		t.Errorf("token budget: got %d, want 150", g.budgets[0])
	}
}

func TestTextSentiment(t *testing.T) {
	g := &fakeGen{response: "Positive"}
	a := newTestAnalyzer(nil, g, nil)

	got := a.TextSentiment(context.Background(), "Great earnings.")
	if got != models.SentimentPositive {
		t.Errorf("got %q", got)
	}
	if g.budgets[0] != 10 {
		t.Errorf("token budget: got %d, want 10", g.budgets[0])
	}
}

func TestTextSentimentLLMFailureIsNeutral(t *testing.T) {
	g := &fakeGen{err: errors.New("timeout")}
	a := newTestAnalyzer(nil, g, nil)

	if got := a.TextSentiment(context.Background(), "anything"); got != models.SentimentNeutral {
		t.Errorf("got %q, want Neutral", got)
	}
}

func TestCompare(t *testing.T) {
	m := &fakeMarket{quotes: map[string]*models.Quote{
		"AAPL": {Ticker: "AAPL", CurrentPrice: 182.5, ChangePercent: 1.39},
		"MSFT": {Ticker: "MSFT", CurrentPrice: 420, ChangePercent: -0.5},
	}}
	g := &fakeGen{response: "AAPL looks steadier."}
	a := newTestAnalyzer(m, g, nil)

	narrative, quotes, err := a.Compare(context.Background(), []string{"AAPL", "BOGUS", "MSFT"})
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if narrative != "AAPL looks steadier." {
		t.Errorf("narrative: got %q", narrative)
	}
	if len(quotes) != 2 {
		t.Errorf("quotes: got %d, want 2 (failed ticker skipped)", len(quotes))
	}
	if g.budgets[0] != 200 {
		t.Errorf("token budget: got %d, want 200", g.budgets[0])
	}
}

func TestCompareNoQuotesResolved(t *testing.T) {
	a := newTestAnalyzer(nil, &fakeGen{}, nil)

	_, _, err := a.Compare(context.Background(), []string{"NOPE"})
	if !errors.Is(err, market.ErrTickerNotFound) {
		t.Errorf("expected ErrTickerNotFound, got %v", err)
	}
}

func TestMarketSummary(t *testing.T) {
	m := &fakeMarket{quotes: map[string]*models.Quote{
		"^GSPC": {Ticker: "^GSPC", CurrentPrice: 4780.5, ChangePercent: 0.3},
		"^IXIC": {Ticker: "^IXIC", CurrentPrice: 15000.2, ChangePercent: -0.1},
	}}
	a := newTestAnalyzer(m, &fakeGen{}, nil)

	summary := a.MarketSummary(context.Background())
	if len(summary) != 2 {
		t.Fatalf("got %d indexes, want 2 (failed index omitted)", len(summary))
	}
	sp, ok := summary["S&P 500"]
	if !ok {
		t.Fatal("S&P 500 missing")
	}
	if sp.Price != 4780.5 || sp.ChangePercent != 0.3 {
		t.Errorf("S&P 500 snapshot: got %+v", sp)
	}
	if _, ok := summary["Dow Jones"]; ok {
		t.Error("Dow Jones should be omitted when its quote fails")
	}
}

func TestSearchTicker(t *testing.T) {
	m := &fakeMarket{quotes: map[string]*models.Quote{
		"AAPL": {Ticker: "AAPL", CurrentPrice: 182.5},
	}}
	a := newTestAnalyzer(m, &fakeGen{}, nil)

	quotes := a.SearchTicker(context.Background(), "apple")
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}
	if quotes[0].Ticker != "AAPL" {
		t.Errorf("got %q", quotes[0].Ticker)
	}
}

func TestSearchTickerEmptyQuery(t *testing.T) {
	a := newTestAnalyzer(nil, &fakeGen{}, nil)
	if got := a.SearchTicker(context.Background(), "  "); got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice", got)
	}
}

func TestAnalyzeDocument(t *testing.T) {
	text := "\n--- Page 1 ---\nQuarterly results were strong.\n--- Page 2 ---\nGuidance raised."
	g := &fakeGen{response: "The document reports a strong quarter."}
	a := newTestAnalyzer(nil, g, &fakeExtractor{text: text})

	result := a.AnalyzeDocument(context.Background(), []byte("%PDF-"), prompts.IntentSummary)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Analysis != "The document reports a strong quarter." {
		t.Errorf("Analysis: got %q", result.Analysis)
	}
	if result.PageCount != 2 {
		t.Errorf("PageCount: got %d, want 2", result.PageCount)
	}
	if result.TextLength != len(text) {
		t.Errorf("TextLength: got %d, want %d", result.TextLength, len(text))
	}
	if result.Intent != "summary" {
		t.Errorf("Intent: got %q", result.Intent)
	}
	if g.budgets[0] != 500 {
		t.Errorf("token budget: got %d, want 500", g.budgets[0])
	}
}

func TestAnalyzeDocumentExtractionFailure(t *testing.T) {
	g := &fakeGen{response: "should not be called"}
	a := newTestAnalyzer(nil, g, &fakeExtractor{err: errors.New("bad pdf")})

	result := a.AnalyzeDocument(context.Background(), []byte("junk"), prompts.IntentSummary)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "Could not extract text from PDF" {
		t.Errorf("Error: got %q", result.Error)
	}
	if result.Analysis != "" {
		t.Errorf("Analysis should be empty on failure, got %q", result.Analysis)
	}
	if len(g.prompts) != 0 {
		t.Error("LLM should not be called when extraction fails")
	}
}

func TestAnalyzeDocumentWithStock(t *testing.T) {
	m := &fakeMarket{quotes: map[string]*models.Quote{
		"AAPL": {Ticker: "AAPL", CurrentPrice: 182.5, ChangePercent: 1.39},
	}}
	g := &fakeGen{response: "Bullish for AAPL."}
	a := newTestAnalyzer(m, g, &fakeExtractor{text: "\n--- Page 1 ---\nEarnings beat."})

	result, err := a.AnalyzeDocumentWithStock(context.Background(), []byte("%PDF-"), "AAPL")
	if err != nil {
		t.Fatalf("AnalyzeDocumentWithStock() error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if result.Ticker != "AAPL" || result.StockPrice != 182.5 {
		t.Errorf("stock fields: got %+v", result)
	}
	if !strings.Contains(g.prompts[0], "- Current Price: $182.5") {
		t.Errorf("prompt missing stock context:\n%s", g.prompts[0])
	}
}

func TestAnalyzeDocumentWithStockUnknownTicker(t *testing.T) {
	g := &fakeGen{}
	a := newTestAnalyzer(nil, g, &fakeExtractor{text: "\n--- Page 1 ---\ncontent"})

	_, err := a.AnalyzeDocumentWithStock(context.Background(), []byte("%PDF-"), "NOPE")
	if !errors.Is(err, market.ErrTickerNotFound) {
		t.Errorf("expected ErrTickerNotFound, got %v", err)
	}
	if len(g.prompts) != 0 {
		t.Error("LLM should not be called when the quote lookup fails")
	}
}

func TestAnalyzeDocumentWithStockExtractionFailure(t *testing.T) {
	m := &fakeMarket{quotes: map[string]*models.Quote{
		"AAPL": {Ticker: "AAPL", CurrentPrice: 182.5},
	}}
	g := &fakeGen{}
	a := newTestAnalyzer(m, g, &fakeExtractor{err: errors.New("bad pdf")})

	result, err := a.AnalyzeDocumentWithStock(context.Background(), []byte("junk"), "AAPL")
	if err != nil {
		t.Fatalf("extraction failure should not be an error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result")
	}
	if result.Error != "Could not extract text from PDF" {
		t.Errorf("Error: got %q", result.Error)
	}
}
