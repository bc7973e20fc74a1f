// Package analyzer orchestrates the quote, news, document, and LLM layers
// into the analysis operations exposed by the API.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quantbrief/quantbrief/internal/analysis/sentiment"
	"github.com/quantbrief/quantbrief/internal/analyzer/prompts"
	"github.com/quantbrief/quantbrief/internal/document"
	"github.com/quantbrief/quantbrief/internal/market"
	"github.com/quantbrief/quantbrief/internal/news"
	"github.com/quantbrief/quantbrief/pkg/models"
	"github.com/quantbrief/quantbrief/pkg/utils"
)

// Token budgets per operation. Small budgets keep the 1B model fast and its
// answers terse.
const (
	analyzeTokens   = 300
	summarizeTokens = 150
	sentimentTokens = 10
	compareTokens   = 200
	documentTokens  = 500
)

// newsPerAnalysis is how many headlines accompany a stock analysis.
const newsPerAnalysis = 5

// Generator produces a completion for a prompt. Satisfied by llm.Client.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// TextExtractor turns document bytes into page-marked text. Satisfied by
// document.Extractor.
type TextExtractor interface {
	ExtractText(pdf []byte) (string, error)
}

// Analyzer wires market data, news, documents, and the LLM together.
type Analyzer struct {
	market    market.Provider
	news      *news.Aggregator
	llm       Generator
	extractor TextExtractor
	log       *slog.Logger
}

// New creates an analyzer over the given collaborators.
func New(log *slog.Logger, provider market.Provider, agg *news.Aggregator, gen Generator, ext TextExtractor) *Analyzer {
	return &Analyzer{
		market:    provider,
		news:      agg,
		llm:       gen,
		extractor: ext,
		log:       log,
	}
}

// generate runs the LLM and renders failures as analysis text instead of
// propagating them. A model outage degrades the narrative, not the request.
func (a *Analyzer) generate(ctx context.Context, prompt string, maxTokens int) string {
	out, err := a.llm.Generate(ctx, prompt, maxTokens)
	if err != nil {
		a.log.Warn("llm generation failed", "error", err)
		return fmt.Sprintf("Error generating response: %s", err)
	}
	return out
}

// AnalyzeStock produces the full quote + news + narrative analysis for a
// ticker. The quote is mandatory; news and narrative degrade gracefully.
func (a *Analyzer) AnalyzeStock(ctx context.Context, ticker string) (*models.StockAnalysis, error) {
	quote, err := a.market.GetQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}

	items := a.news.GetNews(ctx, ticker, newsPerAnalysis)

	prompt := prompts.StockAnalysis(quote.Ticker, quote, items)
	summary := a.generate(ctx, prompt, analyzeTokens)

	return &models.StockAnalysis{
		Ticker:        quote.Ticker,
		CurrentPrice:  quote.CurrentPrice,
		ChangePercent: quote.ChangePercent,
		Summary:       summary,
		Sentiment:     sentiment.Classify(summary),
		News:          items,
	}, nil
}

// Summarize condenses free text into a few sentences.
func (a *Analyzer) Summarize(ctx context.Context, text string) string {
	return a.generate(ctx, prompts.Summarize(text), summarizeTokens)
}

// TextSentiment classifies free text through a constrained one-word LLM
// reply. Anything other than an exact canonical label, including a
// generation failure, is Neutral.
func (a *Analyzer) TextSentiment(ctx context.Context, text string) models.Sentiment {
	response := a.generate(ctx, prompts.Sentiment(text), sentimentTokens)
	return sentiment.ExtractExactLabel(response)
}

// Compare fetches quotes for several tickers and asks the LLM for a
// comparison. The quotes that resolved are returned alongside the narrative.
func (a *Analyzer) Compare(ctx context.Context, tickers []string) (string, []models.Quote, error) {
	quotes := a.market.GetBatch(ctx, tickers)
	if len(quotes) == 0 {
		return "", nil, fmt.Errorf("%w: no quotes for %v", market.ErrTickerNotFound, tickers)
	}

	narrative := a.generate(ctx, prompts.Compare(quotes), compareTokens)
	return narrative, quotes, nil
}

// marketIndexes pairs display names with the index symbols behind the
// market summary. Order is the display order.
var marketIndexes = []struct {
	Name   string
	Symbol string
}{
	{"S&P 500", "^GSPC"},
	{"Dow Jones", "^DJI"},
	{"NASDAQ", "^IXIC"},
}

// MarketSummary returns a snapshot of the major indexes. Indexes that fail
// to resolve are omitted.
func (a *Analyzer) MarketSummary(ctx context.Context) map[string]models.IndexSnapshot {
	summary := make(map[string]models.IndexSnapshot, len(marketIndexes))
	for _, idx := range marketIndexes {
		quote, err := a.market.GetQuote(ctx, idx.Symbol)
		if err != nil {
			a.log.Warn("index quote failed", "index", idx.Symbol, "error", err)
			continue
		}
		summary[idx.Name] = models.IndexSnapshot{
			Price:         quote.CurrentPrice,
			ChangePercent: quote.ChangePercent,
		}
	}
	return summary
}

// maxSearchResults bounds ticker search output.
const maxSearchResults = 10

// SearchTicker resolves a company-name or symbol query to live quotes.
// Candidates that fail to resolve are dropped.
func (a *Analyzer) SearchTicker(ctx context.Context, query string) []models.Quote {
	candidates := utils.MatchTickers(query)
	if len(candidates) == 0 {
		return []models.Quote{}
	}

	quotes := a.market.GetBatch(ctx, candidates)
	if quotes == nil {
		return []models.Quote{}
	}
	if len(quotes) > maxSearchResults {
		quotes = quotes[:maxSearchResults]
	}
	return quotes
}

// AnalyzeDocument extracts text from a PDF and runs an intent-specific LLM
// pass over it. Extraction failure yields an unsuccessful result rather than
// an error; the caller renders it as-is.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, pdf []byte, intent prompts.Intent) models.DocumentAnalysis {
	text, err := a.extractor.ExtractText(pdf)
	if err != nil {
		a.log.Warn("document extraction failed", "error", err)
		return models.DocumentAnalysis{
			Success: false,
			Error:   "Could not extract text from PDF",
		}
	}

	clipped := prompts.Clip(text, prompts.DocumentLimit)
	analysis := a.generate(ctx, prompts.Document(text, intent), documentTokens)

	return models.DocumentAnalysis{
		Success:    true,
		Analysis:   analysis,
		TextLength: len(clipped),
		PageCount:  document.CountPages(clipped),
		Intent:     string(intent),
	}
}

// AnalyzeDocumentWithStock relates a PDF to a specific stock. The quote is
// required; an unknown ticker propagates before any extraction or LLM work.
// Extraction failure still yields an unsuccessful result rather than an error.
func (a *Analyzer) AnalyzeDocumentWithStock(ctx context.Context, pdf []byte, ticker string) (models.DocumentStockAnalysis, error) {
	quote, err := a.market.GetQuote(ctx, ticker)
	if err != nil {
		return models.DocumentStockAnalysis{}, err
	}

	text, err := a.extractor.ExtractText(pdf)
	if err != nil {
		a.log.Warn("document extraction failed", "error", err, "ticker", ticker)
		return models.DocumentStockAnalysis{
			Success: false,
			Error:   "Could not extract text from PDF",
		}, nil
	}

	analysis := a.generate(ctx, prompts.DocumentWithStock(text, ticker, quote), documentTokens)

	return models.DocumentStockAnalysis{
		Success:    true,
		Analysis:   analysis,
		Ticker:     ticker,
		StockPrice: quote.CurrentPrice,
	}, nil
}
