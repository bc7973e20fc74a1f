// Package prompts builds bounded-length LLM prompts. Every template applies
// a hard character cap to untrusted input before embedding it, so prompts
// stay inside the model's context window regardless of input size.
package prompts

import (
	"fmt"
	"strings"

	"github.com/quantbrief/quantbrief/pkg/models"
)

// TruncationMarker is appended when an input was cut at its cap.
const TruncationMarker = "\n\n[... truncated ...]"

// Per-intent input caps, in characters.
const (
	SummarizeLimit     = 1000
	SentimentLimit     = 500
	DocumentLimit      = 4000
	DocumentStockLimit = 3000
)

// maxNewsItems bounds how many headlines feed the stock analysis prompt.
const maxNewsItems = 5

// Intent selects the analysis angle for a document prompt.
type Intent string

const (
	IntentSummary   Intent = "summary"
	IntentSentiment Intent = "sentiment"
	IntentFinancial Intent = "financial"
	IntentCustom    Intent = "custom"
)

// ParseIntent maps a request string to an Intent, defaulting to summary.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentSentiment, IntentFinancial, IntentCustom:
		return Intent(s)
	default:
		return IntentSummary
	}
}

// Clip caps s at limit characters, appending the truncation marker when
// anything was cut.
func Clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + TruncationMarker
}

// StockAnalysis renders the analyst prompt for a ticker. At most five
// headlines are embedded; a nil quote renders "N/A" placeholders.
func StockAnalysis(ticker string, quote *models.Quote, news []models.NewsItem) string {
	newsText := "No recent news available."
	if len(news) > 0 {
		if len(news) > maxNewsItems {
			news = news[:maxNewsItems]
		}
		lines := make([]string, len(news))
		for i, item := range news {
			lines[i] = "- " + item.Title
		}
		newsText = strings.Join(lines, "\n")
	}

	company := ticker
	price := "N/A"
	change := "N/A"
	if quote != nil {
		if quote.Name != "" {
			company = quote.Name
		}
		price = fmt.Sprintf("%v", quote.CurrentPrice)
		change = fmt.Sprintf("%v", quote.ChangePercent)
	}

	return fmt.Sprintf(`You are a financial analyst. Analyze this stock briefly.

Ticker: %s
Company: %s
Current Price: $%s
Change: %s%%

Recent News:
%s

Provide:
1. Brief analysis (2-3 sentences)
2. Sentiment (Positive/Neutral/Negative)

Keep it concise and factual.`, ticker, company, price, change, newsText)
}

// Summarize renders the summarization prompt over at most 1000 characters.
func Summarize(text string) string {
	return fmt.Sprintf(`Summarize this text in 2-3 sentences:

%s

Summary:`, Clip(text, SummarizeLimit))
}

// Sentiment renders the one-word sentiment prompt over at most 500 characters.
func Sentiment(text string) string {
	return fmt.Sprintf(`Analyze the sentiment of this text. Reply with only one word: Positive, Negative, or Neutral.

Text: %s

Sentiment:`, Clip(text, SentimentLimit))
}

// Compare renders a side-by-side comparison prompt over the given quotes.
func Compare(quotes []models.Quote) string {
	lines := make([]string, len(quotes))
	for i, q := range quotes {
		lines[i] = fmt.Sprintf("%s: $%v (%v%%)", q.Ticker, q.CurrentPrice, q.ChangePercent)
	}

	return fmt.Sprintf(`Compare these stocks briefly (1-2 sentences each):

%s

Which looks better for investment? Keep it concise.`, strings.Join(lines, "\n"))
}

// Document renders an intent-specific prompt over at most 4000 characters of
// document text.
func Document(text string, intent Intent) string {
	clipped := Clip(text, DocumentLimit)

	switch intent {
	case IntentSentiment:
		return fmt.Sprintf(`Analyze the sentiment and tone of this document. Is it positive, negative, or neutral? Explain briefly.

%s

Sentiment Analysis:`, clipped)
	case IntentFinancial:
		return fmt.Sprintf(`This appears to be a financial document. Extract key insights:
1. Main topics/companies mentioned
2. Financial metrics or numbers
3. Overall implications

%s

Financial Analysis:`, clipped)
	case IntentCustom:
		return fmt.Sprintf(`Analyze this document and provide key insights:

%s

Analysis:`, clipped)
	default:
		return fmt.Sprintf(`Analyze this document and provide a concise summary (3-5 sentences):

%s

Summary:`, clipped)
	}
}

// DocumentWithStock renders a prompt relating a document to a specific
// stock, over at most 3000 characters of document text.
func DocumentWithStock(text, ticker string, quote *models.Quote) string {
	price := "N/A"
	change := "N/A"
	if quote != nil {
		price = fmt.Sprintf("%v", quote.CurrentPrice)
		change = fmt.Sprintf("%v", quote.ChangePercent)
	}

	return fmt.Sprintf(`Analyze this document in relation to %s stock:

Stock Info:
- Ticker: %s
- Current Price: $%s
- Change: %s%%

Document Content:
%s

Provide:
1. How does this document relate to %s?
2. Key takeaways for investors
3. Potential impact on stock price (positive/negative/neutral)

Analysis:`, ticker, ticker, price, change, Clip(text, DocumentStockLimit), ticker)
}
