package models

// Sentiment is the constrained label derived from free-form analysis text.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// Valid reports whether s is one of the three canonical labels.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// StockAnalysis is the result of the ticker → quote → news → LLM pipeline.
type StockAnalysis struct {
	Ticker        string     `json:"ticker"`
	CurrentPrice  float64    `json:"current_price"`
	ChangePercent float64    `json:"change_percent"`
	Summary       string     `json:"summary"`
	Sentiment     Sentiment  `json:"sentiment"`
	News          []NewsItem `json:"news"`
}

// DocumentAnalysis is the result of an LLM pass over an uploaded document.
// Either Success is true and Analysis is populated, or Success is false and
// Error is populated — never both.
type DocumentAnalysis struct {
	Success    bool   `json:"success"`
	Analysis   string `json:"analysis,omitempty"`
	Error      string `json:"error,omitempty"`
	TextLength int    `json:"text_length,omitempty"`
	PageCount  int    `json:"page_count,omitempty"`
	Intent     string `json:"analysis_type,omitempty"`
}

// DocumentStockAnalysis is a document analysis joined with a stock quote.
type DocumentStockAnalysis struct {
	Success    bool    `json:"success"`
	Analysis   string  `json:"analysis,omitempty"`
	Error      string  `json:"error,omitempty"`
	Ticker     string  `json:"ticker,omitempty"`
	StockPrice float64 `json:"stock_price,omitempty"`
}
