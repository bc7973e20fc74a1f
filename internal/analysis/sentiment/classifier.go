// Package sentiment classifies LLM output into a three-way sentiment label.
package sentiment

import (
	"strings"

	"github.com/quantbrief/quantbrief/pkg/models"
)

// ------------------------------------------------------------------
// Keyword-based sentiment extraction. The LLM produces free-form
// analysis text; this package reduces it to a deterministic label
// without a second model call.
// ------------------------------------------------------------------

// rule maps trigger keywords to a sentiment label. Rules are evaluated in
// order and the first match wins, so positive cues dominate mixed text.
type rule struct {
	keywords []string
	label    models.Sentiment
}

var rules = []rule{
	{keywords: []string{"positive", "bullish"}, label: models.SentimentPositive},
	{keywords: []string{"negative", "bearish"}, label: models.SentimentNegative},
}

// Classify scans free-form analysis text for sentiment keywords
// (case-insensitive, substring match). Text with no signal, including empty
// text, is Neutral.
func Classify(text string) models.Sentiment {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.label
			}
		}
	}
	return models.SentimentNeutral
}

// ExtractExactLabel reduces a constrained one-word LLM reply to a label. The
// first whitespace-separated token must be exactly "Positive", "Negative",
// or "Neutral"; anything else is Neutral.
func ExtractExactLabel(response string) models.Sentiment {
	fields := strings.Fields(response)
	if len(fields) == 0 {
		return models.SentimentNeutral
	}
	label := models.Sentiment(fields[0])
	if !label.Valid() {
		return models.SentimentNeutral
	}
	return label
}
