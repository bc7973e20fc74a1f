package models

// NewsItem represents a single headline from a news source.
//
// Published carries the source's own timestamp string unparsed. Aggregation
// sorts descending on this raw string, which is lexicographic rather than
// semantic: mixed formats from different sources interleave in undefined
// relative order. That is a known limitation of the design, not something the
// aggregator tries to repair.
type NewsItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Source    string `json:"source"`
	Summary   string `json:"summary"`
}
