package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestChangePercent(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		prev    float64
		want    float64
	}{
		{"ten percent gain", 110, 100, 10.0},
		{"zero previous close", 110, 0, 0},
		{"loss", 90, 100, -10.0},
		{"flat", 100, 100, 0},
		{"rounded", 100.333, 100, 0.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChangePercent(tt.current, tt.prev); got != tt.want {
				t.Errorf("ChangePercent(%v, %v) = %v, want %v", tt.current, tt.prev, got, tt.want)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(1.005); got != 1.01 && got != 1.0 {
		// 1.005 is not exactly representable; accept either neighbor.
		t.Errorf("Round2(1.005) = %v", got)
	}
	if got := Round2(2.344); got != 2.34 {
		t.Errorf("Round2(2.344) = %v, want 2.34", got)
	}
	if got := Round2(-2.346); got != -2.35 {
		t.Errorf("Round2(-2.346) = %v, want -2.35", got)
	}
}

func TestSentimentValid(t *testing.T) {
	for _, s := range []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Sentiment("Bullish").Valid() {
		t.Error("non-canonical label should not be valid")
	}
	if Sentiment("").Valid() {
		t.Error("empty label should not be valid")
	}
}

func TestQuoteJSONOptionalFields(t *testing.T) {
	q := Quote{
		Ticker:        "AAPL",
		Name:          "Apple Inc.",
		CurrentPrice:  110,
		PreviousClose: 100,
		ChangePercent: ChangePercent(110, 100),
		Sector:        "N/A",
		Industry:      "N/A",
	}

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded["change_percent"] != 10.0 {
		t.Errorf("change_percent: got %v, want 10", decoded["change_percent"])
	}
	if decoded["pe_ratio"] != nil {
		t.Errorf("pe_ratio should be null when unknown, got %v", decoded["pe_ratio"])
	}
	if decoded["52_week_high"] != nil {
		t.Errorf("52_week_high should be null when unknown, got %v", decoded["52_week_high"])
	}
}

func TestDocumentAnalysisUnionShape(t *testing.T) {
	ok := DocumentAnalysis{Success: true, Analysis: "fine", TextLength: 4, PageCount: 1}
	data, _ := json.Marshal(ok)
	if !strings.Contains(string(data), `"success":true`) {
		t.Errorf("missing success flag in %s", data)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("success result must not carry an error field: %s", data)
	}

	bad := DocumentAnalysis{Success: false, Error: "no usable text"}
	data, _ = json.Marshal(bad)
	if strings.Contains(string(data), `"analysis"`) {
		t.Errorf("failure result must not carry an analysis field: %s", data)
	}
}
