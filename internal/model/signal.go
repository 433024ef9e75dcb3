package model

import "time"

// Trend is the qualitative direction derived from the percentage change.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Metric names carried in AnalysisResult.Metrics.
const (
	MetricPrice     = "price"
	MetricVolume    = "volume"
	MetricPctChange = "pct_change"
	MetricSMA       = "sma"
	MetricRangeHigh = "range_high"
	MetricRangeLow  = "range_low"
)

// ChangeMetric returns the metric name for an upstream-reported window, e.g. "change_24h".
func ChangeMetric(window string) string {
	return "change_" + window
}

// AnalysisResult holds the derived metrics for one symbol.
type AnalysisResult struct {
	Symbol  string             `json:"symbol"`
	Name    string             `json:"name"`
	Metrics map[string]float64 `json:"metrics"`
	Trend   Trend              `json:"trend"`
}

// Metric returns a metric value and whether it is present.
func (r AnalysisResult) Metric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	return v, ok
}

// Mover is a coin singled out by the insight, such as the biggest 24h gainer.
type Mover struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Change float64 `json:"change"`
}

// Insight is the narrative summary of one refresh cycle.
type Insight struct {
	Narrative string `json:"narrative"`
	Gainer    *Mover `json:"gainer,omitempty"`
	Loser     *Mover `json:"loser,omitempty"`
}

// Snapshot is everything produced by one refresh cycle.
type Snapshot struct {
	Quotes    []AssetQuote     `json:"quotes"`
	Results   []AnalysisResult `json:"results"`
	Insight   Insight          `json:"insight"`
	Warnings  []string         `json:"warnings,omitempty"`
	Source    string           `json:"source"`
	CreatedAt time.Time        `json:"created_at"`
}
