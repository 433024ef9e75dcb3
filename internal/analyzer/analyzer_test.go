package analyzer

import (
	"errors"
	"testing"
	"time"

	"CryptoDash/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func quote(symbol string, price float64) model.AssetQuote {
	return model.AssetQuote{
		Symbol:    symbol,
		Name:      symbol,
		Price:     decimal.NewFromFloat(price),
		Volume:    decimal.NewFromInt(1000),
		Timestamp: ts,
	}
}

func setOf(quotes ...model.AssetQuote) *model.QuoteSet {
	s := model.NewQuoteSet()
	for _, q := range quotes {
		s.Put(q)
	}
	return s
}

func TestAnalyze_PercentChangeAndTrend(t *testing.T) {
	a := New(Options{SMAWindow: 5}, nil)

	tests := []struct {
		name      string
		prev      *float64
		cur       float64
		wantPct   float64
		wantTrend model.Trend
	}{
		{"up", ptr(100), 110, 10.0, model.TrendUp},
		{"down", ptr(100), 90, -10.0, model.TrendDown},
		{"flat", ptr(100), 100, 0.0, model.TrendFlat},
		{"no previous", nil, 100, 0, model.TrendFlat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior := map[string][]model.AssetQuote{}
			if tt.prev != nil {
				prior["BTC"] = []model.AssetQuote{quote("BTC", *tt.prev)}
			}
			results, skipped := a.Analyze(setOf(quote("BTC", tt.cur)), prior)
			require.Empty(t, skipped)
			require.Len(t, results, 1)

			r := results[0]
			assert.Equal(t, tt.wantTrend, r.Trend)
			pct, ok := r.Metric(model.MetricPctChange)
			if tt.prev == nil {
				assert.False(t, ok, "pct_change must be omitted without a previous quote")
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tt.wantPct, pct)
		})
	}
}

func TestAnalyze_PreservesInputOrder(t *testing.T) {
	a := New(Options{}, nil)
	in := setOf(quote("SOL", 150), quote("BTC", 60000), quote("ETH", 3000))

	results, skipped := a.Analyze(in, nil)
	require.Empty(t, skipped)

	var got []string
	for _, r := range results {
		got = append(got, r.Symbol)
	}
	assert.Equal(t, []string{"SOL", "BTC", "ETH"}, got)
}

func TestAnalyze_Idempotent(t *testing.T) {
	a := New(Options{SMAWindow: 2}, nil)
	in := setOf(quote("BTC", 110), quote("ETH", 90))
	prior := map[string][]model.AssetQuote{
		"BTC": {quote("BTC", 100)},
		"ETH": {quote("ETH", 100)},
	}

	first, _ := a.Analyze(in, prior)
	second, _ := a.Analyze(in, prior)
	assert.Equal(t, first, second)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	a := New(Options{}, nil)

	results, skipped := a.Analyze(model.NewQuoteSet(), nil)
	assert.Empty(t, results)
	assert.Empty(t, skipped)

	results, skipped = a.Analyze(nil, nil)
	assert.Empty(t, results)
	assert.Empty(t, skipped)
}

func TestAnalyze_SkipsMalformedQuote(t *testing.T) {
	a := New(Options{}, nil)
	bad := quote("DOGE", 0.1)
	bad.Price = decimal.NewFromInt(-1)
	noTime := quote("TRX", 0.2)
	noTime.Timestamp = time.Time{}

	results, skipped := a.Analyze(setOf(quote("BTC", 100), bad, noTime), nil)
	require.Len(t, results, 1)
	assert.Equal(t, "BTC", results[0].Symbol)
	require.Len(t, skipped, 2)

	var ae *model.AnalysisError
	require.True(t, errors.As(skipped[0], &ae))
	assert.Equal(t, "DOGE", ae.Symbol)
}

func TestAnalyze_ZeroBaselineOmitsChange(t *testing.T) {
	a := New(Options{}, nil)
	prior := map[string][]model.AssetQuote{"BTC": {quote("BTC", 0)}}

	results, _ := a.Analyze(setOf(quote("BTC", 100)), prior)
	require.Len(t, results, 1)
	_, ok := results[0].Metric(model.MetricPctChange)
	assert.False(t, ok)
	assert.Equal(t, model.TrendFlat, results[0].Trend)
}

func TestAnalyze_MovingAverageAndWindows(t *testing.T) {
	a := New(Options{SMAWindow: 3}, nil)
	cur := quote("ETH", 40)
	cur.Changes = map[string]float64{model.Window24h: -2.5, model.Window7d: 4}
	prior := map[string][]model.AssetQuote{
		"ETH": {quote("ETH", 10), quote("ETH", 20), quote("ETH", 30)},
	}

	results, _ := a.Analyze(setOf(cur), prior)
	require.Len(t, results, 1)
	r := results[0]

	assert.Equal(t, 30.0, r.Metrics[model.MetricSMA])
	assert.Equal(t, 40.0, r.Metrics[model.MetricRangeHigh])
	assert.Equal(t, 20.0, r.Metrics[model.MetricRangeLow])
	assert.Equal(t, -2.5, r.Metrics["change_24h"])
	assert.Equal(t, 4.0, r.Metrics["change_7d"])
	_, ok := r.Metric("change_1h")
	assert.False(t, ok)
}

func TestAnalyze_MovingAverageNeedsEnoughPoints(t *testing.T) {
	a := New(Options{SMAWindow: 5}, nil)
	prior := map[string][]model.AssetQuote{"ETH": {quote("ETH", 10)}}

	results, _ := a.Analyze(setOf(quote("ETH", 20)), prior)
	require.Len(t, results, 1)
	_, ok := results[0].Metric(model.MetricSMA)
	assert.False(t, ok)
}

func ptr(f float64) *float64 { return &f }
