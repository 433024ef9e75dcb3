package analyzer

import (
	"CryptoDash/internal/calculator"
	"CryptoDash/internal/metrics"
	"CryptoDash/internal/model"

	"go.uber.org/zap"
)

// Options tune the derived metrics.
type Options struct {
	// SMAWindow is the number of prices (prior + current) averaged for the sma
	// and range metrics. The metrics are omitted until enough prices exist.
	SMAWindow int
}

// Analyzer turns fetched quotes into per-symbol analysis results. It keeps no
// state between calls.
type Analyzer struct {
	opts   Options
	logger *zap.Logger
}

// New creates an Analyzer. A nil logger is replaced by a no-op logger.
func New(opts Options, logger *zap.Logger) *Analyzer {
	if opts.SMAWindow <= 0 {
		opts.SMAWindow = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{opts: opts, logger: logger}
}

// Analyze computes one AnalysisResult per quote, in the QuoteSet's order.
// prior maps a symbol to earlier quotes, oldest first; the last one is the
// previous-period baseline. Missing history is normal. Malformed quotes are
// skipped and reported in the returned errors.
func (a *Analyzer) Analyze(quotes *model.QuoteSet, prior map[string][]model.AssetQuote) ([]model.AnalysisResult, []error) {
	results := make([]model.AnalysisResult, 0, quotes.Len())
	var skipped []error

	for _, q := range quotes.Quotes() {
		if err := checkQuote(q); err != nil {
			a.logger.Warn("skipping malformed quote", zap.String("symbol", q.Symbol), zap.Error(err))
			metrics.AnalysisSkipped.Inc()
			skipped = append(skipped, err)
			continue
		}
		results = append(results, a.analyzeOne(q, prior[q.Symbol]))
	}
	return results, skipped
}

func (a *Analyzer) analyzeOne(q model.AssetQuote, history []model.AssetQuote) model.AnalysisResult {
	price, _ := q.Price.Float64()
	volume, _ := q.Volume.Float64()

	m := map[string]float64{
		model.MetricPrice:  price,
		model.MetricVolume: volume,
	}

	pct, havePct := a.previousChange(q, history)
	if havePct {
		m[model.MetricPctChange] = pct
	}

	prices := make([]float64, 0, len(history)+1)
	for _, h := range history {
		if h.Price.IsPositive() {
			p, _ := h.Price.Float64()
			prices = append(prices, p)
		}
	}
	prices = append(prices, price)
	if sma, err := calculator.CalculateSMA(prices, a.opts.SMAWindow); err == nil {
		m[model.MetricSMA] = sma
		if hi, lo, err := calculator.CalculateRange(prices, a.opts.SMAWindow); err == nil {
			m[model.MetricRangeHigh] = hi
			m[model.MetricRangeLow] = lo
		}
	}

	for _, w := range model.ChangeWindows {
		if v, ok := q.Changes[w]; ok {
			m[model.ChangeMetric(w)] = v
		}
	}

	return model.AnalysisResult{
		Symbol:  q.Symbol,
		Name:    q.Name,
		Metrics: m,
		Trend:   calculator.ClassifyTrend(pct, havePct),
	}
}

func (a *Analyzer) previousChange(q model.AssetQuote, history []model.AssetQuote) (float64, bool) {
	if len(history) == 0 {
		return 0, false
	}
	prev := history[len(history)-1]
	pct, err := calculator.PercentChange(prev.Price, q.Price)
	if err != nil {
		a.logger.Debug("no usable baseline", zap.String("symbol", q.Symbol), zap.Error(err))
		return 0, false
	}
	return pct, true
}

func checkQuote(q model.AssetQuote) error {
	switch {
	case q.Symbol == "":
		return &model.AnalysisError{Symbol: q.Symbol, Reason: "empty symbol"}
	case q.Price.IsNegative():
		return &model.AnalysisError{Symbol: q.Symbol, Reason: "negative price " + q.Price.String()}
	case q.Volume.IsNegative():
		return &model.AnalysisError{Symbol: q.Symbol, Reason: "negative volume " + q.Volume.String()}
	case q.Timestamp.IsZero():
		return &model.AnalysisError{Symbol: q.Symbol, Reason: "missing timestamp"}
	}
	return nil
}
