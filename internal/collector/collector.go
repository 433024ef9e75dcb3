package collector

import (
	"time"

	"CryptoDash/internal/analyzer"
	"CryptoDash/internal/insight"
	"CryptoDash/internal/metrics"
	"CryptoDash/internal/model"

	"go.uber.org/zap"
)

// Collector runs one fetch -> analyze -> insight cycle.
type Collector struct {
	Fetcher  Fetcher
	Analyzer *analyzer.Analyzer
	Insight  insight.Options
	Symbols  []string

	logger *zap.Logger
	now    func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, an *analyzer.Analyzer, symbols []string, opts insight.Options, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Fetcher:  fetcher,
		Analyzer: an,
		Insight:  opts,
		Symbols:  symbols,
		logger:   logger,
		now:      time.Now,
	}
}

// Refresh fetches the configured symbols and analyzes them against prior
// quotes (oldest first per symbol). Configuration and batch fetch errors are
// returned as is; skipped symbols become warnings on the snapshot.
func (c *Collector) Refresh(prior map[string][]model.AssetQuote) (*model.Snapshot, error) {
	start := c.now()
	defer func() { metrics.RefreshLatency.Observe(time.Since(start).Seconds()) }()

	quotes, err := c.Fetcher.FetchQuotes(c.Symbols)
	if err != nil {
		metrics.Refreshes.WithLabelValues("error").Inc()
		c.logger.Error("refresh failed", zap.String("source", c.Fetcher.Name()), zap.Error(err))
		return nil, err
	}

	snap := &model.Snapshot{
		Quotes:    quotes.Quotes(),
		Source:    c.Fetcher.Name(),
		CreatedAt: start,
	}
	for _, sym := range missing(c.Symbols, quotes) {
		snap.Warnings = append(snap.Warnings, "No data for "+sym+"; it was left out of this refresh.")
	}

	results, skipped := c.Analyzer.Analyze(quotes, prior)
	for _, e := range skipped {
		snap.Warnings = append(snap.Warnings, e.Error())
	}
	snap.Results = results
	snap.Insight = insight.Generate(results, c.Insight)

	metrics.Refreshes.WithLabelValues("ok").Inc()
	metrics.TrackedSymbols.Set(float64(len(results)))
	c.logger.Info("refresh complete",
		zap.String("source", snap.Source),
		zap.Int("requested", len(c.Symbols)),
		zap.Int("analyzed", len(results)),
		zap.Int("warnings", len(snap.Warnings)),
	)
	return snap, nil
}

func missing(requested []string, got *model.QuoteSet) []string {
	var out []string
	seen := make(map[string]bool, len(requested))
	for _, sym := range requested {
		if seen[sym] {
			continue
		}
		seen[sym] = true
		if _, ok := got.Get(sym); !ok {
			out = append(out, sym)
		}
	}
	return out
}
