package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FetchRequests counts upstream requests per outcome ("ok", "error").
	FetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptodash_fetch_requests_total",
			Help: "Upstream market-data requests by outcome",
		}, []string{"source", "outcome"})
	FetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cryptodash_fetch_latency_seconds",
			Help:    "Time to fetch one symbol",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"})

	AnalysisSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cryptodash_analysis_skipped_total",
			Help: "Quotes skipped by the analyzer as malformed",
		})

	Refreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptodash_refreshes_total",
			Help: "Refresh cycles by outcome",
		}, []string{"outcome"})
	RefreshLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cryptodash_refresh_latency_seconds",
			Help:    "Time to run one fetch+analyze cycle",
			Buckets: prometheus.DefBuckets,
		})
	TrackedSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cryptodash_symbols_analyzed",
			Help: "Symbols present in the latest analysis",
		})
)

// Registry holds the application collectors. It is separate from the default
// registry so tests can build servers repeatedly.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		FetchRequests,
		FetchLatency,
		AnalysisSkipped,
		Refreshes,
		RefreshLatency,
		TrackedSymbols,
		prometheus.NewGoCollector(),
	)
}
