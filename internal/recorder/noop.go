package recorder

import (
	"time"

	"CryptoDash/internal/model"
)

// NoopRecorder is used when history is disabled. Every refresh then starts
// without prior quotes.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ *model.Snapshot) error { return nil }
func (n *NoopRecorder) RecordInsight(_ time.Time, _ string) error { return nil }
func (n *NoopRecorder) ListSnapshots(_ string, _ int) ([]SnapshotRow, error) { return nil, nil }
func (n *NoopRecorder) LatestInsights(_ int) ([]InsightRow, error) { return nil, nil }
func (n *NoopRecorder) Close() error { return nil }

func (n *NoopRecorder) PriorQuotes(_ int) (map[string][]model.AssetQuote, error) {
	return map[string][]model.AssetQuote{}, nil
}
