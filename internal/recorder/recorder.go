package recorder

import (
	"time"

	"CryptoDash/internal/model"

	"github.com/shopspring/decimal"
)

// SnapshotRow is one symbol's entry in a recorded refresh.
type SnapshotRow struct {
	SnapshotID int64           `json:"snapshot_id"`
	CreatedAt  time.Time       `json:"created_at"`
	Source     string          `json:"source"`
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Volume     decimal.Decimal `json:"volume"`
	QuotedAt   time.Time       `json:"quoted_at"`
	PctChange  *float64        `json:"pct_change,omitempty"`
	Change24h  *float64        `json:"change_24h,omitempty"`
	Trend      string          `json:"trend"`
}

// InsightRow is a recorded narrative.
type InsightRow struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Narrative string    `json:"narrative"`
}

// Recorder keeps the refresh history the presentation layer shows and feeds
// back to the analyzer as prior quotes.
type Recorder interface {
	RecordSnapshot(snap *model.Snapshot) error
	RecordInsight(createdAt time.Time, narrative string) error
	// PriorQuotes returns up to depth recent quotes per symbol, oldest first.
	PriorQuotes(depth int) (map[string][]model.AssetQuote, error)
	// ListSnapshots returns recorded rows, newest first. An empty symbol means all.
	ListSnapshots(symbol string, limit int) ([]SnapshotRow, error)
	LatestInsights(limit int) ([]InsightRow, error)
	Close() error
}
