package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"CryptoDash/internal/model"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DefaultRetain is the number of snapshots kept when none is configured.
const DefaultRetain = 500

// SQLiteRecorder keeps refresh history in an in-memory SQLite database. The
// data lives as long as the process and is never written to disk.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	retain int
	logger *zap.Logger
}

// NewSQLiteRecorder opens a private in-memory database and creates the schema.
// At most retain snapshots are kept; older ones are pruned on insert.
func NewSQLiteRecorder(retain int, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retain <= 0 {
		retain = DefaultRetain
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to ":memory:" is a separate database; pin the pool to one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	r := &SQLiteRecorder{db: db, retain: retain, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("in-memory history opened", zap.Int("retain", retain))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			source     TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS snapshot_quotes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id),
			symbol      TEXT NOT NULL,
			name        TEXT,
			price       TEXT NOT NULL,
			volume      TEXT NOT NULL,
			quoted_at   INTEGER NOT NULL,
			pct_change  REAL,
			change_24h  REAL,
			trend       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_symbol ON snapshot_quotes(symbol, snapshot_id)`,

		`CREATE TABLE IF NOT EXISTS insights (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			narrative  TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSnapshot stores the fetched quotes together with the derived metrics
// of the same cycle.
func (r *SQLiteRecorder) RecordSnapshot(snap *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO snapshots (created_at, source) VALUES (?, ?)`,
		snap.CreatedAt.UnixMilli(), snap.Source)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	snapID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("snapshot id: %w", err)
	}

	bySymbol := make(map[string]model.AnalysisResult, len(snap.Results))
	for _, ar := range snap.Results {
		bySymbol[ar.Symbol] = ar
	}

	for _, q := range snap.Quotes {
		var pct, change24h sql.NullFloat64
		var trend string
		if ar, ok := bySymbol[q.Symbol]; ok {
			if v, ok := ar.Metric(model.MetricPctChange); ok {
				pct = sql.NullFloat64{Float64: v, Valid: true}
			}
			if v, ok := ar.Metric(model.ChangeMetric(model.Window24h)); ok {
				change24h = sql.NullFloat64{Float64: v, Valid: true}
			}
			trend = string(ar.Trend)
		}
		if _, err := tx.Exec(`INSERT INTO snapshot_quotes
			(snapshot_id, symbol, name, price, volume, quoted_at, pct_change, change_24h, trend)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			snapID, q.Symbol, q.Name, q.Price.String(), q.Volume.String(),
			q.Timestamp.UnixMilli(), pct, change24h, trend,
		); err != nil {
			return fmt.Errorf("insert quote %s: %w", q.Symbol, err)
		}
	}

	if err := r.prune(tx, snapID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) prune(tx *sql.Tx, latestID int64) error {
	cutoff := latestID - int64(r.retain)
	if cutoff <= 0 {
		return nil
	}
	if _, err := tx.Exec(`DELETE FROM snapshot_quotes WHERE snapshot_id <= ?`, cutoff); err != nil {
		return fmt.Errorf("prune quotes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM snapshots WHERE id <= ?`, cutoff); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordInsight(createdAt time.Time, narrative string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO insights (created_at, narrative) VALUES (?, ?)`,
		createdAt.UnixMilli(), narrative)
	return err
}

func (r *SQLiteRecorder) PriorQuotes(depth int) (map[string][]model.AssetQuote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string][]model.AssetQuote)
	if depth <= 0 {
		return out, nil
	}

	rows, err := r.db.Query(`SELECT symbol, name, price, volume, quoted_at FROM (
			SELECT symbol, name, price, volume, quoted_at, snapshot_id,
				ROW_NUMBER() OVER (PARTITION BY symbol ORDER BY snapshot_id DESC) AS rn
			FROM snapshot_quotes
		) WHERE rn <= ? ORDER BY symbol, snapshot_id ASC`, depth)
	if err != nil {
		return nil, fmt.Errorf("query prior quotes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q model.AssetQuote
		var name sql.NullString
		var quotedAt int64
		if err := rows.Scan(&q.Symbol, &name, &q.Price, &q.Volume, &quotedAt); err != nil {
			return nil, fmt.Errorf("scan prior quote: %w", err)
		}
		q.Name = name.String
		q.Timestamp = time.UnixMilli(quotedAt).UTC()
		out[q.Symbol] = append(out[q.Symbol], q)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) ListSnapshots(symbol string, limit int) ([]SnapshotRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	query := `SELECT q.snapshot_id, s.created_at, s.source, q.symbol, q.name, q.price, q.volume,
			q.quoted_at, q.pct_change, q.change_24h, q.trend
		FROM snapshot_quotes q JOIN snapshots s ON s.id = q.snapshot_id`
	args := []any{}
	if symbol != "" {
		query += ` WHERE q.symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY q.snapshot_id DESC, q.id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var row SnapshotRow
		var createdAt, quotedAt int64
		var source, name, trend sql.NullString
		var pct, change24h sql.NullFloat64
		if err := rows.Scan(&row.SnapshotID, &createdAt, &source, &row.Symbol, &name,
			&row.Price, &row.Volume, &quotedAt, &pct, &change24h, &trend); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		row.CreatedAt = time.UnixMilli(createdAt).UTC()
		row.QuotedAt = time.UnixMilli(quotedAt).UTC()
		row.Source = source.String
		row.Name = name.String
		row.Trend = trend.String
		if pct.Valid {
			v := pct.Float64
			row.PctChange = &v
		}
		if change24h.Valid {
			v := change24h.Float64
			row.Change24h = &v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) LatestInsights(limit int) ([]InsightRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.Query(`SELECT id, created_at, narrative FROM insights ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var out []InsightRow
	for rows.Next() {
		var row InsightRow
		var createdAt int64
		if err := rows.Scan(&row.ID, &createdAt, &row.Narrative); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		row.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing in-memory history")
	return r.db.Close()
}
