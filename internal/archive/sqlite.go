package archive

import (
	"context"
	"database/sql"
	"fmt"

	"pepperwatch/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ PredictionLog = (*SQLiteLog)(nil)

// SQLiteLog implements PredictionLog backed by a SQLite database.
type SQLiteLog struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	region          TEXT    NOT NULL,
	target_date     TEXT    NOT NULL,
	predicted_price REAL    NOT NULL,
	tier            TEXT    NOT NULL,
	created_at      TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_region ON predictions (region, created_at);
`

// NewSQLiteLog opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteLog(dbPath string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing prediction log: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

// Close closes the underlying database connection.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

// SavePrediction appends one prediction to the log.
func (l *SQLiteLog) SavePrediction(ctx context.Context, rec PredictionRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO predictions (region, target_date, predicted_price, tier, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(rec.Region), rec.TargetDate, rec.PredictedPrice, rec.Tier, rec.CreatedAt)
	return err
}

// ListPredictions returns the most recent predictions for a region, newest
// first, up to limit. A non-positive limit returns everything.
func (l *SQLiteLog) ListPredictions(ctx context.Context, region domain.Region, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited.
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT region, target_date, predicted_price, tier, created_at
		 FROM predictions WHERE region = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		string(region), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []PredictionRecord
	for rows.Next() {
		var rec PredictionRecord
		var regionStr string
		if err := rows.Scan(&regionStr, &rec.TargetDate, &rec.PredictedPrice, &rec.Tier, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Region = domain.Region(regionStr)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
