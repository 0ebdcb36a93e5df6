package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rubenayla/invest/internal/contracts"
)

// SnapshotRepository implements contracts.SnapshotStore on Postgres.
// Queries take an upper bound on the snapshot date and never return rows
// past it; point-in-time visibility on top of that bound is the caller's
// concern.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// GetSnapshots retrieves a ticker's fundamental snapshots dated at or
// before upperBound, oldest first.
func (r *SnapshotRepository) GetSnapshots(ctx context.Context, ticker string, upperBound time.Time) ([]contracts.Snapshot, error) {
	query := `
		SELECT ticker, as_of_date, reporting_lag_days, sector, metrics
		FROM invest.snapshots
		WHERE ticker = $1 AND as_of_date <= $2
		ORDER BY as_of_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, upperBound)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []contracts.Snapshot
	for rows.Next() {
		var s contracts.Snapshot
		var metrics []byte
		if err := rows.Scan(&s.Ticker, &s.AsOfDate, &s.ReportingLagDays, &s.Sector, &metrics); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metrics, &s.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics for %s@%s: %w", s.Ticker, s.AsOfDate.Format("2006-01-02"), err)
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// ListTickers returns every ticker with at least one snapshot.
func (r *SnapshotRepository) ListTickers(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT ticker
		FROM invest.snapshots
		ORDER BY ticker ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// Save upserts a single snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, s *contracts.Snapshot) error {
	metrics, err := json.Marshal(s.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics for %s: %w", s.Ticker, err)
	}

	query := `
		INSERT INTO invest.snapshots (ticker, as_of_date, reporting_lag_days, sector, metrics)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker, as_of_date) DO UPDATE SET
			reporting_lag_days = EXCLUDED.reporting_lag_days,
			sector = EXCLUDED.sector,
			metrics = EXCLUDED.metrics
	`

	_, err = r.pool.Exec(ctx, query, s.Ticker, s.AsOfDate, s.ReportingLagDays, s.Sector, metrics)
	return err
}

// SaveBatch upserts multiple snapshots.
func (r *SnapshotRepository) SaveBatch(ctx context.Context, snaps []contracts.Snapshot) error {
	for i := range snaps {
		if err := r.Save(ctx, &snaps[i]); err != nil {
			return err
		}
	}
	return nil
}
