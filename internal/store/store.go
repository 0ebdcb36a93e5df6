package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rubenayla/invest/internal/contracts"
)

// Store bundles the per-table repositories behind the read interface the
// pipeline consumes.
type Store struct {
	Snapshots *SnapshotRepository
	Prices    *PriceRepository
}

var _ contracts.SnapshotStore = (*Store)(nil)

// New creates the store over a shared connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		Snapshots: NewSnapshotRepository(pool),
		Prices:    NewPriceRepository(pool),
	}
}

func (s *Store) GetSnapshots(ctx context.Context, ticker string, upperBound time.Time) ([]contracts.Snapshot, error) {
	return s.Snapshots.GetSnapshots(ctx, ticker, upperBound)
}

func (s *Store) GetPriceHistory(ctx context.Context, ticker string, upperBound time.Time) ([]contracts.PriceBar, error) {
	return s.Prices.GetHistory(ctx, ticker, upperBound)
}

func (s *Store) ListTickers(ctx context.Context) ([]string, error) {
	return s.Snapshots.ListTickers(ctx)
}
