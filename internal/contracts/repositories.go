package contracts

import (
	"context"
	"time"
)

// SnapshotStore is the read-only point-in-time data source consumed by the
// pipeline. Implementations must respect the upper bounds strictly: no
// snapshot with AsOfDate after the bound, no bar dated after the bound.
type SnapshotStore interface {
	// GetSnapshots returns all snapshots for the ticker with
	// AsOfDate <= upperBound, ordered by AsOfDate ascending.
	GetSnapshots(ctx context.Context, ticker string, upperBound time.Time) ([]Snapshot, error)

	// GetPriceHistory returns all daily bars for the ticker with
	// Date <= upperBound, ordered by Date ascending.
	GetPriceHistory(ctx context.Context, ticker string, upperBound time.Time) ([]PriceBar, error)

	// ListTickers returns the full universe of known tickers.
	ListTickers(ctx context.Context) ([]string, error)
}
