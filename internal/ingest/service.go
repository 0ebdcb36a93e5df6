package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rubenayla/invest/internal/contracts"
)

// syncWorkers bounds parallel ticker syncs. The provider rate limiter is
// shared, so this mostly overlaps decode and database time.
const syncWorkers = 4

// SnapshotWriter persists fundamental snapshots.
type SnapshotWriter interface {
	SaveBatch(ctx context.Context, snaps []contracts.Snapshot) error
}

// PriceWriter persists daily bars.
type PriceWriter interface {
	SaveBatch(ctx context.Context, bars []contracts.PriceBar) error
}

// Service pulls provider data and persists it.
type Service struct {
	client    *Client
	snapshots SnapshotWriter
	prices    PriceWriter
	log       zerolog.Logger
}

// NewService wires the provider client to the store writers.
func NewService(client *Client, snapshots SnapshotWriter, prices PriceWriter, log zerolog.Logger) *Service {
	return &Service{
		client:    client,
		snapshots: snapshots,
		prices:    prices,
		log:       log.With().Str("component", "ingest").Logger(),
	}
}

// SyncTicker fetches and persists one ticker's bars for [from, to] and its
// full fundamentals history. Returns the stored bar and snapshot counts.
func (s *Service) SyncTicker(ctx context.Context, ticker string, from, to time.Time) (int, int, error) {
	bars, err := s.client.FetchPrices(ctx, ticker, from, to)
	if err != nil {
		return 0, 0, err
	}
	if err := s.prices.SaveBatch(ctx, bars); err != nil {
		return 0, 0, fmt.Errorf("save bars for %s: %w", ticker, err)
	}

	snaps, err := s.client.FetchFundamentals(ctx, ticker)
	if err != nil {
		return len(bars), 0, err
	}
	if err := s.snapshots.SaveBatch(ctx, snaps); err != nil {
		return len(bars), 0, fmt.Errorf("save snapshots for %s: %w", ticker, err)
	}

	return len(bars), len(snaps), nil
}

// SyncUniverse syncs every ticker, a few in parallel. The first failure
// cancels the remaining work; partial writes are safe because all store
// writes are idempotent upserts.
func (s *Service) SyncUniverse(ctx context.Context, tickers []string, from, to time.Time) error {
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers to sync")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncWorkers)

	for _, ticker := range tickers {
		g.Go(func() error {
			bars, snaps, err := s.SyncTicker(gctx, ticker, from, to)
			if err != nil {
				return err
			}
			s.log.Info().
				Str("ticker", ticker).
				Int("bars", bars).
				Int("snapshots", snaps).
				Msg("ticker synced")
			return nil
		})
	}
	return g.Wait()
}
