package dataset

import (
	"context"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubenayla/invest/internal/contracts"
	"github.com/rubenayla/invest/internal/featureconfig"
	"github.com/rubenayla/invest/pkg/config"
	"github.com/rubenayla/invest/pkg/logger"
	"github.com/rubenayla/invest/pkg/redis"
)

// fakeStore is an in-memory SnapshotStore for builder tests.
type fakeStore struct {
	snaps map[string][]contracts.Snapshot
	bars  map[string][]contracts.PriceBar
}

func (f *fakeStore) GetSnapshots(_ context.Context, ticker string, upperBound time.Time) ([]contracts.Snapshot, error) {
	var out []contracts.Snapshot
	for _, s := range f.snaps[ticker] {
		if !s.AsOfDate.After(upperBound) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) GetPriceHistory(_ context.Context, ticker string, upperBound time.Time) ([]contracts.PriceBar, error) {
	var out []contracts.PriceBar
	for _, b := range f.bars[ticker] {
		if !b.Date.After(upperBound) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTickers(_ context.Context) ([]string, error) {
	tickers := make([]string, 0, len(f.snaps))
	for t := range f.snaps {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers, nil
}

func ptr(v float64) *float64 { return &v }

// seedTicker fills the store with quarterly snapshots and daily bars for
// one ticker. Metrics and prices vary by the offset so cross-sections are
// not degenerate.
func seedTicker(f *fakeStore, ticker string, offset float64, quarters, barDays int, cfg *featureconfig.Config) {
	start := time.Date(2018, 1, 15, 0, 0, 0, 0, time.UTC)

	for q := 0; q < quarters; q++ {
		s := contracts.Snapshot{
			Ticker:           ticker,
			AsOfDate:         start.AddDate(0, 3*q, 0),
			ReportingLagDays: 45,
			Sector:           "technology",
			Metrics:          contracts.MetricsMap{},
		}
		for j, m := range cfg.Features.BaseMetrics {
			s.Metrics[m] = ptr(10 + offset + float64(q) + float64(j))
		}
		f.snaps[ticker] = append(f.snaps[ticker], s)
	}

	barStart := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < barDays; i++ {
		price := 100 + 10*offset + 0.05*float64(i)
		f.bars[ticker] = append(f.bars[ticker], contracts.PriceBar{
			Ticker:         ticker,
			Date:           barStart.AddDate(0, 0, i),
			Open:           price,
			High:           price,
			Low:            price,
			Close:          price,
			Volume:         1000 + int64(i),
			SplitFactor:    1,
			DividendFactor: 1,
		})
	}
}

func newTestBuilder(t *testing.T, f *fakeStore, cfg *featureconfig.Config) *Builder {
	t.Helper()
	client, err := redis.New(&config.Config{}) // disabled: every lookup misses
	require.NoError(t, err)
	cache := redis.NewCache(client, "invest")
	return NewBuilder(f, cfg, cache, logger.Nop())
}

func testRequest() Request {
	return Request{
		Start:        time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC),
		IntervalDays: 90,
	}
}

func TestBuild_FullPanel(t *testing.T) {
	cfg := featureconfig.Lite()
	f := &fakeStore{snaps: map[string][]contracts.Snapshot{}, bars: map[string][]contracts.PriceBar{}}
	seedTicker(f, "AAA", 0, 12, 1200, cfg)
	seedTicker(f, "BBB", 1, 12, 1200, cfg)
	seedTicker(f, "CCC", 2, 12, 1200, cfg)

	b := newTestBuilder(t, f, cfg)
	res, err := b.Build(context.Background(), testRequest())
	require.NoError(t, err)

	// 3 as-of dates across 3 tickers, all with history and matured labels.
	assert.Equal(t, 9, res.Diagnostics.RowsRequested)
	assert.Equal(t, 9, res.Diagnostics.RowsBuilt)
	assert.Zero(t, res.Diagnostics.Excluded())
	require.Len(t, res.Rows, 9)
	require.Len(t, res.Labels, 9)

	// Rows are date-ordered with labels aligned, and fully normalized.
	for i, row := range res.Rows {
		if i > 0 {
			assert.False(t, row.AsOfDate.Before(res.Rows[i-1].AsOfDate))
		}
		assert.Equal(t, row.Ticker, res.Labels[i].Ticker)
		assert.True(t, row.AsOfDate.Equal(res.Labels[i].AsOfDate))
		assert.True(t, res.Labels[i].Valid)
		for j, v := range row.Values {
			assert.False(t, math.IsNaN(v), "row %d feature %d", i, j)
			assert.False(t, math.IsInf(v, 0), "row %d feature %d", i, j)
		}
	}
}

func TestBuild_InsufficientHistoryExcluded(t *testing.T) {
	cfg := featureconfig.Lite()
	f := &fakeStore{snaps: map[string][]contracts.Snapshot{}, bars: map[string][]contracts.PriceBar{}}
	seedTicker(f, "AAA", 0, 12, 1200, cfg)
	seedTicker(f, "BBB", 1, 12, 1200, cfg)
	seedTicker(f, "SHY", 2, 2, 1200, cfg) // two quarters only

	b := newTestBuilder(t, f, cfg)
	res, err := b.Build(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Diagnostics.InsufficientHistory)
	assert.Equal(t, 6, res.Diagnostics.RowsBuilt)
	for _, row := range res.Rows {
		assert.NotEqual(t, "SHY", row.Ticker)
	}
}

func TestBuild_MissingLabelExcluded(t *testing.T) {
	cfg := featureconfig.Lite()
	f := &fakeStore{snaps: map[string][]contracts.Snapshot{}, bars: map[string][]contracts.PriceBar{}}
	// Bars stop on 2020-06-27: the 1-year windows opened after 2019-06-20
	// can never close.
	seedTicker(f, "AAA", 0, 12, 909, cfg)
	seedTicker(f, "BBB", 1, 12, 909, cfg)
	seedTicker(f, "CCC", 2, 12, 909, cfg)

	b := newTestBuilder(t, f, cfg)
	res, err := b.Build(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 6, res.Diagnostics.MissingLabel)
	assert.Equal(t, 3, res.Diagnostics.RowsBuilt)
	for _, l := range res.Labels {
		assert.True(t, l.AsOfDate.Equal(testRequest().Start))
	}
}

func TestBuild_EndBeforeStart(t *testing.T) {
	cfg := featureconfig.Lite()
	f := &fakeStore{snaps: map[string][]contracts.Snapshot{}, bars: map[string][]contracts.PriceBar{}}
	b := newTestBuilder(t, f, cfg)

	req := testRequest()
	req.Start, req.End = req.End, req.Start
	_, err := b.Build(context.Background(), req)
	require.Error(t, err)
}

func TestTrainingDataset_Alignment(t *testing.T) {
	cfg := featureconfig.Lite()
	f := &fakeStore{snaps: map[string][]contracts.Snapshot{}, bars: map[string][]contracts.PriceBar{}}
	seedTicker(f, "AAA", 0, 12, 1200, cfg)
	seedTicker(f, "BBB", 1, 12, 1200, cfg)

	b := newTestBuilder(t, f, cfg)
	res, err := b.Build(context.Background(), testRequest())
	require.NoError(t, err)

	ds := b.TrainingDataset(res)
	require.NoError(t, ds.Validate())
	assert.Equal(t, cfg.Meta.Version, ds.ConfigVersion)
	assert.Equal(t, len(res.Rows), ds.Len())
	for i := range res.Rows {
		assert.Equal(t, res.Labels[i].Return, ds.Y[i])
		assert.Equal(t, res.Rows[i].Ticker, ds.Tickers[i])
	}

	rows := SplitRows(res)
	require.Len(t, rows, ds.Len())
	assert.Equal(t, res.Rows[0].Ticker, rows[0].Ticker)
}

func TestBuildScoring_CurrentCrossSection(t *testing.T) {
	cfg := featureconfig.Lite()
	f := &fakeStore{snaps: map[string][]contracts.Snapshot{}, bars: map[string][]contracts.PriceBar{}}
	seedTicker(f, "AAA", 0, 12, 1200, cfg)
	seedTicker(f, "BBB", 1, 12, 1200, cfg)
	seedTicker(f, "CCC", 2, 12, 1200, cfg)
	seedTicker(f, "SHY", 3, 2, 1200, cfg)

	b := newTestBuilder(t, f, cfg)
	asOf := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

	rows, diag, err := b.BuildScoring(context.Background(), asOf, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, diag.Tickers)
	assert.Equal(t, 1, diag.InsufficientHistory)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.True(t, row.AsOfDate.Equal(asOf))
		for _, v := range row.Values {
			assert.False(t, math.IsNaN(v))
		}
	}
}
