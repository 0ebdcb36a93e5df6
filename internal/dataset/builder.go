package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rubenayla/invest/internal/contracts"
	"github.com/rubenayla/invest/internal/featureconfig"
	"github.com/rubenayla/invest/internal/features"
	"github.com/rubenayla/invest/internal/labels"
	"github.com/rubenayla/invest/internal/model"
	"github.com/rubenayla/invest/internal/normalize"
	"github.com/rubenayla/invest/internal/split"
	"github.com/rubenayla/invest/pkg/redis"
)

// defaultWorkers bounds the per-ticker fan-out. Feature computation is
// CPU-light; the store round-trips dominate.
const defaultWorkers = 8

// priceLookaheadGraceDays extends the price fetch past the last label
// window so the exit bar search has its grace period available.
const priceLookaheadGraceDays = 7

// Builder assembles (FeatureRow, Label) pairs for a universe and date
// range. Tickers are processed independently; each worker writes only its
// own result slot, so no locking is needed.
type Builder struct {
	store      contracts.SnapshotStore
	engineer   *features.Engineer
	labeler    *labels.Builder
	normalizer *normalize.Normalizer
	cache      *redis.Cache
	cfg        *featureconfig.Config
	workers    int
	log        zerolog.Logger
}

// NewBuilder wires the pipeline stages over a snapshot store. The cache
// may be backed by a disabled client; lookups then always miss.
func NewBuilder(st contracts.SnapshotStore, cfg *featureconfig.Config, cache *redis.Cache, log zerolog.Logger) *Builder {
	return &Builder{
		store:      st,
		engineer:   features.NewEngineer(cfg, log),
		labeler:    labels.NewBuilder(log),
		normalizer: normalize.New(log),
		cache:      cache,
		cfg:        cfg,
		workers:    defaultWorkers,
		log:        log.With().Str("component", "dataset").Logger(),
	}
}

// Request selects the universe and the as-of schedule. An empty Tickers
// slice means every ticker the store knows. IntervalDays defaults to 30.
type Request struct {
	Tickers      []string
	Start        time.Time
	End          time.Time
	IntervalDays int
}

// Result is a training-ready dataset: normalized rows date-ordered,
// labels aligned index-for-index, and the exclusion accounting.
type Result struct {
	Rows        []*contracts.FeatureRow
	Labels      []contracts.Label
	Diagnostics contracts.BuildDiagnostics
}

// tickerResult is one worker's private output slot.
type tickerResult struct {
	rows   []*contracts.FeatureRow
	labels []contracts.Label
	diag   contracts.BuildDiagnostics
}

// Build produces the dataset for the request. Rows missing history or a
// matured label are excluded and counted; a lookahead violation aborts
// the whole build, since it invalidates every row.
func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	if req.End.Before(req.Start) {
		return nil, fmt.Errorf("build range ends (%s) before it starts (%s)",
			req.End.Format("2006-01-02"), req.Start.Format("2006-01-02"))
	}

	tickers := req.Tickers
	if len(tickers) == 0 {
		var err error
		tickers, err = b.store.ListTickers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tickers: %w", err)
		}
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("universe is empty")
	}

	dates := asOfSchedule(req.Start, req.End, req.IntervalDays)
	horizon := b.cfg.Label.ParsedHorizon()
	kind := b.cfg.Label.ParsedKind()

	results := make([]tickerResult, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, ticker := range tickers {
		g.Go(func() error {
			res, err := b.buildTicker(gctx, ticker, dates, horizon, kind)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{}
	out.Diagnostics.Tickers = len(tickers)
	for _, r := range results {
		out.Rows = append(out.Rows, r.rows...)
		out.Labels = append(out.Labels, r.labels...)
		out.Diagnostics.Add(r.diag)
	}
	sortByDateTicker(out.Rows, out.Labels)

	normalized, zeroVar, err := b.normalizer.TransformByDate(out.Rows)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	out.Rows = normalized
	out.Diagnostics.ZeroVarianceDates = zeroVar

	b.log.Info().
		Int("tickers", len(tickers)).
		Int("dates", len(dates)).
		Str("diagnostics", out.Diagnostics.String()).
		Msg("dataset built")
	return out, nil
}

// buildTicker computes the ticker's rows for every scheduled as-of date.
func (b *Builder) buildTicker(ctx context.Context, ticker string, dates []time.Time, horizon contracts.Horizon, kind contracts.LabelKind) (tickerResult, error) {
	var res tickerResult
	res.diag.RowsRequested = len(dates)

	if len(dates) == 0 {
		return res, nil
	}
	end := dates[len(dates)-1]

	snaps, err := b.store.GetSnapshots(ctx, ticker, end)
	if err != nil {
		return res, fmt.Errorf("snapshots for %s: %w", ticker, err)
	}
	// Bars run past the last as-of date so labels can find their exit.
	barBound := end.AddDate(0, 0, horizon.Days()+priceLookaheadGraceDays)
	bars, err := b.store.GetPriceHistory(ctx, ticker, barBound)
	if err != nil {
		return res, fmt.Errorf("price history for %s: %w", ticker, err)
	}

	for _, asOf := range dates {
		row, hit, err := b.featureRow(ctx, ticker, asOf, snaps, bars)
		if err != nil {
			var lookahead *contracts.LookaheadError
			if errors.As(err, &lookahead) {
				return res, fmt.Errorf("aborting build: %w", err)
			}
			if features.IsInsufficientHistory(err) {
				res.diag.InsufficientHistory++
				continue
			}
			return res, err
		}
		if hit {
			res.diag.CacheHits++
		}

		label, err := b.labeler.Compute(ticker, asOf, horizon, kind, bars)
		if err != nil {
			if errors.Is(err, contracts.ErrMissingLabel) {
				res.diag.MissingLabel++
				continue
			}
			return res, err
		}

		res.rows = append(res.rows, row)
		res.labels = append(res.labels, label)
		res.diag.RowsBuilt++
	}
	return res, nil
}

// featureRow returns the cached row for (ticker, asOf, config version) or
// computes and caches it. Cache entries are written once and never
// updated; the version in the key keeps stale layouts unreachable.
func (b *Builder) featureRow(ctx context.Context, ticker string, asOf time.Time, snaps []contracts.Snapshot, bars []contracts.PriceBar) (*contracts.FeatureRow, bool, error) {
	key := redis.FeatureRowKey(ticker, asOf.Format("2006-01-02"), b.engineer.Version())

	if b.cache != nil {
		var cached contracts.FeatureRow
		ok, err := b.cache.Get(ctx, key, &cached)
		if err != nil {
			b.log.Warn().Err(err).Str("ticker", ticker).Msg("feature cache read failed, recomputing")
		} else if ok {
			return &cached, true, nil
		}
	}

	row, err := b.engineer.Compute(ticker, asOf,
		features.VisibleSnapshots(snaps, asOf),
		features.VisibleBars(bars, asOf))
	if err != nil {
		return nil, false, err
	}

	if b.cache != nil {
		if err := b.cache.SetOnce(ctx, key, row, redis.TTLLong); err != nil {
			b.log.Warn().Err(err).Str("ticker", ticker).Msg("feature cache write failed")
		}
	}
	return row, false, nil
}

// BuildScoring computes the normalized cross-section for one as-of date,
// without labels; this is the input to live model scoring. Normalization
// statistics come from the current universe only.
func (b *Builder) BuildScoring(ctx context.Context, asOf time.Time, tickers []string) ([]*contracts.FeatureRow, contracts.BuildDiagnostics, error) {
	var diag contracts.BuildDiagnostics

	if len(tickers) == 0 {
		var err error
		tickers, err = b.store.ListTickers(ctx)
		if err != nil {
			return nil, diag, fmt.Errorf("list tickers: %w", err)
		}
	}
	diag.Tickers = len(tickers)
	diag.RowsRequested = len(tickers)

	rows := make([]*contracts.FeatureRow, len(tickers))
	insufficient := make([]bool, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			snaps, err := b.store.GetSnapshots(gctx, ticker, asOf)
			if err != nil {
				return fmt.Errorf("snapshots for %s: %w", ticker, err)
			}
			bars, err := b.store.GetPriceHistory(gctx, ticker, asOf)
			if err != nil {
				return fmt.Errorf("price history for %s: %w", ticker, err)
			}

			row, _, err := b.featureRow(gctx, ticker, asOf, snaps, bars)
			if err != nil {
				var lookahead *contracts.LookaheadError
				if errors.As(err, &lookahead) {
					return fmt.Errorf("aborting scoring build: %w", err)
				}
				if features.IsInsufficientHistory(err) {
					insufficient[i] = true
					return nil
				}
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, diag, err
	}

	built := make([]*contracts.FeatureRow, 0, len(rows))
	for i, row := range rows {
		if insufficient[i] {
			diag.InsufficientHistory++
			continue
		}
		if row != nil {
			built = append(built, row)
		}
	}
	diag.RowsBuilt = len(built)
	if len(built) == 0 {
		return nil, diag, fmt.Errorf("no ticker has enough history at %s", asOf.Format("2006-01-02"))
	}

	normalized, zeroVar, err := b.normalizer.FitTransform(built)
	if err != nil {
		return nil, diag, fmt.Errorf("normalize: %w", err)
	}
	diag.ZeroVarianceDates = zeroVar
	return normalized, diag, nil
}

// TrainingDataset converts the result into the matrix form the trainer
// consumes.
func (b *Builder) TrainingDataset(res *Result) *model.Dataset {
	ds := &model.Dataset{
		ConfigVersion: b.engineer.Version(),
		FeatureNames:  b.engineer.FeatureNames(),
		X:             make([][]float64, len(res.Rows)),
		Y:             make([]float64, len(res.Rows)),
		Tickers:       make([]string, len(res.Rows)),
		Dates:         make([]time.Time, len(res.Rows)),
	}
	for i, row := range res.Rows {
		ds.X[i] = row.Values
		ds.Y[i] = res.Labels[i].Return
		ds.Tickers[i] = row.Ticker
		ds.Dates[i] = row.AsOfDate
	}
	return ds
}

// SplitRows produces the splitter's view of the result rows.
func SplitRows(res *Result) []split.Row {
	rows := make([]split.Row, len(res.Rows))
	for i, r := range res.Rows {
		rows[i] = split.Row{Ticker: r.Ticker, AsOfDate: r.AsOfDate}
	}
	return rows
}

// asOfSchedule expands [start, end] into as-of dates every intervalDays.
func asOfSchedule(start, end time.Time, intervalDays int) []time.Time {
	if intervalDays <= 0 {
		intervalDays = 30
	}
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, intervalDays) {
		dates = append(dates, d)
	}
	return dates
}

// sortByDateTicker orders rows and labels jointly by (date, ticker), the
// precondition both the normalizer grouping and the splitter rely on.
func sortByDateTicker(rows []*contracts.FeatureRow, lbls []contracts.Label) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := rows[order[a]], rows[order[b]]
		if !ra.AsOfDate.Equal(rb.AsOfDate) {
			return ra.AsOfDate.Before(rb.AsOfDate)
		}
		return ra.Ticker < rb.Ticker
	})

	sortedRows := make([]*contracts.FeatureRow, len(rows))
	sortedLabels := make([]contracts.Label, len(lbls))
	for j, i := range order {
		sortedRows[j] = rows[i]
		sortedLabels[j] = lbls[i]
	}
	copy(rows, sortedRows)
	copy(lbls, sortedLabels)
}
