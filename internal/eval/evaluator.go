package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/rubenayla/invest/internal/contracts"
	"github.com/rubenayla/invest/internal/model"
)

// Evaluator scores ranking quality date by date. It only trusts rows
// whose label window has fully elapsed as of "now"; anything younger is
// excluded and counted, never treated as a zero return.
type Evaluator struct {
	now time.Time
	log zerolog.Logger
}

// NewEvaluator builds an evaluator anchored at now.
func NewEvaluator(now time.Time, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		now: now,
		log: log.With().Str("component", "evaluator").Logger(),
	}
}

// FoldReport aggregates per-date ranking metrics over one fold's
// validation window.
type FoldReport struct {
	Fold       int
	ValStart   time.Time
	ValEnd     time.Time
	MeanIC     float64
	ICStd      float64
	MeanSpread float64
	Dates      int
	Skipped    int
	Immature   int
}

// HoldoutReport carries the metrics from the temporal holdout: a model
// trained strictly before the cutoff, evaluated strictly after it. This
// is the only number that approximates live performance.
type HoldoutReport struct {
	Cutoff     time.Time
	TrainRows  int
	TestRows   int
	MeanIC     float64
	ICStd      float64
	MeanSpread float64
	Dates      int
	Skipped    int
	Immature   int
}

// Report pairs cross-validation metrics with the holdout. GapRatio is
// CV IC over holdout IC; history here shows it can run near 3x, so it is
// reported as a property to watch rather than hidden.
type Report struct {
	Folds    []FoldReport
	CVMeanIC float64
	Holdout  *HoldoutReport
	GapRatio float64
}

// EvaluateFolds computes per-date Rank IC and decile spread over each
// fold's validation rows using the out-of-fold predictions.
func (e *Evaluator) EvaluateFolds(ds *model.Dataset, cv *model.CVResult, folds []contracts.Fold, horizonDays int) ([]FoldReport, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if len(cv.OOFPred) != ds.Len() {
		return nil, fmt.Errorf("prediction vector has %d rows, dataset has %d", len(cv.OOFPred), ds.Len())
	}

	reports := make([]FoldReport, 0, len(folds))
	for _, fold := range folds {
		r := FoldReport{Fold: fold.Index, ValStart: fold.ValStart, ValEnd: fold.ValEnd}

		idx := make([]int, 0, len(fold.ValIdx))
		for _, i := range fold.ValIdx {
			if !cv.OOFValid[i] {
				continue
			}
			if e.immature(ds.Dates[i], horizonDays) {
				r.Immature++
				continue
			}
			idx = append(idx, i)
		}

		preds := make([]float64, len(idx))
		for j, i := range idx {
			preds[j] = cv.OOFPred[i]
		}
		r.MeanIC, r.ICStd, r.MeanSpread, r.Dates, r.Skipped = e.byDate(ds, idx, preds)

		e.log.Info().
			Int("fold", r.Fold).
			Float64("mean_ic", r.MeanIC).
			Float64("decile_spread", r.MeanSpread).
			Int("dates", r.Dates).
			Int("skipped", r.Skipped).
			Msg("fold evaluated")
		reports = append(reports, r)
	}
	return reports, nil
}

// Holdout trains on rows whose entire label window closes strictly before
// the cutoff and evaluates on rows dated strictly after it. Nothing about
// the holdout feeds back into model selection.
func (e *Evaluator) Holdout(ctx context.Context, ds *model.Dataset, trainer *model.Trainer, cutoff time.Time, horizonDays int) (*HoldoutReport, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	r := &HoldoutReport{Cutoff: cutoff}
	var trainIdx, testIdx []int
	for i := range ds.Dates {
		labelEnd := ds.Dates[i].AddDate(0, 0, horizonDays)
		switch {
		case labelEnd.Before(cutoff):
			trainIdx = append(trainIdx, i)
		case ds.Dates[i].After(cutoff):
			if e.immature(ds.Dates[i], horizonDays) {
				r.Immature++
				continue
			}
			testIdx = append(testIdx, i)
		}
	}
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, fmt.Errorf("holdout cutoff %s leaves %d train and %d test rows",
			cutoff.Format("2006-01-02"), len(trainIdx), len(testIdx))
	}
	r.TrainRows = len(trainIdx)
	r.TestRows = len(testIdx)

	m, err := trainer.TrainFull(ctx, ds.Subset(trainIdx))
	if err != nil {
		return nil, fmt.Errorf("holdout training: %w", err)
	}

	preds := make([]float64, len(testIdx))
	for j, i := range testIdx {
		preds[j] = m.Predict(ds.X[i])
	}
	r.MeanIC, r.ICStd, r.MeanSpread, r.Dates, r.Skipped = e.byDate(ds, testIdx, preds)

	e.log.Info().
		Time("cutoff", cutoff).
		Float64("mean_ic", r.MeanIC).
		Float64("decile_spread", r.MeanSpread).
		Int("train_rows", r.TrainRows).
		Int("test_rows", r.TestRows).
		Msg("holdout evaluated")
	return r, nil
}

// BuildReport combines fold reports and an optional holdout into one
// result, with CV IC averaged over folds weighted by scored dates.
func BuildReport(folds []FoldReport, holdout *HoldoutReport) *Report {
	rep := &Report{Folds: folds, Holdout: holdout}

	var icSum float64
	var dates int
	for _, f := range folds {
		icSum += f.MeanIC * float64(f.Dates)
		dates += f.Dates
	}
	if dates > 0 {
		rep.CVMeanIC = icSum / float64(dates)
	}
	if holdout != nil && holdout.MeanIC != 0 {
		rep.GapRatio = rep.CVMeanIC / holdout.MeanIC
	}
	return rep
}

// byDate walks the already date-ordered rows at idx, computes IC and
// spread for each cross-section, and aggregates. Cross-sections below the
// minimum size are skipped and counted.
func (e *Evaluator) byDate(ds *model.Dataset, idx []int, preds []float64) (meanIC, icStd, meanSpread float64, dates, skipped int) {
	var ics, spreads []float64

	for start := 0; start < len(idx); {
		end := start
		for end+1 < len(idx) && ds.Dates[idx[end+1]].Equal(ds.Dates[idx[start]]) {
			end++
		}

		p := preds[start : end+1]
		a := make([]float64, end-start+1)
		for j := range a {
			a[j] = ds.Y[idx[start+j]]
		}

		if ic, ok := rankIC(p, a); ok {
			ics = append(ics, ic)
			if spread, ok := decileSpread(p, a); ok {
				spreads = append(spreads, spread)
			}
		} else {
			skipped++
		}
		start = end + 1
	}

	dates = len(ics)
	if dates > 0 {
		meanIC = stat.Mean(ics, nil)
		if dates > 1 {
			icStd = stat.StdDev(ics, nil)
		}
	}
	if len(spreads) > 0 {
		meanSpread = stat.Mean(spreads, nil)
	}
	return meanIC, icStd, meanSpread, dates, skipped
}

// immature reports whether the label window starting at asOf has not yet
// fully elapsed.
func (e *Evaluator) immature(asOf time.Time, horizonDays int) bool {
	return asOf.AddDate(0, 0, horizonDays).After(e.now)
}
