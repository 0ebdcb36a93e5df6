package split

import (
	"fmt"
	"time"

	"github.com/rubenayla/invest/internal/contracts"
)

// Row is the minimal view of a dataset row the splitter needs.
type Row struct {
	Ticker   string
	AsOfDate time.Time
}

// Params configures the splitter. PurgeDays is the label-window length
// used for the overlap test and must cover the label horizon; EmbargoDays
// is the post-validation exclusion window.
type Params struct {
	NumFolds    int
	PurgeDays   int
	EmbargoDays int
}

// Split partitions the row set into NumFolds folds. The overall date range
// is divided into contiguous, roughly equal validation windows, emitted
// earliest to latest. For each fold the training set is every row outside
// the validation window, minus:
//
//   - purge: rows whose label window (asOf, asOf+PurgeDays] intersects the
//     validation window, since their labels see into the validation period;
//   - embargo: rows with asOf in (valEnd, valEnd+EmbargoDays], close enough
//     after the window for autocorrelation to leak its outcome.
//
// The purge and embargo rules are per-row and ticker-independent; no
// further ticker-level exclusion is needed. Split is a pure function: it
// holds no state between calls.
//
// Preconditions: rows must be ordered by AsOfDate non-decreasing (ties
// across tickers are fine). A fold whose train or validation set comes out
// empty is a DegenerateFoldError: a configuration problem surfaced
// immediately, never a silently degenerate fold.
func Split(rows []Row, p Params) ([]contracts.Fold, error) {
	if p.NumFolds < 2 {
		return nil, fmt.Errorf("num_folds must be >= 2, got %d", p.NumFolds)
	}
	if p.PurgeDays < 0 || p.EmbargoDays < 0 {
		return nil, fmt.Errorf("purge/embargo windows must be >= 0")
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty row set")
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].AsOfDate.Before(rows[i-1].AsOfDate) {
			return nil, fmt.Errorf("rows not ordered by as-of date: row %d (%s) precedes row %d (%s)",
				i, rows[i].AsOfDate.Format("2006-01-02"),
				i-1, rows[i-1].AsOfDate.Format("2006-01-02"))
		}
	}

	minDate := rows[0].AsOfDate
	maxDate := rows[len(rows)-1].AsOfDate
	spanDays := int(maxDate.Sub(minDate).Hours()/24) + 1
	if spanDays < p.NumFolds {
		return nil, fmt.Errorf("date span of %d days cannot hold %d folds", spanDays, p.NumFolds)
	}
	foldDays := spanDays / p.NumFolds

	folds := make([]contracts.Fold, 0, p.NumFolds)
	for k := 0; k < p.NumFolds; k++ {
		valStart := minDate.AddDate(0, 0, k*foldDays)
		var valEnd time.Time
		if k == p.NumFolds-1 {
			valEnd = maxDate
		} else {
			valEnd = minDate.AddDate(0, 0, (k+1)*foldDays-1)
		}
		embargoEnd := valEnd.AddDate(0, 0, p.EmbargoDays)

		fold := contracts.Fold{
			Index:    k,
			ValStart: valStart,
			ValEnd:   valEnd,
		}

		for i := range rows {
			asOf := rows[i].AsOfDate
			switch {
			case !asOf.Before(valStart) && !asOf.After(valEnd):
				fold.ValIdx = append(fold.ValIdx, i)

			case asOf.Before(valStart):
				// Label window (asOf, asOf+PurgeDays] reaches into the
				// validation window when its end crosses valStart.
				labelEnd := asOf.AddDate(0, 0, p.PurgeDays)
				if !labelEnd.Before(valStart) {
					fold.Purged++
					continue
				}
				fold.TrainIdx = append(fold.TrainIdx, i)

			default: // asOf after valEnd
				if !asOf.After(embargoEnd) {
					fold.Embargoed++
					continue
				}
				fold.TrainIdx = append(fold.TrainIdx, i)
			}
		}

		if len(fold.ValIdx) == 0 {
			return nil, &contracts.DegenerateFoldError{Fold: k, Which: "validation"}
		}
		if len(fold.TrainIdx) == 0 {
			return nil, &contracts.DegenerateFoldError{Fold: k, Which: "train"}
		}

		folds = append(folds, fold)
	}

	return folds, nil
}
