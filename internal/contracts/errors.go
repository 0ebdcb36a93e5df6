package contracts

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientHistory marks a (ticker, as-of-date) pair that does not
// have enough prior snapshots or bars for the configured feature set.
// Recovered by excluding the row; counted in diagnostics.
var ErrInsufficientHistory = errors.New("insufficient history for configured feature set")

// ErrMissingLabel marks a label whose future price bar does not exist yet.
// Recovered by excluding the row; counted in diagnostics.
var ErrMissingLabel = errors.New("future price bar not available for label")

// LookaheadError reports that an input dated after the row's visibility
// cutoff reached a feature or label computation. This is a programming
// error: the whole dataset under construction is suspect, so it aborts the
// run instead of degrading.
type LookaheadError struct {
	Ticker   string
	AsOfDate time.Time
	DataDate time.Time
	What     string // "snapshot" or "price bar"
}

func (e *LookaheadError) Error() string {
	return fmt.Sprintf("lookahead violation: %s %s dated %s visible after as-of %s",
		e.Ticker, e.What,
		e.DataDate.Format("2006-01-02"),
		e.AsOfDate.Format("2006-01-02"))
}

// DegenerateFoldError reports a purge/embargo configuration that emptied a
// fold's train or validation set. Fatal: configuration problem, not data.
type DegenerateFoldError struct {
	Fold  int
	Which string // "train" or "validation"
}

func (e *DegenerateFoldError) Error() string {
	return fmt.Sprintf("degenerate fold %d: %s set is empty (check purge/embargo windows and fold count)", e.Fold, e.Which)
}
