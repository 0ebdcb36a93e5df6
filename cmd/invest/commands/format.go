package commands

import (
	"fmt"

	"github.com/rubenayla/invest/internal/contracts"
	"github.com/rubenayla/invest/internal/eval"
	"github.com/rubenayla/invest/internal/model"
)

// Shared output formatting so every command reports the same way.

// printDiagnostics prints the dataset exclusion accounting.
func printDiagnostics(d contracts.BuildDiagnostics) {
	fmt.Println("--- Diagnostics ---")
	fmt.Printf("Tickers              : %d\n", d.Tickers)
	fmt.Printf("Rows requested       : %d\n", d.RowsRequested)
	fmt.Printf("Rows built           : %d\n", d.RowsBuilt)
	fmt.Printf("Insufficient history : %d\n", d.InsufficientHistory)
	fmt.Printf("Missing label        : %d\n", d.MissingLabel)
	fmt.Printf("Cache hits           : %d\n", d.CacheHits)
	fmt.Printf("Zero-variance columns: %d\n", d.ZeroVarianceDates)
}

// printReport prints fold metrics, the holdout, and the CV/holdout gap.
func printReport(rep *eval.Report) {
	fmt.Println("--- Cross-Validation ---")
	fmt.Println("fold   window                    rank IC   ic std    spread    dates")
	for _, f := range rep.Folds {
		fmt.Printf("%-6d %s ~ %s   %+.4f   %.4f   %+.4f   %d\n",
			f.Fold,
			f.ValStart.Format("2006-01-02"), f.ValEnd.Format("2006-01-02"),
			f.MeanIC, f.ICStd, f.MeanSpread, f.Dates)
	}
	fmt.Printf("CV mean rank IC: %+.4f\n", rep.CVMeanIC)

	if rep.Holdout != nil {
		h := rep.Holdout
		fmt.Println("\n--- Temporal Holdout ---")
		fmt.Printf("Cutoff      : %s\n", h.Cutoff.Format("2006-01-02"))
		fmt.Printf("Train rows  : %d\n", h.TrainRows)
		fmt.Printf("Test rows   : %d\n", h.TestRows)
		fmt.Printf("Rank IC     : %+.4f (std %.4f over %d dates)\n", h.MeanIC, h.ICStd, h.Dates)
		fmt.Printf("Decile sprd : %+.4f\n", h.MeanSpread)
		if rep.GapRatio != 0 {
			fmt.Printf("CV/holdout gap ratio: %.2fx\n", rep.GapRatio)
		}
		fmt.Println("\nOnly the holdout IC approximates live performance; the gap")
		fmt.Println("ratio is a property to monitor, not to explain away.")
	}
}

// printRanking prints the top of a scored cross-section.
func printRanking(ranking []model.ScoredTicker, topN int) {
	if topN > len(ranking) {
		topN = len(ranking)
	}
	fmt.Println("rank   ticker   score")
	for _, s := range ranking[:topN] {
		fmt.Printf("%-6d %-8s %+.4f\n", s.Rank, s.Ticker, s.Score)
	}
	if topN < len(ranking) {
		fmt.Printf("... %d more\n", len(ranking)-topN)
	}
}
