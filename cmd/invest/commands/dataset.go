package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rubenayla/invest/internal/dataset"
)

// datasetCmd represents the dataset command
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Dataset construction",
	Long: `Build point-in-time (feature row, label) pairs for a universe and
date range, with full accounting of every excluded row.

Example:
  go run ./cmd/invest dataset build --from 2018-01-01 --to 2023-06-01
  go run ./cmd/invest dataset build --from 2018-01-01 --to 2023-06-01 --tickers AAPL,MSFT --interval 30`,
}

var (
	datasetBuildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the training dataset",
		Long: `Builds feature rows and forward-return labels on a fixed as-of
schedule, normalizes each date's cross-section, and reports diagnostics.

Example:
  go run ./cmd/invest dataset build --from 2018-01-01 --to 2023-06-01`,
		RunE: runDatasetBuild,
	}

	// Flags
	datasetFrom     string
	datasetTo       string
	datasetInterval int
	datasetTickers  string
)

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetBuildCmd)

	datasetBuildCmd.Flags().StringVar(&datasetFrom, "from", "", "first as-of date (YYYY-MM-DD, required)")
	datasetBuildCmd.Flags().StringVar(&datasetTo, "to", "", "last as-of date (YYYY-MM-DD, default: today)")
	datasetBuildCmd.Flags().IntVar(&datasetInterval, "interval", 30, "days between as-of dates")
	datasetBuildCmd.Flags().StringVar(&datasetTickers, "tickers", "", "comma-separated universe (default: all stored)")

	datasetBuildCmd.MarkFlagRequired("from")
}

func runDatasetBuild(cmd *cobra.Command, args []string) error {
	req, err := parseBuildRequest()
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Println("=== Dataset Build ===")
	fmt.Printf("Config   : %s (%s)\n", a.featureCfg.Meta.ConfigID, a.featureCfg.Meta.Version)
	fmt.Printf("Period   : %s ~ %s every %d days\n",
		req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"), req.IntervalDays)
	fmt.Printf("Label    : %s %s\n\n", a.featureCfg.Label.Horizon, a.featureCfg.Label.Kind)

	start := time.Now()
	res, err := a.newDatasetBuilder().Build(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}

	printDiagnostics(res.Diagnostics)
	fmt.Printf("\nDone in %.1fs\n", time.Since(start).Seconds())
	return nil
}

// parseBuildRequest translates the dataset flags.
func parseBuildRequest() (dataset.Request, error) {
	var req dataset.Request

	from, err := time.Parse("2006-01-02", datasetFrom)
	if err != nil {
		return req, fmt.Errorf("invalid --from date: %w", err)
	}
	to := time.Now().UTC().Truncate(24 * time.Hour)
	if datasetTo != "" {
		to, err = time.Parse("2006-01-02", datasetTo)
		if err != nil {
			return req, fmt.Errorf("invalid --to date: %w", err)
		}
	}

	req.Start = from
	req.End = to
	req.IntervalDays = datasetInterval
	req.Tickers = splitTickers(datasetTickers)
	return req, nil
}

// splitTickers parses a comma-separated ticker list; empty means all.
func splitTickers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, strings.ToUpper(t))
		}
	}
	return out
}
