package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rubenayla/invest/internal/featureconfig"
)

var (
	// Global flags
	featuresFile string
	preset       string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "invest",
	Short: "Point-in-time feature engineering and return-ranking pipeline",
	Long: `invest builds leakage-free training datasets from fundamental
snapshots and daily prices, trains a gradient-boosted ranking model with
purged cross-validation, and scores the current universe.

Usage:
  go run ./cmd/invest [command]

Examples:
  go run ./cmd/invest ingest --tickers AAPL,MSFT --from 2015-01-01
  go run ./cmd/invest dataset build --from 2018-01-01 --to 2023-06-01
  go run ./cmd/invest train --from 2018-01-01 --to 2023-06-01 --out model.json
  go run ./cmd/invest score --model model.json`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&featuresFile, "features", "", "feature config YAML (overrides --preset)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "full", "built-in feature preset (lite|full)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadFeatureConfig resolves the feature configuration from the global
// flags: an explicit YAML file wins over the preset.
func loadFeatureConfig() (*featureconfig.Config, error) {
	if featuresFile != "" {
		cfg, _, err := featureconfig.Load(featuresFile)
		return cfg, err
	}
	switch preset {
	case "lite":
		return featureconfig.Lite(), nil
	case "full":
		return featureconfig.Full(), nil
	default:
		return nil, fmt.Errorf("unknown preset %q (want lite|full)", preset)
	}
}
