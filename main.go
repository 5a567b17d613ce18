package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"maps-review-scraper/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "maps-review-scraper",
	Short: "Scrape Google Maps reviews for configured places",
	Long: `maps-review-scraper drives a headless browser over Google Maps place
pages, scrolls each review list to exhaustion, and exports the cleaned
reviews as JSON, XLSX and CSV files plus a cross-place summary.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		return config.InitLogger(cfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
