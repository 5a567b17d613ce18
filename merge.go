package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"maps-review-scraper/services"
	"maps-review-scraper/storage"
)

var mergeOutputDir string

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Combine every per-place export into one dataset",
	Long: `merge reads the per-place JSON exports under <output>/locations/ and
writes all_reviews_combined.{json,xlsx,csv}. Reviews appearing in more
than one export are kept once.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutputDir, "output", "o", "",
		"output directory holding the per-place exports (defaults to OUTPUT_DIR)")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	outputDir := mergeOutputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	combined, err := services.NewMerger().Merge(outputDir)
	if err != nil {
		return err
	}

	sink := storage.NewDirSink(outputDir, storage.LayoutNested)
	if err := sink.WriteCombined(combined); err != nil {
		return err
	}

	zap.L().Info("combined export written",
		zap.String("dir", outputDir),
		zap.Int("places", combined.TotalPlaces),
		zap.Int("reviews", combined.TotalReviews))
	return nil
}
