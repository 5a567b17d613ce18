package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"maps-review-scraper/config"
	"maps-review-scraper/models"
	"maps-review-scraper/scraper/gmaps"
	"maps-review-scraper/services"
	"maps-review-scraper/storage"
)

var (
	placeName      string
	placeOutputDir string
)

var placeCmd = &cobra.Command{
	Use:   "place <url>",
	Short: "Scrape a single place by URL",
	Long: `place scrapes one Google Maps place page and writes OneLocation.json
(plus .xlsx and .csv when reviews were collected) directly into the
output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlace,
}

func init() {
	placeCmd.Flags().StringVarP(&placeName, "name", "n", "One Location",
		"display name for the place")
	placeCmd.Flags().StringVarP(&placeOutputDir, "output", "o", "",
		"output directory (defaults to OUTPUT_DIR)")
	rootCmd.AddCommand(placeCmd)
}

func runPlace(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outputDir := placeOutputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	place := config.PlaceConfig{
		Name: placeName,
		URL:  args[0],
	}

	source := gmaps.New(cfg)
	defer source.Close()

	loader := services.NewScrollLoader(loaderConfig(), services.NewExtractor())
	pipeline := services.NewPlacePipeline(source, loader, cfg.PlaceTimeout())

	result := pipeline.Scrape(ctx, place)

	sink := storage.NewDirSink(outputDir, storage.LayoutFlat)
	if err := sink.WriteResult(place, result); err != nil {
		return err
	}

	zap.L().Info("place scrape finished",
		zap.String("place", place.Name),
		zap.String("status", string(result.Status)),
		zap.Int("reviews", result.TotalReviews()))

	if result.Status == models.StatusFailed {
		return eris.Errorf("place: scrape failed: %s", result.Err)
	}
	return nil
}
