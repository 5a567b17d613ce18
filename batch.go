package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"maps-review-scraper/config"
	"maps-review-scraper/scraper/gmaps"
	"maps-review-scraper/services"
	"maps-review-scraper/storage"
)

var (
	batchPlacesPath string
	batchOutputDir  string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scrape every place in the places file",
	Long: `batch reads the places file, scrapes each place in order, and writes
per-place exports under <output>/locations/ plus a cross-place summary.
A failing place never stops the batch; its failure is recorded in the
summary and the run moves on.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchPlacesPath, "places", "p", "locations.json",
		"path to the places configuration file")
	batchCmd.Flags().StringVarP(&batchOutputDir, "output", "o", "",
		"output directory (defaults to OUTPUT_DIR)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	places, err := config.LoadPlaces(batchPlacesPath)
	if err != nil {
		return err
	}

	outputDir := batchOutputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	zap.L().Info("batch starting",
		zap.Int("places", len(places)),
		zap.String("output", outputDir))

	sink := storage.NewDirSink(outputDir, storage.LayoutNested)
	if cfg.PostgresEnabled {
		store, err := storage.NewPostgresStore(cfg.DSN())
		if err != nil {
			return err
		}
		defer store.Close()
		sink.WithStore(store)
	}

	source := gmaps.New(cfg)
	defer source.Close()

	loader := services.NewScrollLoader(loaderConfig(), services.NewExtractor())
	pipeline := services.NewPlacePipeline(source, loader, cfg.PlaceTimeout())
	orchestrator := services.NewBatchOrchestrator(pipeline, sink, cfg.PlaceDelay())

	summary, err := orchestrator.Run(ctx, places)
	if err != nil {
		return err
	}

	insights := services.NewInsightService()
	insights.Print(insights.Generate(summary), summary)
	return nil
}

func loaderConfig() services.LoaderConfig {
	return services.LoaderConfig{
		MaxStagnantPasses: cfg.MaxStagnantPasses,
		MaxBackoffRetries: cfg.MaxBackoffRetries,
		Backoff:           cfg.LoaderBackoff(),
		PassesPerSecond:   cfg.PassesPerSecond,
	}
}
