package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"maps-review-scraper/config"
	"maps-review-scraper/models"
)

// ResultSink persists one ScrapeResult per place plus the final summary.
// Implementations live in the storage package.
type ResultSink interface {
	WriteResult(place config.PlaceConfig, res *models.ScrapeResult) error
	WriteSummary(sum *models.BatchSummary) error
}

// BatchOrchestrator runs the place pipeline over a configured batch,
// strictly sequentially: the throttling budget is shared per origin, so
// parallel places would starve each other instead of isolating failures.
//
// One place's failure never aborts the batch; every configured place gets a
// summary entry. Only a failure to persist the summary itself surfaces to
// the caller.
type BatchOrchestrator struct {
	pipeline   *PlacePipeline
	sink       ResultSink
	placeDelay time.Duration
	log        *zap.Logger
}

// NewBatchOrchestrator wires an orchestrator. placeDelay is the pause
// between consecutive places.
func NewBatchOrchestrator(pipeline *PlacePipeline, sink ResultSink, placeDelay time.Duration) *BatchOrchestrator {
	return &BatchOrchestrator{
		pipeline:   pipeline,
		sink:       sink,
		placeDelay: placeDelay,
		log:        zap.L().With(zap.String("component", "batch")),
	}
}

// Run scrapes every place in order and returns the finalized summary. The
// returned error is non-nil only when the summary could not be persisted.
func (b *BatchOrchestrator) Run(ctx context.Context, places []config.PlaceConfig) (*models.BatchSummary, error) {
	summary := &models.BatchSummary{}
	start := time.Now()

	b.log.Info("starting batch", zap.Int("places", len(places)))

	for i, place := range places {
		log := b.log.With(zap.String("place", place.Name), zap.Int("index", i+1))

		var res *models.ScrapeResult
		if ctx.Err() != nil {
			// Cancelled mid-batch: the remaining places still get entries.
			res = &models.ScrapeResult{
				Location:  place.Name,
				ScrapedAt: time.Now().UTC(),
				Status:    models.StatusFailed,
				Err:       "batch cancelled before this place started",
			}
		} else {
			res = b.scrapeOne(ctx, place)
		}

		entry := models.SummaryEntry{
			OutputName:  place.OutputName,
			Location:    res.Location,
			ReviewCount: res.TotalReviews(),
			AvgRating:   res.AverageRating(),
			Status:      res.Status,
			Err:         res.Err,
		}
		if res.HasCoordinates {
			entry.Latitude = res.Coordinates.Latitude
			entry.Longitude = res.Coordinates.Longitude
		}

		if err := b.sink.WriteResult(place, res); err != nil {
			entry.Status = models.StatusFailed
			entry.Err = eris.Wrap(err, "write export").Error()
			log.Error("export failed", zap.Error(err))
		}

		summary.Append(entry)
		log.Info("place done",
			zap.String("status", string(entry.Status)),
			zap.Int("reviews", entry.ReviewCount),
		)

		if i < len(places)-1 && b.placeDelay > 0 && ctx.Err() == nil {
			b.sleep(ctx)
		}
	}

	summary.GeneratedAt = time.Now().UTC()
	if err := b.sink.WriteSummary(summary); err != nil {
		return summary, eris.Wrap(err, "batch: write summary")
	}

	b.log.Info("batch complete",
		zap.Int("places", len(summary.Entries)),
		zap.Int("total_reviews", summary.TotalReviews()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}

// scrapeOne runs one place inside the isolation boundary: panics and any
// error the pipeline did not catch become a failed result, never an aborted
// batch.
func (b *BatchOrchestrator) scrapeOne(ctx context.Context, place config.PlaceConfig) (res *models.ScrapeResult) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("place pipeline panicked",
				zap.String("place", place.Name),
				zap.Any("panic", r),
			)
			res = &models.ScrapeResult{
				Location:  place.Name,
				ScrapedAt: time.Now().UTC(),
				Status:    models.StatusFailed,
				Err:       fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	return b.pipeline.Scrape(ctx, place)
}

func (b *BatchOrchestrator) sleep(ctx context.Context) {
	timer := time.NewTimer(b.placeDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
