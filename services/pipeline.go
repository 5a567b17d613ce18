package services

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"maps-review-scraper/config"
	"maps-review-scraper/models"
)

// PlacePipeline runs the full scrape for one place: open the page, locate
// the review panel, resolve coordinates, drive the scroll loader, and
// assemble a ScrapeResult. The page session is released on every exit path.
type PlacePipeline struct {
	source       ContentSource
	loader       *ScrollLoader
	placeTimeout time.Duration
	log          *zap.Logger
}

// NewPlacePipeline wires a pipeline from its collaborators. placeTimeout
// bounds the whole scrape of one place; zero disables the bound.
func NewPlacePipeline(source ContentSource, loader *ScrollLoader, placeTimeout time.Duration) *PlacePipeline {
	return &PlacePipeline{
		source:       source,
		loader:       loader,
		placeTimeout: placeTimeout,
		log:          zap.L().With(zap.String("component", "pipeline")),
	}
}

// Scrape produces a ScrapeResult for one configured place. It never returns
// nil: failures are encoded in the result's status and error text.
func (p *PlacePipeline) Scrape(ctx context.Context, place config.PlaceConfig) *models.ScrapeResult {
	log := p.log.With(zap.String("place", place.Name))
	res := &models.ScrapeResult{
		Location:  place.Name,
		ScrapedAt: time.Now().UTC(),
		Status:    models.StatusFailed,
	}

	if p.placeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.placeTimeout)
		defer cancel()
	}

	log.Info("opening place page", zap.String("url", place.URL))
	page, err := p.source.OpenPage(ctx, place.URL)
	if err != nil {
		res.Err = eris.Wrap(err, "open page").Error()
		log.Error("could not open place page", zap.Error(err))
		return res
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn("closing page session failed", zap.Error(cerr))
		}
	}()

	panel, err := page.LocatePanel(ctx)
	if err != nil {
		res.Err = eris.Wrap(err, "locate panel").Error()
		log.Error("review panel unavailable", zap.Error(err))
		return res
	}

	// Coordinates are best-effort: their absence is recorded, never fatal.
	if coords, ok := page.Coordinates(ctx); ok && coords.Valid() {
		res.Coordinates = coords
		res.HasCoordinates = true
		log.Debug("coordinates resolved",
			zap.Float64("lat", coords.Latitude),
			zap.Float64("lon", coords.Longitude),
		)
	} else {
		log.Warn("coordinates could not be resolved")
	}

	records, terminal := p.loader.Run(ctx, panel)

	switch terminal {
	case TerminalExhausted:
		res.Status = models.StatusSuccess
		res.Reviews = records
	case TerminalMaxRetries, TerminalTimedOut:
		if len(records) > 0 {
			res.Status = models.StatusPartial
			res.Reviews = records
			res.Err = "scrape cut short: " + terminal.String()
		} else {
			res.Status = models.StatusFailed
			res.Err = "no reviews collected: " + terminal.String()
		}
	}

	log.Info("place scrape finished",
		zap.String("status", string(res.Status)),
		zap.Int("reviews", len(res.Reviews)),
		zap.String("terminal", terminal.String()),
	)
	return res
}
