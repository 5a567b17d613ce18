package services

import (
	"context"
	"errors"

	"maps-review-scraper/models"
)

// ErrPanelNotFound is returned when a place page exposes no review surface,
// typically a wrong URL shape.
var ErrPanelNotFound = errors.New("review panel not found")

// ErrThrottled signals that the content source believes load requests are
// being rate limited. The loader answers it with backoff, not failure.
var ErrThrottled = errors.New("review loading throttled")

// ContentSource opens place pages. The chromedp implementation lives in
// scraper/gmaps; tests use scripted sources with deterministic item sequences.
type ContentSource interface {
	OpenPage(ctx context.Context, url string) (PageSession, error)
}

// PageSession is one opened place page. Close must be called on every exit
// path before the next place starts.
type PageSession interface {
	// LocatePanel reveals the scrollable review surface, failing with
	// ErrPanelNotFound when the page has none.
	LocatePanel(ctx context.Context) (Panel, error)

	// Coordinates resolves the place position, best-effort. The second
	// return is false when no finite coordinates could be determined.
	Coordinates(ctx context.Context) (models.Coordinates, bool)

	Close() error
}

// Panel is the review surface being driven to exhaustion. LoadMore performs
// one load pass: it advances the surface and returns every review container
// currently revealed (overlap with prior passes is expected; the deduplicator
// handles it), plus a hint whether more content appears to remain.
type Panel interface {
	LoadMore(ctx context.Context) (items []models.RawReview, hasMore bool, err error)
}
