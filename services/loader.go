package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"maps-review-scraper/models"
	"maps-review-scraper/utils"
)

// Terminal is the state a loader run ended in.
type Terminal int

const (
	// TerminalExhausted means the list stopped producing new unique records:
	// a full, successful scrape.
	TerminalExhausted Terminal = iota + 1

	// TerminalMaxRetries means throttling persisted past the retry budget;
	// whatever was collected so far is returned.
	TerminalMaxRetries

	// TerminalTimedOut means the per-place deadline or a cancellation cut the
	// run short; whatever was collected so far is returned.
	TerminalTimedOut
)

func (t Terminal) String() string {
	switch t {
	case TerminalExhausted:
		return "exhausted"
	case TerminalMaxRetries:
		return "max_retries_exceeded"
	case TerminalTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// LoaderConfig tunes the scroll loader for one deployment.
type LoaderConfig struct {
	// MaxStagnantPasses is how many consecutive passes may yield zero new
	// unique records before the list counts as exhausted.
	MaxStagnantPasses int

	// MaxBackoffRetries bounds consecutive throttled passes. The counter
	// resets on any successful load pass.
	MaxBackoffRetries int

	// Backoff shapes the delay between throttled passes.
	Backoff utils.Backoff

	// PassesPerSecond paces load passes; zero means unpaced.
	PassesPerSecond float64
}

// ScrollLoader drives a review panel to exhaustion. Each pass loads more
// content, extracts records, and filters them through a per-place
// deduplicator; stagnation detection decides when the list is done and a
// backoff policy absorbs throttling. Passes are strictly ordered: pass N+1
// never starts before pass N's records are extracted and deduplicated.
type ScrollLoader struct {
	cfg       LoaderConfig
	extractor *Extractor
	limiter   *rate.Limiter
	log       *zap.Logger
}

// NewScrollLoader creates a loader with the given tuning.
func NewScrollLoader(cfg LoaderConfig, extractor *Extractor) *ScrollLoader {
	if cfg.MaxStagnantPasses <= 0 {
		cfg.MaxStagnantPasses = 3
	}
	if cfg.MaxBackoffRetries < 0 {
		cfg.MaxBackoffRetries = 0
	}
	cfg.Backoff = cfg.Backoff.Normalize()

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.PassesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.PassesPerSecond), 1)
	}

	return &ScrollLoader{
		cfg:       cfg,
		extractor: extractor,
		limiter:   limiter,
		log:       zap.L().With(zap.String("component", "loader")),
	}
}

// Run loads the panel until it is exhausted, the retry budget is spent, or
// ctx ends. The returned records are unique and in first-seen order.
func (l *ScrollLoader) Run(ctx context.Context, panel Panel) ([]models.ReviewRecord, Terminal) {
	var (
		records  []models.ReviewRecord
		dedupe   = NewDeduplicator()
		stagnant = 0
		retries  = 0
		passes   = 0
	)

	for {
		if err := l.limiter.Wait(ctx); err != nil {
			return records, TerminalTimedOut
		}

		items, hasMore, err := panel.LoadMore(ctx)
		passes++

		if ctx.Err() != nil {
			l.log.Warn("place deadline reached mid-scroll",
				zap.Int("passes", passes),
				zap.Int("collected", len(records)),
			)
			return records, TerminalTimedOut
		}

		if err != nil {
			retries++
			if retries > l.cfg.MaxBackoffRetries {
				l.log.Warn("throttling outlasted retry budget",
					zap.Int("retries", retries-1),
					zap.Int("collected", len(records)),
				)
				return records, TerminalMaxRetries
			}
			l.log.Info("backing off",
				zap.Int("retry", retries),
				zap.Int("max_retries", l.cfg.MaxBackoffRetries),
				zap.Duration("delay", l.cfg.Backoff.Delay(retries-1)),
				zap.Error(err),
			)
			if !l.cfg.Backoff.Sleep(ctx, retries-1) {
				return records, TerminalTimedOut
			}
			continue
		}

		// A successful load pass resets the throttle budget.
		retries = 0

		extracted, dropped := l.extractor.Extract(items)
		fresh := dedupe.Dedupe(extracted)
		records = append(records, fresh...)

		l.log.Debug("load pass complete",
			zap.Int("pass", passes),
			zap.Int("raw", len(items)),
			zap.Int("dropped", dropped),
			zap.Int("new", len(fresh)),
			zap.Int("total", len(records)),
			zap.Bool("has_more", hasMore),
		)

		if len(fresh) == 0 {
			stagnant++
			if stagnant >= l.cfg.MaxStagnantPasses {
				l.log.Info("review list exhausted",
					zap.Int("passes", passes),
					zap.Int("total", len(records)),
				)
				return records, TerminalExhausted
			}
			continue
		}
		stagnant = 0
	}
}
