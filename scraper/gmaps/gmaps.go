package gmaps

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"maps-review-scraper/config"
	"maps-review-scraper/models"
	"maps-review-scraper/services"
	"maps-review-scraper/utils"
)

// Source opens Google Maps place pages in a shared headless browser. One
// Source owns one browser process; every OpenPage call gets its own tab.
type Source struct {
	cfg      *config.Config
	allocCtx context.Context
	cancels  []context.CancelFunc
	retry    utils.RetryConfig
	log      *zap.Logger
}

// New starts the browser allocator. Close must be called when scraping ends.
func New(cfg *config.Config) *Source {
	chromeBin := cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		// English UI so the date phrases and button labels are stable.
		chromedp.Flag("lang", "en-US"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	log := zap.L().With(zap.String("component", "gmaps"))
	log.Info("browser allocator ready", zap.String("binary", chromeBin))

	return &Source{
		cfg:      cfg,
		allocCtx: silentCtx,
		cancels:  []context.CancelFunc{cancelSilent, cancelAlloc},
		retry: utils.RetryConfig{
			MaxAttempts: cfg.MaxOpenRetries,
			Backoff:     utils.DefaultBackoff(),
		},
		log: log,
	}
}

// Close shuts the browser down.
func (s *Source) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// OpenPage navigates a fresh tab to a place URL and clears the consent
// interstitial when one appears. Navigation is retried on failure.
func (s *Source) OpenPage(ctx context.Context, url string) (services.PageSession, error) {
	tabCtx, cancelTab := chromedp.NewContext(s.allocCtx)

	err := s.retry.Do(ctx, "open place page", func(ctx context.Context) error {
		navCtx, cancel := context.WithTimeout(tabCtx,
			time.Duration(s.cfg.PageLoadTimeoutSec)*time.Second)
		defer cancel()

		if err := chromedp.Run(navCtx,
			chromedp.Navigate(url),
			chromedp.Sleep(4*time.Second),
		); err != nil {
			return eris.Wrap(err, "navigate")
		}

		s.acceptConsent(navCtx)
		return nil
	})
	if err != nil {
		cancelTab()
		return nil, err
	}

	return &pageSession{
		cfg:    s.cfg,
		tabCtx: tabCtx,
		cancel: cancelTab,
		url:    url,
		log:    s.log.With(zap.String("url", url)),
	}, nil
}

// acceptConsent submits the GDPR interstitial when present. Absence is the
// normal case outside the EU, so failures are only logged.
func (s *Source) acceptConsent(ctx context.Context) {
	var clicked bool
	err := chromedp.Run(ctx,
		chromedp.Evaluate(`
			(function() {
				var form = document.querySelector('form[action*="consent"]');
				if (form) {
					var btn = form.querySelector('button');
					if (btn) { btn.click(); return true; }
				}
				var buttons = document.querySelectorAll('button');
				for (var i = 0; i < buttons.length; i++) {
					var t = (buttons[i].textContent || '').toLowerCase();
					if (t.indexOf('accept all') !== -1 || t.indexOf('i agree') !== -1) {
						buttons[i].click();
						return true;
					}
				}
				return false;
			})()
		`, &clicked),
	)
	if err != nil {
		s.log.Debug("consent check failed", zap.Error(err))
		return
	}
	if clicked {
		s.log.Info("accepted consent interstitial")
		chromedp.Run(ctx, chromedp.Sleep(3*time.Second))
	}
}

// pageSession is one open place tab.
type pageSession struct {
	cfg    *config.Config
	tabCtx context.Context
	cancel context.CancelFunc
	url    string
	log    *zap.Logger
}

// LocatePanel opens the review list and returns a panel over its scrollable
// container. The place URL must point at a single place; search result pages
// have no review surface and fail with ErrPanelNotFound.
func (p *pageSession) LocatePanel(ctx context.Context) (services.Panel, error) {
	runCtx, cancel := context.WithTimeout(p.tabCtx,
		time.Duration(p.cfg.PageLoadTimeoutSec)*time.Second)
	defer cancel()

	var opened bool
	err := chromedp.Run(runCtx,
		// Open the Reviews tab, or the "More reviews" link on compact
		// layouts. Either one mounts the scrollable feed.
		chromedp.Evaluate(`
			(function() {
				var tabs = document.querySelectorAll('button[role="tab"]');
				for (var i = 0; i < tabs.length; i++) {
					var label = (tabs[i].getAttribute('aria-label') || tabs[i].textContent || '');
					if (/reviews/i.test(label)) {
						tabs[i].click();
						return true;
					}
				}
				var buttons = document.querySelectorAll('button, a');
				for (var j = 0; j < buttons.length; j++) {
					var t = (buttons[j].textContent || '');
					if (/more reviews/i.test(t)) {
						buttons[j].click();
						return true;
					}
				}
				return false;
			})()
		`, &opened),
		chromedp.Sleep(3*time.Second),
	)
	if err != nil {
		return nil, eris.Wrap(err, "gmaps: open review list")
	}

	var hasFeed bool
	err = chromedp.Run(runCtx,
		chromedp.Evaluate(`
			document.querySelector('div[role="feed"]') !== null ||
			document.querySelector('div[data-review-id]') !== null
		`, &hasFeed),
	)
	if err != nil {
		return nil, eris.Wrap(err, "gmaps: probe review feed")
	}
	if !hasFeed {
		return nil, services.ErrPanelNotFound
	}

	p.sortByNewest(runCtx)

	return &panel{
		cfg:    p.cfg,
		tabCtx: p.tabCtx,
		seen:   make(map[string]struct{}),
		log:    p.log,
	}, nil
}

// sortByNewest switches the review ordering. Best-effort: the default
// "most relevant" ordering still yields every review, just slower to
// stabilize.
func (p *pageSession) sortByNewest(ctx context.Context) {
	var sorted bool
	err := chromedp.Run(ctx,
		chromedp.Evaluate(`
			(function() {
				var buttons = document.querySelectorAll('button');
				for (var i = 0; i < buttons.length; i++) {
					var label = (buttons[i].getAttribute('aria-label') || '');
					if (/sort/i.test(label)) {
						buttons[i].click();
						return true;
					}
				}
				return false;
			})()
		`, &sorted),
		chromedp.Sleep(1*time.Second),
		chromedp.Evaluate(`
			(function() {
				var items = document.querySelectorAll('div[role="menuitemradio"], li[role="menuitemradio"]');
				for (var i = 0; i < items.length; i++) {
					if (/newest/i.test(items[i].textContent || '')) {
						items[i].click();
						return true;
					}
				}
				return false;
			})()
		`, &sorted),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil || !sorted {
		p.log.Debug("sort by newest unavailable", zap.Error(err))
	}
}

// Coordinates parses the position from the navigated URL. The pin parameters
// only appear after the page settles, so the live href beats the input URL.
func (p *pageSession) Coordinates(ctx context.Context) (models.Coordinates, bool) {
	runCtx, cancel := context.WithTimeout(p.tabCtx, 10*time.Second)
	defer cancel()

	var href string
	if err := chromedp.Run(runCtx, chromedp.Location(&href)); err == nil {
		if c, ok := parseCoordinates(href); ok {
			return c, true
		}
	}
	return parseCoordinates(p.url)
}

func (p *pageSession) Close() error {
	p.cancel()
	return nil
}

// rawItem mirrors the JS harvest payload.
type rawItem struct {
	ID   string `json:"id"`
	HTML string `json:"html"`
}

// panel drives the review feed. It remembers which review ids it already
// handed out so each pass returns only containers revealed since the last.
type panel struct {
	cfg    *config.Config
	tabCtx context.Context
	seen   map[string]struct{}

	lastHeight float64
	everLoaded bool
	log        *zap.Logger
}

// LoadMore performs one scroll pass: expand truncated comments, scroll the
// feed to its bottom, then harvest every rendered review container. A pass
// that overruns its own deadline returns no items and no error; the caller's
// stagnation counting absorbs it.
func (p *panel) LoadMore(ctx context.Context) ([]models.RawReview, bool, error) {
	passCtx, cancel := context.WithTimeout(p.tabCtx,
		time.Duration(p.cfg.PassTimeoutSec)*time.Second)
	defer cancel()

	var harvested []rawItem
	var height float64

	err := chromedp.Run(passCtx,
		chromedp.Evaluate(`
			(function() {
				var more = document.querySelectorAll('button[aria-expanded="false"], button.w8nwRe');
				for (var i = 0; i < more.length; i++) {
					if (/more/i.test(more[i].textContent || '')) more[i].click();
				}
			})()
		`, nil),
		chromedp.Evaluate(`
			(function() {
				var feed = document.querySelector('div[role="feed"]');
				if (!feed) {
					var item = document.querySelector('div[data-review-id]');
					if (item) feed = item.parentElement;
				}
				if (feed) feed.scrollTop = feed.scrollHeight;
				window.scrollTo(0, document.body.scrollHeight);
			})()
		`, nil),
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.Evaluate(`
			(function() {
				var out = [];
				var seen = {};
				var nodes = document.querySelectorAll('div[data-review-id]');
				for (var i = 0; i < nodes.length; i++) {
					var id = nodes[i].getAttribute('data-review-id');
					if (!id || seen[id]) continue;
					seen[id] = true;
					out.push({id: id, html: nodes[i].outerHTML});
				}
				return out;
			})()
		`, &harvested),
		chromedp.Evaluate(`
			(function() {
				var feed = document.querySelector('div[role="feed"]');
				return feed ? feed.scrollHeight : document.body.scrollHeight;
			})()
		`, &height),
	)

	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		if errors.Is(passCtx.Err(), context.DeadlineExceeded) {
			// Slow pass, not a failure. Count it as stagnation.
			p.log.Debug("load pass overran its deadline")
			return nil, true, nil
		}
		return nil, false, eris.Wrap(err, "gmaps: load pass")
	}

	// An empty render after reviews had been flowing is the throttle tell:
	// the feed unmounts its items while the block lasts.
	if len(harvested) == 0 && p.everLoaded {
		return nil, true, services.ErrThrottled
	}
	if len(harvested) > 0 {
		p.everLoaded = true
	}

	var fresh []models.RawReview
	for _, item := range harvested {
		if _, ok := p.seen[item.ID]; ok {
			continue
		}
		p.seen[item.ID] = struct{}{}
		fresh = append(fresh, models.RawReview{ID: item.ID, HTML: item.HTML})
	}

	hasMore := height > p.lastHeight || len(fresh) > 0
	p.lastHeight = height

	return fresh, hasMore, nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
