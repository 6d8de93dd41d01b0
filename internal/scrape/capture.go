package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/cellar-app/cellar/internal/source"
)

// DefaultCardSelector matches the product tiles of common storefront themes.
const DefaultCardSelector = `[data-testid="product-card"], .product-card, .wine-card, li.product`

// Config controls a Capturer.
type Config struct {
	UserAgent         string
	CardSelector      string
	Timeout           time.Duration
	RequestsPerMinute int
	// Concurrency caps the tabs rendering at once. The rate limit still
	// applies across all of them.
	Concurrency int
	// ExecPath overrides the browser binary chromedp would locate.
	ExecPath string
}

// Capturer renders pages in headless Chrome and reads their wine cards.
type Capturer struct {
	cfg     Config
	limiter *rate.Limiter
	log     *zap.Logger
	now     func() time.Time
}

// NewCapturer creates a Capturer. Zero config values fall back to defaults.
func NewCapturer(cfg Config) *Capturer {
	if cfg.CardSelector == "" {
		cfg.CardSelector = DefaultCardSelector
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Capturer{
		cfg:     cfg,
		limiter: newLimiter(cfg.RequestsPerMinute),
		log:     zap.L().With(zap.String("component", "scrape.capture")),
		now:     time.Now,
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// Capture renders the URLs, up to Concurrency at a time, and returns one
// snapshot per page that yielded cards, in URL order. Pages that fail or are
// blocked are logged and skipped; an error is returned only when no page
// succeeded.
func (c *Capturer) Capture(ctx context.Context, urls []string) ([]source.Snapshot, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.cfg.UserAgent))
	}
	if c.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	defer cancelBrowser()

	// Start the browser before tabs are opened from it concurrently.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, eris.Wrap(err, "scrape: start browser")
	}

	pages := make([]*source.Snapshot, len(urls))
	pageErrs := make([]error, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			if err := c.limiter.Wait(gctx); err != nil {
				return eris.Wrap(err, "scrape: rate limiter")
			}

			snap, err := c.capturePage(browserCtx, u)
			if err != nil {
				c.log.Warn("scrape: page failed", zap.String("url", u), zap.Error(err))
				pageErrs[i] = err
				return nil // one bad page does not stop the others
			}
			c.log.Info("scrape: page captured", zap.String("url", u), zap.Int("wines", len(snap.Wines)))
			pages[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var snaps []source.Snapshot
	for _, p := range pages {
		if p != nil {
			snaps = append(snaps, *p)
		}
	}
	if len(snaps) == 0 {
		return nil, eris.Wrap(errors.Join(pageErrs...), "scrape: no pages captured")
	}
	return snaps, nil
}

func (c *Capturer) capturePage(browserCtx context.Context, pageURL string) (*source.Snapshot, error) {
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.cfg.Timeout)
	defer cancelTimeout()

	var (
		title string
		text  string
		cards []Card
	)
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(time.Second),
		chromedp.Title(&title),
		chromedp.Evaluate(`document.body ? document.body.innerText.slice(0, 5000) : ""`, &text),
		chromedp.Evaluate(cardScript(c.cfg.CardSelector), &cards),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: render %s", pageURL)
	}

	if len(cards) == 0 {
		if blocked, bt := DetectBlock(title, text); blocked {
			return nil, eris.Errorf("scrape: blocked (%s) at %s", bt, pageURL)
		}
		return nil, eris.Errorf("scrape: no cards matched %q at %s", c.cfg.CardSelector, pageURL)
	}

	recs := ParseCards(cards)
	snap := &source.Snapshot{URL: pageURL, CapturedAt: c.now().UTC()}
	for _, rec := range recs {
		snap.Wines = append(snap.Wines, source.RecordMap(rec))
	}
	return snap, nil
}

// cardScript builds the page-side extraction for selector. Named child
// elements are preferred; otherwise the card's text lines are scanned.
func cardScript(selector string) string {
	sel, _ := json.Marshal(selector)
	return fmt.Sprintf(`(function(sel) {
	var out = [];
	document.querySelectorAll(sel).forEach(function(card) {
		var text = function(q) {
			var el = card.querySelector(q);
			return el ? el.innerText.trim() : "";
		};
		var lines = card.innerText.split("\n").map(function(l) { return l.trim(); }).filter(Boolean);
		var find = function(re) { return lines.find(function(l) { return re.test(l); }) || ""; };
		var img = card.querySelector("img");
		var link = card.querySelector("a[href]");
		out.push({
			title: text("[data-wine-name], .wine-name, .product-title, h2, h3") || lines[0] || "",
			vineyard: text("[data-winery], .winery, .vineyard, .producer"),
			varietal: text("[data-varietal], .varietal, .grape"),
			region: text("[data-region], .region, .appellation"),
			country: text("[data-country], .country"),
			price: text("[data-price], .price") || find(/[$€£]\s*\d/),
			rating: text("[data-rating], .rating") || find(/^[0-5]\.\d/),
			reviews: text("[data-reviews], .reviews, .rating-count") || find(/\d\s*(ratings?|reviews?)/i),
			image: img ? img.src : "",
			url: link ? link.href : ""
		});
	});
	return out;
})(%s)`, sel)
}
