package scrape

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/guarzo/cardcomps/internal/model"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maskScript makes the headless session report itself as a regular browser.
const maskScript = `Object.defineProperty(navigator, 'webdriver', { get: () => false })`

// fragmentScript reads every listing element in the page. Each field falls
// through a chain of selectors because eBay serves two card layouts; a
// missing sub-element becomes an empty string.
const fragmentScript = `
(function() {
	var items = document.querySelectorAll('.s-item, .su-card-container');
	var out = [];
	items.forEach(function(item) {
		var get = function(sel) {
			var el = item.querySelector(sel);
			return el && el.textContent ? el.textContent.trim() : '';
		};
		var getAttr = function(sel, attr) {
			var el = item.querySelector(sel);
			return el ? (el.getAttribute(attr) || '') : '';
		};
		out.push({
			title: get('.s-item__title span') ||
				get('.s-card__title span') ||
				get('[data-testid="item-title"]') ||
				get('.s-item__title') ||
				getAttr('a.su-link', 'aria-label'),
			priceText: get('.s-item__price') || get('.s-card__price'),
			soldDate: get('.s-item__ended-date') ||
				get('.s-item__title--tagblock span') ||
				get('.su-styled-text.positive.default') ||
				get('.s-card__caption .su-styled-text'),
			link: getAttr('.s-item__link', 'href') ||
				getAttr('a.su-link[href*="/itm/"]', 'href'),
			seller: get('.s-item__detail.s-item__detail--secondary .s-item__etrs-text span.PRIMARY') ||
				get('.su-card-container__attributes__secondary .su-styled-text.primary.large')
		});
	});
	return out;
})()`

const hasNextScript = `document.querySelector('a.pagination__next') !== null`

// ChromeConfig configures a live browser session.
type ChromeConfig struct {
	Headless  bool
	UserAgent string
	ExecPath  string // empty means auto-detect
}

// DefaultChromeConfig returns the settings the CLI runs with.
func DefaultChromeConfig() ChromeConfig {
	return ChromeConfig{
		Headless:  true,
		UserAgent: defaultUserAgent,
	}
}

// ChromeSession implements Session on top of a chromedp-driven browser.
type ChromeSession struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

var _ Session = (*ChromeSession)(nil)

// NewChromeSession launches a browser tab ready to render search pages.
// The caller owns the session and must Close it on every exit path.
func NewChromeSession(ctx context.Context, cfg ChromeConfig) (*ChromeSession, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	execPath := cfg.ExecPath
	if execPath == "" {
		execPath = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelCtx := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser process now so a broken environment surfaces as
	// ErrSessionStart instead of a timeout on the first page.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", ErrSessionStart, err)
	}

	return &ChromeSession{ctx: tabCtx, cancelCtx: cancelCtx, cancelAlloc: cancelAlloc}, nil
}

// Navigate loads the URL and waits for the listing container.
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.bound(ctx, WaitTimeout+30*time.Second)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Evaluate(maskScript, nil),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return s.waitListings(ctx)
}

// Fragments evaluates the extraction script against the current page.
func (s *ChromeSession) Fragments(ctx context.Context) ([]model.RawFragment, error) {
	runCtx, cancel := s.bound(ctx, 30*time.Second)
	defer cancel()

	var raw []struct {
		Title     string `json:"title"`
		PriceText string `json:"priceText"`
		SoldDate  string `json:"soldDate"`
		Link      string `json:"link"`
		Seller    string `json:"seller"`
	}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(fragmentScript, &raw)); err != nil {
		return nil, fmt.Errorf("evaluate fragments: %w", err)
	}

	fragments := make([]model.RawFragment, 0, len(raw))
	for _, r := range raw {
		fragments = append(fragments, model.RawFragment{
			Title:     r.Title,
			PriceText: r.PriceText,
			SoldDate:  r.SoldDate,
			Link:      r.Link,
			Seller:    r.Seller,
		})
	}
	return fragments, nil
}

// NextPage clicks the pagination control when present and waits for the
// next page's listing container.
func (s *ChromeSession) NextPage(ctx context.Context) (bool, error) {
	runCtx, cancel := s.bound(ctx, 60*time.Second)
	defer cancel()

	var hasNext bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(hasNextScript, &hasNext)); err != nil {
		return false, fmt.Errorf("check pagination: %w", err)
	}
	if !hasNext {
		return false, nil
	}

	if err := chromedp.Run(runCtx, chromedp.Click(NextPageSelector, chromedp.ByQuery)); err != nil {
		return false, fmt.Errorf("click next page: %w", err)
	}
	if err := s.waitListings(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the tab and the browser process.
func (s *ChromeSession) Close() error {
	s.cancelCtx()
	s.cancelAlloc()
	return nil
}

// waitListings blocks until the listing container is visible or WaitTimeout
// elapses, which counts as a hard failure for the page.
func (s *ChromeSession) waitListings(ctx context.Context) error {
	runCtx, cancel := s.bound(ctx, WaitTimeout)
	defer cancel()

	err := chromedp.Run(runCtx, chromedp.WaitVisible(ListingSelector, chromedp.ByQuery))
	if err != nil {
		if runCtx.Err() != nil {
			return fmt.Errorf("%w after %s", ErrPageTimeout, WaitTimeout)
		}
		return fmt.Errorf("wait for listings: %w", err)
	}
	return nil
}

// bound derives a run context honoring both the caller's cancellation and
// the session tab, with an explicit upper bound. Indefinite waits are a
// defect here.
func (s *ChromeSession) bound(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	runCtx := s.ctx
	if ctx != nil {
		// Propagate caller cancellation into the tab context.
		var cancelCause context.CancelFunc
		runCtx, cancelCause = mergeCancel(s.ctx, ctx)
		boundCtx, cancelBound := context.WithTimeout(runCtx, d)
		return boundCtx, func() { cancelBound(); cancelCause() }
	}
	return context.WithTimeout(runCtx, d)
}

// mergeCancel returns a child of primary that is also canceled when
// secondary is done. chromedp requires its own context as the parent.
func mergeCancel(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(primary)
	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-merged.Done():
		}
	}()
	return merged, cancel
}

// findChromeBinary locates a Chrome/Chromium binary, preferring CHROME_BIN.
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
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
