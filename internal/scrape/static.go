package scrape

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"

	"github.com/guarzo/cardcomps/internal/model"
)

// StaticFetcher reads search-results pages over plain HTTP and parses the
// server-rendered markup with goquery. It covers environments without a
// browser binary; the rendered layouts it understands are the same two the
// browser path reads.
type StaticFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	debug     bool

	// OnPage, when set, is called after each page with the number of
	// fragments kept from it.
	OnPage func(kept int)
}

// NewStaticFetcher builds a fetcher pacing itself at one request per second.
func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{
		client: &http.Client{
			Timeout: WaitTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		userAgent: defaultUserAgent,
	}
}

// SetDebug enables per-page logging.
func (f *StaticFetcher) SetDebug(debug bool) {
	f.debug = debug
}

// Collect fetches up to maxPages pages starting at pageURL, following the
// pagination link between pages. Partial results come back with the error
// that stopped the walk.
func (f *StaticFetcher) Collect(ctx context.Context, pageURL string, maxPages int) ([]model.RawFragment, error) {
	var collected []model.RawFragment

	current := pageURL
	for page := 1; page <= maxPages; page++ {
		doc, err := f.fetchDocument(ctx, current)
		if err != nil {
			return collected, fmt.Errorf("page %d: %w", page, err)
		}

		fragments := parseDocument(doc)
		kept := 0
		for _, frag := range fragments {
			if !realListing(frag) {
				continue
			}
			collected = append(collected, frag)
			kept++
		}
		if f.debug {
			log.Printf("scrape: static page %d: %d fragments, %d kept", page, len(fragments), kept)
		}
		if f.OnPage != nil {
			f.OnPage(kept)
		}

		next, ok := nextPageURL(doc, current)
		if !ok || page == maxPages {
			break
		}
		current = next
	}

	return collected, nil
}

func (f *StaticFetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, WaitTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", ErrPageTimeout, err)
		}
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// parseDocument extracts one RawFragment per listing element, taking the
// first non-empty value from each field's selector chain.
func parseDocument(doc *goquery.Document) []model.RawFragment {
	var fragments []model.RawFragment

	doc.Find(ListingSelector).Each(func(_ int, item *goquery.Selection) {
		title := firstText(item,
			".s-item__title span",
			".s-card__title span",
			`[data-testid="item-title"]`,
			".s-item__title",
		)
		if title == "" {
			title, _ = item.Find("a.su-link").Attr("aria-label")
			title = strings.TrimSpace(title)
		}

		link := firstAttr(item, "href",
			".s-item__link",
			`a.su-link[href*="/itm/"]`,
		)

		fragments = append(fragments, model.RawFragment{
			Title:     title,
			PriceText: firstText(item, ".s-item__price", ".s-card__price"),
			SoldDate: firstText(item,
				".s-item__ended-date",
				".s-item__title--tagblock span",
				".su-styled-text.positive.default",
				".s-card__caption .su-styled-text",
			),
			Link: link,
			Seller: firstText(item,
				".s-item__detail.s-item__detail--secondary .s-item__etrs-text span.PRIMARY",
				".su-card-container__attributes__secondary .su-styled-text.primary.large",
			),
		})
	})

	return fragments
}

func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		if text := strings.TrimSpace(sel.Find(s).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(sel *goquery.Selection, attr string, selectors ...string) string {
	for _, s := range selectors {
		if v, ok := sel.Find(s).First().Attr(attr); ok && v != "" {
			return v
		}
	}
	return ""
}

// nextPageURL resolves the pagination link relative to the current page.
func nextPageURL(doc *goquery.Document, current string) (string, bool) {
	href, ok := doc.Find(NextPageSelector).First().Attr("href")
	if !ok || href == "" {
		return "", false
	}
	base, err := url.Parse(current)
	if err != nil {
		return href, true
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
