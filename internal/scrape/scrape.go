// Package scrape drives a rendered search-results page and reads raw
// listing fragments from it. The browser engine sits behind the Session
// interface so everything downstream can be tested on synthetic fragments.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/guarzo/cardcomps/internal/extract"
	"github.com/guarzo/cardcomps/internal/model"
)

const (
	// ListingSelector matches both page layouts eBay currently serves.
	ListingSelector = ".s-item, .su-card-container"

	// NextPageSelector is the pagination control on both layouts.
	NextPageSelector = "a.pagination__next"

	// WaitTimeout bounds how long a page may take to render its listing
	// container before the page counts as failed.
	WaitTimeout = 15 * time.Second
)

var (
	// ErrSessionStart means the scrape session could not be brought up at
	// all. Nothing was collected; callers should report a hard failure.
	ErrSessionStart = errors.New("scrape: session start failed")

	// ErrPageTimeout means the listing container never became visible
	// within WaitTimeout for one page.
	ErrPageTimeout = errors.New("scrape: listing container timeout")
)

// Session is the capability a fetcher needs from a browser automation
// engine: render a URL, wait until listings are visible, read the raw
// fragments, advance one page. Close must release the underlying handle on
// every exit path.
type Session interface {
	// Navigate loads the URL and blocks until the listing container is
	// visible or the wait bound elapses.
	Navigate(ctx context.Context, url string) error

	// Fragments reads every listing element currently in the page. A
	// missing sub-element yields an empty field, never an error for that
	// one element.
	Fragments(ctx context.Context) ([]model.RawFragment, error)

	// NextPage activates the next-page control and re-waits for the
	// listing container. It returns false when no such control exists.
	NextPage(ctx context.Context) (bool, error)

	Close() error
}

// Fetcher walks a paginated search-results URL through a Session and
// accumulates raw fragments in strict page order.
//
// A Session is one browser tab, and a tab renders one page at a time.
// Collect therefore serializes: when both sold variants share a fetcher,
// the second walk starts only after the first has finished, so neither
// ever reads the other's page.
type Fetcher struct {
	session Session
	debug   bool
	mu      sync.Mutex

	// OnPage, when set, is called after each page with the number of
	// fragments kept from it.
	OnPage func(kept int)
}

// NewFetcher wraps a live session.
func NewFetcher(session Session) *Fetcher {
	return &Fetcher{session: session}
}

// SetDebug enables page-by-page logging.
func (f *Fetcher) SetDebug(debug bool) {
	f.debug = debug
}

// Collect fetches up to maxPages pages starting at url and returns the
// fragments of every real listing seen, page 1 first.
//
// A failure mid-scrape does not discard what was already collected: the
// partial result comes back together with the error so the caller can
// treat the outcome as degraded rather than failed.
func (f *Fetcher) Collect(ctx context.Context, url string, maxPages int) ([]model.RawFragment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var collected []model.RawFragment

	if err := f.session.Navigate(ctx, url); err != nil {
		return collected, fmt.Errorf("page 1: %w", err)
	}

	for page := 1; page <= maxPages; page++ {
		fragments, err := f.session.Fragments(ctx)
		if err != nil {
			return collected, fmt.Errorf("page %d: read fragments: %w", page, err)
		}

		kept := 0
		for _, frag := range fragments {
			if !realListing(frag) {
				continue
			}
			collected = append(collected, frag)
			kept++
		}
		if f.debug {
			log.Printf("scrape: page %d: %d fragments, %d kept", page, len(fragments), kept)
		}
		if f.OnPage != nil {
			f.OnPage(kept)
		}

		if page == maxPages {
			break
		}
		advanced, err := f.session.NextPage(ctx)
		if err != nil {
			return collected, fmt.Errorf("page %d: advance: %w", page, err)
		}
		if !advanced {
			break
		}
	}

	return collected, nil
}

// realListing filters out promotional placeholders: elements with no usable
// title, or whose title is itself rendering boilerplate.
func realListing(frag model.RawFragment) bool {
	title := extract.Title(frag.Title)
	if title == "" {
		return false
	}
	if strings.Contains(strings.ToLower(title), "shop on ebay") {
		return false
	}
	return frag.PriceText != "" || frag.Link != ""
}
