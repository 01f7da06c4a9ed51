// Package collector turns raw scraped fragments into normalized listings,
// fanning the page fetcher out across the sold channel's two query
// variants and merging the results.
package collector

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/guarzo/cardcomps/internal/extract"
	"github.com/guarzo/cardcomps/internal/model"
)

const (
	soldSearchBase = "https://www.ebay.com/sch/i.html"

	// DefaultSortOrder is the listing sort the sold search is issued with
	// (12 = most recently ended first).
	DefaultSortOrder = 12

	// DefaultMaxPages bounds pagination per variant.
	DefaultMaxPages = 3
)

// FragmentSource is the page-fetching capability the collector drives.
// Both the browser session fetcher and the static HTTP fetcher satisfy it.
type FragmentSource interface {
	Collect(ctx context.Context, url string, maxPages int) ([]model.RawFragment, error)
}

// Config tunes one collection run.
type Config struct {
	SortOrder int
	MaxPages  int
}

// DefaultConfig returns the values the CLI runs with.
func DefaultConfig() Config {
	return Config{SortOrder: DefaultSortOrder, MaxPages: DefaultMaxPages}
}

// Collector orchestrates sold-listing collection over a FragmentSource.
type Collector struct {
	source FragmentSource
	cfg    Config
}

// New builds a collector. Zero config fields fall back to defaults.
func New(source FragmentSource, cfg Config) *Collector {
	if cfg.SortOrder == 0 {
		cfg.SortOrder = DefaultSortOrder
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &Collector{source: source, cfg: cfg}
}

// SoldResult carries the merged outcome of one sold-channel run. A non-nil
// variant error marks that variant's listings as degraded (truncated), not
// failed: whatever was collected before the failure is still present.
type SoldResult struct {
	Auction    []model.Listing
	BIN        []model.Listing
	AuctionErr error
	BINErr     error
}

// Degraded reports whether either variant truncated early.
func (r *SoldResult) Degraded() bool {
	return r.AuctionErr != nil || r.BINErr != nil
}

// Failed reports whether the run produced nothing and both variants
// errored, which callers should present as a query failure rather than an
// empty result.
func (r *SoldResult) Failed() bool {
	return len(r.Auction) == 0 && len(r.BIN) == 0 &&
		r.AuctionErr != nil && r.BINErr != nil
}

// CollectSold runs the fetcher once per query variant (auction, fixed
// price) and converts every fragment through the extractors. The variants
// are independent: a failure in one never blocks the other.
func (c *Collector) CollectSold(ctx context.Context, query string) *SoldResult {
	base := SoldSearchURL(query, c.cfg.SortOrder)

	result := &SoldResult{}
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		result.Auction, result.AuctionErr = c.collectVariant(ctx, base+"&LH_Auction=1")
	}()
	go func() {
		defer wg.Done()
		result.BIN, result.BINErr = c.collectVariant(ctx, base+"&LH_BIN=1")
	}()
	wg.Wait()

	if result.AuctionErr != nil {
		log.Printf("collector: auction variant degraded: %v", result.AuctionErr)
	}
	if result.BINErr != nil {
		log.Printf("collector: fixed-price variant degraded: %v", result.BINErr)
	}
	return result
}

func (c *Collector) collectVariant(ctx context.Context, url string) ([]model.Listing, error) {
	fragments, err := c.source.Collect(ctx, url, c.cfg.MaxPages)

	listings := make([]model.Listing, 0, len(fragments))
	for _, frag := range fragments {
		listing, ok := ListingFromFragment(frag)
		if !ok {
			continue
		}
		listings = append(listings, listing)
	}
	if err != nil {
		return listings, fmt.Errorf("sold variant: %w", err)
	}
	return listings, nil
}

// ListingFromFragment normalizes one fragment. It returns ok=false when the
// fragment carries no evidentiary value: no numeric item identifier in its
// link means no resolvable URL, and a record with neither price nor URL
// must never enter aggregation. Field-level parse failures (price, date)
// stay local and leave the field absent.
func ListingFromFragment(frag model.RawFragment) (model.Listing, bool) {
	id, canonicalURL, ok := extract.ItemID(frag.Link)
	if !ok {
		return model.Listing{}, false
	}

	listing := model.Listing{
		ID:     id,
		Title:  extract.Title(frag.Title),
		URL:    canonicalURL,
		Seller: frag.Seller,
	}
	if price, ok := extract.Price(frag.PriceText); ok {
		listing.Price = &price
	}
	if date, ok := extract.Date(frag.SoldDate); ok {
		listing.Date = date
	}
	return listing, true
}

// SoldSearchURL builds the completed-sales search URL for a free-text
// query. Variant filters are appended by the caller.
func SoldSearchURL(query string, sortOrder int) string {
	return fmt.Sprintf("%s?_nkw=%s&LH_Sold=1&LH_Complete=1&_sop=%d",
		soldSearchBase, url.QueryEscape(query), sortOrder)
}
