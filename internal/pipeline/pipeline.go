// Package pipeline ties the listing sources, the matcher and the
// aggregator into one run: four channels in, per-channel listings and
// stats out, plus one recent-sales summary over the merged sold channels.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/guarzo/cardcomps/internal/collector"
	"github.com/guarzo/cardcomps/internal/ebay"
	"github.com/guarzo/cardcomps/internal/match"
	"github.com/guarzo/cardcomps/internal/model"
	"github.com/guarzo/cardcomps/internal/stats"
)

// Mode selects the matching strategy for one run.
type Mode int

const (
	ModeStrict Mode = iota
	ModeFuzzy
)

// Options tune one run. The zero value is strict matching with default
// recent-sales depth.
type Options struct {
	Mode           Mode
	FuzzyThreshold float64 // 0 selects match.DefaultFuzzyThreshold
	RecentSales    int     // 0 selects stats.DefaultRecentSales
}

// ChannelResult is one channel's outcome. Err set with listings present
// means degraded (truncated); Err set with no listings means the channel
// failed outright; callers must not render that as "no results".
type ChannelResult struct {
	Channel  model.Channel
	Listings []model.Listing
	Stats    model.StatsSummary
	Err      error
}

// MarshalJSON flattens Err into its message: error values carry no
// exported fields, so without this a failed channel would serialize as an
// empty object and downstream consumers could not see why it failed.
func (r *ChannelResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Channel  model.Channel      `json:"channel"`
		Listings []model.Listing    `json:"listings"`
		Stats    model.StatsSummary `json:"stats"`
		Error    string             `json:"error,omitempty"`
	}{
		Channel:  r.Channel,
		Listings: r.Listings,
		Stats:    r.Stats,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Failed reports whether this channel produced nothing because of an error.
func (r *ChannelResult) Failed() bool {
	return r.Err != nil && len(r.Listings) == 0
}

// Degraded reports whether this channel truncated early but still carries
// usable listings.
func (r *ChannelResult) Degraded() bool {
	return r.Err != nil && len(r.Listings) > 0
}

// Result is the outcome of one full run.
type Result struct {
	Channels    map[model.Channel]*ChannelResult
	RecentSales *model.RecentSalesSummary
	SoldPoints  []model.PricePoint
}

// Failed reports whether every channel failed, which the caller should
// present as a query failure rather than an empty result set.
func (r *Result) Failed() bool {
	for _, ch := range r.Channels {
		if !ch.Failed() {
			return false
		}
	}
	return true
}

// Runner executes searches against both listing sources.
type Runner struct {
	active ebay.Provider
	sold   *collector.Collector
	opts   Options
}

// New builds a runner. Either source may be nil, in which case its
// channels come back failed with a configuration error.
func New(active ebay.Provider, sold *collector.Collector, opts Options) *Runner {
	return &Runner{active: active, sold: sold, opts: opts}
}

// SearchTerm folds the query fields into the free-text term both sources
// are searched with.
func SearchTerm(q model.Query) string {
	fields := []string{q.CardName, q.SetName, q.Grade, q.CardNumber}
	var parts []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// Run fetches all four channels, filters each against the query and
// aggregates. The two active fetches and the sold scrape proceed
// independently; no failure in one blocks another.
func (r *Runner) Run(ctx context.Context, q model.Query) *Result {
	term := SearchTerm(q)

	var (
		wg         sync.WaitGroup
		auc, bin   []model.Listing
		aucErr     error
		binErr     error
		soldResult *collector.SoldResult
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		auc, aucErr = r.searchActive(ctx, term, ebay.BuyingAuction)
	}()
	go func() {
		defer wg.Done()
		bin, binErr = r.searchActive(ctx, term, ebay.BuyingFixedPrice)
	}()
	go func() {
		defer wg.Done()
		soldResult = r.collectSold(ctx, term)
	}()
	wg.Wait()

	result := &Result{Channels: make(map[model.Channel]*ChannelResult, 4)}
	aucResult, _ := r.finishChannel(model.ChannelActiveAuction, auc, q, aucErr)
	binResult, _ := r.finishChannel(model.ChannelActiveBIN, bin, q, binErr)
	result.Channels[model.ChannelActiveAuction] = aucResult
	result.Channels[model.ChannelActiveBIN] = binResult

	soldAuc, soldAucPre := r.finishChannel(model.ChannelSoldAuction, soldResult.Auction, q, soldResult.AuctionErr)
	soldBin, soldBinPre := r.finishChannel(model.ChannelSoldBIN, soldResult.BIN, q, soldResult.BINErr)
	result.Channels[model.ChannelSoldAuction] = soldAuc
	result.Channels[model.ChannelSoldBIN] = soldBin

	// Recent sales walk the merged sold channels in collection order,
	// before the display sort: first N encountered, by contract.
	merged := append(append([]model.Listing{}, soldAucPre...), soldBinPre...)
	result.RecentSales = stats.RecentSales(merged, r.opts.RecentSales)
	result.SoldPoints = stats.PricePoints(merged)

	return result
}

func (r *Runner) searchActive(ctx context.Context, term string, option ebay.BuyingOption) ([]model.Listing, error) {
	if r.active == nil || !r.active.Available() {
		return nil, fmt.Errorf("active listing source not configured")
	}
	listings, err := r.active.SearchActive(ctx, term, option)
	if err != nil {
		log.Printf("pipeline: active %s search failed: %v", option, err)
		return nil, err
	}
	return listings, nil
}

func (r *Runner) collectSold(ctx context.Context, term string) *collector.SoldResult {
	if r.sold == nil {
		err := fmt.Errorf("sold listing source not configured")
		return &collector.SoldResult{AuctionErr: err, BINErr: err}
	}
	return r.sold.CollectSold(ctx, term)
}

// finishChannel filters, aggregates and orders one channel's listings.
// The second return value is the filtered collection before the display
// sort, which the recent-sales walk depends on.
func (r *Runner) finishChannel(channel model.Channel, listings []model.Listing, q model.Query, err error) (*ChannelResult, []model.Listing) {
	filtered := r.filter(listings, q)

	ordered := filtered
	if channel.Sold() {
		ordered = stats.SortByDateDesc(filtered)
	}

	return &ChannelResult{
		Channel:  channel,
		Listings: ordered,
		Stats:    stats.Summarize(filtered),
		Err:      err,
	}, filtered
}

func (r *Runner) filter(listings []model.Listing, q model.Query) []model.Listing {
	switch r.opts.Mode {
	case ModeFuzzy:
		return match.Fuzzy(listings, q, r.opts.FuzzyThreshold)
	default:
		return match.Strict(listings, q)
	}
}
