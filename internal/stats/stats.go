// Package stats reduces filtered listing collections into the summary
// numbers and display-ready orderings the presentation layer consumes.
package stats

import (
	"fmt"
	"sort"

	"github.com/guarzo/cardcomps/internal/model"
)

// DefaultRecentSales is how many of the most recently encountered sold
// observations feed the recent-sales average.
const DefaultRecentSales = 5

// Summarize computes count, average, minimum and maximum over the listings
// that carry a valid price. Zero priced listings yield "0.00" across the
// board with zero data points, never a division error.
func Summarize(listings []model.Listing) model.StatsSummary {
	var (
		count int
		sum   float64
		low   float64
		high  float64
	)
	for _, l := range listings {
		if !l.HasPrice() {
			continue
		}
		price := l.PriceValue()
		if count == 0 || price < low {
			low = price
		}
		if count == 0 || price > high {
			high = price
		}
		sum += price
		count++
	}

	if count == 0 {
		return model.StatsSummary{Average: "0.00", Lowest: "0.00", Highest: "0.00"}
	}
	return model.StatsSummary{
		Average:    fmt.Sprintf("%.2f", sum/float64(count)),
		Lowest:     fmt.Sprintf("%.2f", low),
		Highest:    fmt.Sprintf("%.2f", high),
		DataPoints: count,
	}
}

// Priced returns only the listings carrying a valid price, in order.
func Priced(listings []model.Listing) []model.Listing {
	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if l.HasPrice() {
			out = append(out, l)
		}
	}
	return out
}

// SortByDateDesc orders dated listings most recent first. Listings without
// a date are unorderable: each keeps its encountered position while the
// dated ones sort around it. Ties keep their relative input order.
func SortByDateDesc(listings []model.Listing) []model.Listing {
	out := make([]model.Listing, len(listings))
	copy(out, listings)

	var positions []int
	var dated []model.Listing
	for i, l := range out {
		if l.Date != "" {
			positions = append(positions, i)
			dated = append(dated, l)
		}
	}

	// ISO dates compare correctly as strings.
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Date > dated[j].Date
	})
	for k, pos := range positions {
		out[pos] = dated[k]
	}
	return out
}

// RecentSales averages the first n listings, in collection order, that
// have both a valid price and a valid date. This is deliberately "first n
// encountered", not "n most recent": the walk happens before the date
// sort. Returns nil when no sold observation qualifies. n <= 0 selects
// DefaultRecentSales.
func RecentSales(listings []model.Listing, n int) *model.RecentSalesSummary {
	if n <= 0 {
		n = DefaultRecentSales
	}

	var sum float64
	count := 0
	for _, l := range listings {
		if count == n {
			break
		}
		if !l.HasPrice() || l.Date == "" {
			continue
		}
		sum += l.PriceValue()
		count++
	}
	if count == 0 {
		return nil
	}
	return &model.RecentSalesSummary{
		Average: fmt.Sprintf("%.2f", sum/float64(count)),
		Count:   count,
	}
}

// PricePoints projects sold listings into chronological date/price pairs
// for the external charting layer. Undated or unpriced listings contribute
// nothing.
func PricePoints(listings []model.Listing) []model.PricePoint {
	points := make([]model.PricePoint, 0, len(listings))
	for _, l := range listings {
		if l.Date == "" || !l.HasPrice() {
			continue
		}
		points = append(points, model.PricePoint{Date: l.Date, Price: l.PriceValue()})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}
