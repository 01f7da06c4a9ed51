// Package report renders search results to CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/guarzo/cardcomps/internal/model"
	"github.com/guarzo/cardcomps/internal/pipeline"
)

var listingHeaders = []string{"channel", "item_id", "title", "price", "sold_date", "url", "seller"}

// WriteListings writes every channel's listings as one CSV table. Cells
// are escaped against formula injection before writing.
func WriteListings(w io.Writer, result *pipeline.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(listingHeaders); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, channel := range channelOrder {
		ch, ok := result.Channels[channel]
		if !ok {
			continue
		}
		for _, l := range ch.Listings {
			row := []string{
				string(channel),
				l.ID,
				l.Title,
				priceCell(l),
				l.Date,
				l.URL,
				l.Seller,
			}
			if err := cw.Write(EscapeCSVRow(row)); err != nil {
				return fmt.Errorf("writing listing row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteStats writes the per-channel aggregates as a small CSV table.
func WriteStats(w io.Writer, result *pipeline.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"channel", "listings", "average", "lowest", "highest"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, channel := range channelOrder {
		ch, ok := result.Channels[channel]
		if !ok || ch.Failed() {
			continue
		}
		row := []string{
			string(channel),
			fmt.Sprintf("%d", ch.Stats.DataPoints),
			ch.Stats.Average,
			ch.Stats.Lowest,
			ch.Stats.Highest,
		}
		if err := cw.Write(EscapeCSVRow(row)); err != nil {
			return fmt.Errorf("writing stats row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var channelOrder = []model.Channel{
	model.ChannelActiveAuction,
	model.ChannelActiveBIN,
	model.ChannelSoldAuction,
	model.ChannelSoldBIN,
}

func priceCell(l model.Listing) string {
	if !l.HasPrice() {
		return ""
	}
	return fmt.Sprintf("%.2f", l.PriceValue())
}
