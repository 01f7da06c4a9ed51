// Package ebay wraps the official Browse API used for active listings.
// Records coming back converge on the same model.Listing form the scrape
// path produces, through the same invariant checks.
package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/guarzo/cardcomps/internal/extract"
	"github.com/guarzo/cardcomps/internal/model"
)

const (
	defaultBrowseURL = "https://api.ebay.com/buy/browse/v1/item_summary/search"
	marketplaceID    = "EBAY_US"
)

// BuyingOption selects which active-listing variant a search targets.
type BuyingOption string

const (
	BuyingAuction    BuyingOption = "AUCTION"
	BuyingFixedPrice BuyingOption = "FIXED_PRICE"
)

// Browse API item summary response, limited to the fields we read.
type browseResponse struct {
	ItemSummaries []itemSummary `json:"itemSummaries"`
}

type itemSummary struct {
	ItemID          string `json:"itemId"`
	Title           string `json:"title"`
	ItemWebURL      string `json:"itemWebUrl"`
	Price           *money `json:"price"`
	CurrentBidPrice *money `json:"currentBidPrice"`
	Seller          struct {
		Username string `json:"username"`
	} `json:"seller"`
}

type money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Client calls the Browse API's item summary search.
type Client struct {
	tokens     *TokenSource
	browseURL  string
	httpClient *http.Client
}

// NewClient builds a Browse API client over a token source.
func NewClient(tokens *TokenSource) *Client {
	return &Client{
		tokens:     tokens,
		browseURL:  defaultBrowseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetBrowseURL overrides the search endpoint, for tests.
func (c *Client) SetBrowseURL(u string) {
	c.browseURL = u
}

// Available reports whether the client can make authenticated calls.
func (c *Client) Available() bool {
	return c.tokens != nil && c.tokens.Available()
}

// SearchActive runs an item summary search filtered to one buying option
// and returns normalized listings. An upstream failure here is not
// recoverable locally and propagates so the caller can show an explicit
// failure state instead of an empty success.
func (c *Client) SearchActive(ctx context.Context, query string, option BuyingOption) ([]model.Listing, error) {
	token, err := c.tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("ebay auth: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	if option == BuyingAuction || option == BuyingFixedPrice {
		params.Set("filter", fmt.Sprintf("buyingOptions:{%s}", option))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.browseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create browse request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", marketplaceID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("browse request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read browse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("browse API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed browseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse browse response: %w", err)
	}

	listings := make([]model.Listing, 0, len(parsed.ItemSummaries))
	for _, item := range parsed.ItemSummaries {
		if listing, ok := listingFromSummary(item); ok {
			listings = append(listings, listing)
		}
	}
	return listings, nil
}

// listingFromSummary applies the same invariants the scrape path does: a
// record with neither a parseable USD price nor a resolvable URL is
// dropped. Active listings never carry a date.
func listingFromSummary(item itemSummary) (model.Listing, bool) {
	listing := model.Listing{
		ID:     item.ItemID,
		Title:  extract.Title(item.Title),
		URL:    item.ItemWebURL,
		Seller: item.Seller.Username,
	}

	amount := item.Price
	if amount == nil {
		amount = item.CurrentBidPrice
	}
	if amount != nil {
		if price, ok := extract.PriceUSD(amount.Value, amount.Currency); ok {
			listing.Price = &price
		}
	}

	if listing.Price == nil && listing.URL == "" {
		return model.Listing{}, false
	}
	return listing, true
}
