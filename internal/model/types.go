package model

// Channel identifies which market segment a listing collection came from.
type Channel string

const (
	ChannelActiveAuction Channel = "auction"
	ChannelActiveBIN     Channel = "bin"
	ChannelSoldAuction   Channel = "soldAuction"
	ChannelSoldBIN       Channel = "soldBin"
)

// Sold reports whether the channel covers completed sales.
func (c Channel) Sold() bool {
	return c == ChannelSoldAuction || c == ChannelSoldBIN
}

// RawFragment is the unstructured text captured from one rendered listing
// element before any normalization. Fields may be empty when the source
// element was missing the corresponding sub-element.
type RawFragment struct {
	Title     string
	PriceText string
	SoldDate  string
	Link      string
	Seller    string
}

// Listing is the canonical normalized unit both the scrape path and the
// Browse API path converge on.
//
// Price is nil when no USD amount could be parsed. Date is empty for active
// listings and YYYY-MM-DD for sold observations; the presence of a date is
// what marks a listing as sold.
type Listing struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Price  *float64 `json:"price,omitempty"`
	Date   string   `json:"date,omitempty"`
	URL    string   `json:"url"`
	Seller string   `json:"seller,omitempty"`
}

// HasPrice reports whether a parseable USD price was extracted.
func (l Listing) HasPrice() bool {
	return l.Price != nil
}

// PriceValue returns the price or 0 when absent.
func (l Listing) PriceValue() float64 {
	if l.Price == nil {
		return 0
	}
	return *l.Price
}

// Query holds the caller's search criteria. All fields are optional free
// text; the query is read-only for the duration of one pipeline run.
type Query struct {
	CardName   string
	SetName    string
	Grade      string
	CardNumber string
}

// StatsSummary summarizes the priced listings of one channel. String fields
// are fixed to two decimals; an empty collection yields "0.00" across the
// board with zero data points rather than a division error.
type StatsSummary struct {
	Average    string `json:"average"`
	Lowest     string `json:"lowest"`
	Highest    string `json:"highest"`
	DataPoints int    `json:"dataPoints"`
}

// RecentSalesSummary averages the first N valid sold observations in
// collection order. Count is how many actually contributed (<= N).
type RecentSalesSummary struct {
	Average string `json:"average"`
	Count   int    `json:"count"`
}

// PricePoint is one date/price pair for the external charting layer,
// derived from a sold listing.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}
