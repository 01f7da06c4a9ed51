package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/guarzo/cardcomps/internal/model"
)

// TestDataFactory provides methods for generating dynamic test data
type TestDataFactory struct {
	rand *rand.Rand
}

// NewTestDataFactory creates a new test data factory with a seeded random generator
func NewTestDataFactory(seed int64) *TestDataFactory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TestDataFactory{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// GenerateItemNumber generates a random eBay item number
func (f *TestDataFactory) GenerateItemNumber() string {
	return fmt.Sprintf("%d", f.rand.Int63n(900000000000)+100000000000)
}

// GenerateCardName generates a random test card name
func (f *TestDataFactory) GenerateCardName() string {
	names := []string{"Test Pikachu", "Test Charizard", "Test Blastoise", "Test Venusaur", "Test Mewtwo"}
	return names[f.rand.Intn(len(names))]
}

// GenerateGrade generates a random card grade
func (f *TestDataFactory) GenerateGrade() string {
	grades := []string{"PSA 8", "PSA 9", "PSA 10", "BGS 9", "CGC 10"}
	return grades[f.rand.Intn(len(grades))]
}

// GeneratePrice generates a random price between $5 and $500
func (f *TestDataFactory) GeneratePrice() float64 {
	cents := f.rand.Intn(49500) + 500
	return float64(cents) / 100
}

// GenerateSoldDate generates a date within the last year in on-page format
func (f *TestDataFactory) GenerateSoldDate() string {
	days := f.rand.Intn(365)
	return time.Now().AddDate(0, 0, -days).Format("Jan 2, 2006")
}

// GenerateFragment generates a complete sold-listing fragment as scraped
// from a result page
func (f *TestDataFactory) GenerateFragment() model.RawFragment {
	return model.RawFragment{
		Title:     fmt.Sprintf("%s %s #%03d", f.GenerateCardName(), f.GenerateGrade(), f.rand.Intn(300)+1),
		PriceText: fmt.Sprintf("$%.2f", f.GeneratePrice()),
		SoldDate:  f.GenerateSoldDate(),
		Link:      fmt.Sprintf("https://www.ebay.com/itm/%s?hash=abc", f.GenerateItemNumber()),
	}
}

// GenerateListing generates a normalized listing
func (f *TestDataFactory) GenerateListing() model.Listing {
	n := f.GenerateItemNumber()
	price := f.GeneratePrice()
	date, _ := time.Parse("Jan 2, 2006", f.GenerateSoldDate())
	return model.Listing{
		ID:    "v1|" + n + "|0",
		Title: fmt.Sprintf("%s %s", f.GenerateCardName(), f.GenerateGrade()),
		Price: &price,
		Date:  date.Format("2006-01-02"),
		URL:   "https://www.ebay.com/itm/" + n,
	}
}
