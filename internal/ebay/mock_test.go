package ebay

import (
	"context"

	"github.com/guarzo/cardcomps/internal/model"
)

// MockProvider is a test-only Provider implementation.
type MockProvider struct {
	listings  map[BuyingOption][]model.Listing
	err       error
	available bool
}

var _ Provider = (*MockProvider)(nil)

func NewMockProvider() *MockProvider {
	return &MockProvider{
		listings:  make(map[BuyingOption][]model.Listing),
		available: true,
	}
}

func (m *MockProvider) Available() bool {
	return m.available
}

func (m *MockProvider) SearchActive(ctx context.Context, query string, option BuyingOption) ([]model.Listing, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.listings[option], nil
}

func (m *MockProvider) SetListings(option BuyingOption, listings []model.Listing) {
	m.listings[option] = listings
}

func (m *MockProvider) SetError(err error) {
	m.err = err
}

func (m *MockProvider) SetAvailable(available bool) {
	m.available = available
}
