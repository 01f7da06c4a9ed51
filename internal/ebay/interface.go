package ebay

import (
	"context"

	"github.com/guarzo/cardcomps/internal/model"
)

// Provider is the active-listing source the pipeline consumes.
type Provider interface {
	Available() bool
	SearchActive(ctx context.Context, query string, option BuyingOption) ([]model.Listing, error)
}

// Ensure Client implements Provider
var _ Provider = (*Client)(nil)
