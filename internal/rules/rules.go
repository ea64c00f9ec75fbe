package rules

import (
	"context"

	"storefront/internal/model"
)

// Source supplies the current set of discount rule records.
type Source interface {
	// Rules returns every stored rule. Eligibility filtering is left to the
	// discount engine.
	Rules(ctx context.Context) ([]model.DiscountRule, error)
}

// Loader reads one rule document from a location such as a file path or an
// object key.
type Loader interface {
	// Load decodes the document at path. Paths ending in ".gz" are gunzipped.
	Load(ctx context.Context, path string) ([]model.DiscountRule, error)
}
