// Package store defines the persistence boundary Kindred reads from:
// the product catalog, per-identity interaction aggregates, and the
// precomputed 30-day popularity ranking. Kindred never writes through
// this boundary; events and popularity scores are produced by the
// surrounding commerce platform.
package store

import (
	"context"

	"github.com/kindred-recs/kindred/pkg/types"
)

// ProductStore lists the catalog.
type ProductStore interface {
	// ListProducts returns every product ordered by ascending id.
	ListProducts(ctx context.Context) ([]types.Product, error)
}

// EventStore aggregates interaction events.
type EventStore interface {
	// SumInteractionWeights returns up to limit (product, total weight)
	// pairs for the identity, ordered by descending total weight.
	// Anonymous identities are resolved against session-scoped events.
	// An identity with no recorded events returns an empty slice, not
	// an error.
	SumInteractionWeights(ctx context.Context, id types.Identity, limit int) ([]types.ProductWeight, error)
}

// PopularityStore serves the precomputed popularity ranking.
type PopularityStore interface {
	// TopPopular returns up to limit products ordered by descending
	// 30-day popularity score, then ascending product id. Products
	// without a popularity row score zero.
	TopPopular(ctx context.Context, limit int) ([]types.PopularProduct, error)
}

// Store is the full persistence surface the recommendation pipeline
// consumes.
type Store interface {
	ProductStore
	EventStore
	PopularityStore
}
