// Package profile aggregates an identity's interaction history into a
// single profile vector in the catalog's vector space.
package profile

import (
	"context"
	"fmt"

	"github.com/kindred-recs/kindred/pkg/catalog"
	vecmath "github.com/kindred-recs/kindred/pkg/math"
	"github.com/kindred-recs/kindred/pkg/store"
	"github.com/kindred-recs/kindred/pkg/types"
)

// DefaultHistoryLimit caps how many of the identity's strongest products
// feed the profile.
const DefaultHistoryLimit = 50

// Aggregator builds profile vectors from the event store and the current
// catalog snapshot.
type Aggregator struct {
	store store.EventStore

	// HistoryLimit caps the interaction query. Defaults to
	// DefaultHistoryLimit when zero.
	HistoryLimit int
}

// NewAggregator creates an Aggregator over the event store.
func NewAggregator(s store.EventStore) *Aggregator {
	return &Aggregator{store: s}
}

// Build computes the identity's profile: the weight-normalized sum of the
// catalog vectors of its most-interacted products. Products no longer in
// the snapshot are skipped rather than treated as errors, so the profile
// self-heals against catalog drift.
//
// Returns nil with no error when the identity has no usable signal:
// either no recorded interactions (cold start) or every interacted
// product has drifted out of the snapshot. Store failures propagate.
func (a *Aggregator) Build(ctx context.Context, id types.Identity, snap *catalog.Snapshot) ([]float64, error) {
	limit := a.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	weights, err := a.store.SumInteractionWeights(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load interaction history: %w", err)
	}
	if len(weights) == 0 {
		return nil, nil
	}

	acc := make([]float64, snap.Model.Dims())
	var total float64
	for _, w := range weights {
		row, ok := snap.Row(w.ProductID)
		if !ok {
			continue
		}
		snap.Matrix[row].AddTo(acc, w.Weight)
		total += w.Weight
	}
	if total == 0 {
		return nil, nil
	}

	// Normalizing by total weight makes the profile a weighted centroid,
	// comparable in magnitude to the individual catalog rows.
	vecmath.Scale(acc, 1/total)
	return acc, nil
}
