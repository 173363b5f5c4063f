package rank

import (
	"context"
	"fmt"

	"github.com/kindred-recs/kindred/pkg/store"
	"github.com/kindred-recs/kindred/pkg/types"
)

// Popularity serves the cold-start fallback: the store's precomputed
// 30-day popularity ranking. No in-process vector computation happens on
// this path.
type Popularity struct {
	store store.PopularityStore
}

// NewPopularity creates a Popularity ranker over the popularity store.
func NewPopularity(s store.PopularityStore) *Popularity {
	return &Popularity{store: s}
}

// Top returns up to k products by descending popularity score, ascending
// id on ties. Unlike the ranked path, entries carry the product price.
func (p *Popularity) Top(ctx context.Context, k int) ([]types.Recommendation, error) {
	popular, err := p.store.TopPopular(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("failed to load popularity ranking: %w", err)
	}

	out := make([]types.Recommendation, 0, len(popular))
	for _, pp := range popular {
		price := pp.Price
		out = append(out, types.Recommendation{
			ID:    pp.ID,
			Name:  pp.Name,
			Price: &price,
			Score: pp.Score,
		})
	}
	return out, nil
}
