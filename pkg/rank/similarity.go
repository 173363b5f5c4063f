// Package rank scores catalog products against a profile vector and
// serves the popularity fallback for identities without one.
package rank

import (
	"sort"

	"github.com/kindred-recs/kindred/pkg/catalog"
	"github.com/kindred-recs/kindred/pkg/types"
)

// DefaultK is the default recommendation count.
const DefaultK = 8

// Similarity ranks catalog rows by linear-kernel similarity to a profile
// vector. Catalog rows are unit-length after fitting, so the dot product
// is already a cosine-style score; the profile carries the only other
// scaling, applied during aggregation.
type Similarity struct{}

// Rank scores every row of the snapshot against the profile and returns
// the top k as recommendations, highest score first. Equal scores order
// by ascending row position (ascending product id), keeping rankings
// reproducible across rebuilds. When k exceeds the catalog size all rows
// are returned.
func (Similarity) Rank(snap *catalog.Snapshot, profile []float64, k int) []types.Recommendation {
	if snap.Empty() || k <= 0 {
		return nil
	}

	sims := make([]float64, len(snap.Matrix))
	for i, row := range snap.Matrix {
		sims[i] = row.DotDense(profile)
	}

	idx := make([]int, len(sims))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if sims[idx[a]] != sims[idx[b]] {
			return sims[idx[a]] > sims[idx[b]]
		}
		return idx[a] < idx[b]
	})

	if k > len(idx) {
		k = len(idx)
	}
	out := make([]types.Recommendation, 0, k)
	for _, i := range idx[:k] {
		out = append(out, types.Recommendation{
			ID:    snap.Products[i].ID,
			Name:  snap.Products[i].Name,
			Score: sims[i],
		})
	}
	return out
}
