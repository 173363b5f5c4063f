// Package catalog builds and publishes the in-process catalog snapshot:
// the ordered product list, the fitted vector-space model, the sparse
// catalog matrix, and the id-to-row index. A snapshot is immutable once
// published and only ever replaced as a whole.
package catalog

import (
	"time"

	"github.com/kindred-recs/kindred/pkg/textvec"
	"github.com/kindred-recs/kindred/pkg/types"
)

// Snapshot is one internally consistent view of the catalog. Matrix row i
// corresponds exactly to Products[i]. Snapshots are never patched
// incrementally; edits to the underlying catalog become visible only
// through a full rebuild.
type Snapshot struct {
	// Products is the catalog ordered by ascending id.
	Products []types.Product

	// Model is the vector space fitted over the product corpus.
	Model *textvec.Model

	// Matrix holds one term-weighted row per product, aligned
	// positionally with Products.
	Matrix []textvec.Vector

	// BuiltAt records when the snapshot was published.
	BuiltAt time.Time

	rowByID map[int64]int
}

// Row maps a product id to its matrix row. Delisted or unknown ids
// report ok=false.
func (s *Snapshot) Row(productID int64) (int, bool) {
	row, ok := s.rowByID[productID]
	return row, ok
}

// Len returns the number of catalog rows.
func (s *Snapshot) Len() int {
	return len(s.Products)
}

// Empty reports whether the snapshot was built over a productless store.
// Downstream treats an empty snapshot as "no catalog data", never as an
// error.
func (s *Snapshot) Empty() bool {
	return len(s.Products) == 0
}
