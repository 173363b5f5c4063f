// Package types defines the shared domain types for Kindred:
// catalog products, interaction weights, and recommendation entries.
package types

// Product is a read-only catalog entry loaded from the store.
// Products are created and mutated by the surrounding commerce platform;
// Kindred only ever reads a snapshot of them.
type Product struct {
	// ID is the stable, externally assigned product identifier.
	ID int64

	// Name is the display name (never empty in the store).
	Name string

	// Description is optional marketing copy. May be empty.
	Description string

	// Price is the current list price. Only surfaced on the
	// popularity fallback path.
	Price float64
}

// Text returns the content used for vectorization: the description,
// falling back to the name when the description is empty.
func (p Product) Text() string {
	if p.Description != "" {
		return p.Description
	}
	return p.Name
}

// ProductWeight is one row of the per-identity interaction aggregate:
// a product and the summed event weight for it.
type ProductWeight struct {
	ProductID int64
	Weight    float64
}

// PopularProduct is one row of the precomputed 30-day popularity ranking.
type PopularProduct struct {
	ID    int64
	Name  string
	Price float64
	Score float64
}

// Recommendation is a single entry in a recommendation response.
//
// The ranked path fills ID, Name and Score; the popularity fallback
// additionally fills Price. The asymmetry is inherited from the original
// service contract and is preserved deliberately, so Price is a pointer
// that is omitted from JSON on the ranked path.
type Recommendation struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Price *float64 `json:"price,omitempty"`
	Score float64  `json:"score"`
}
