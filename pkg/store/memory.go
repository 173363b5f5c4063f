package store

import (
	"context"
	"sort"
	"sync"

	"github.com/kindred-recs/kindred/pkg/types"
)

// Memory is an in-memory Store used for tests and local demo mode.
// It applies the same ordering semantics as the SQL backend.
type Memory struct {
	mu         sync.RWMutex
	products   map[int64]types.Product
	userEvents map[string]map[int64]float64 // user id -> product -> summed weight
	sessEvents map[string]map[int64]float64 // session id -> product -> summed weight
	popularity map[int64]float64

	// Err, when set, is returned by every query. Simulates an
	// unreachable store.
	Err error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		products:   make(map[int64]types.Product),
		userEvents: make(map[string]map[int64]float64),
		sessEvents: make(map[string]map[int64]float64),
		popularity: make(map[int64]float64),
	}
}

// AddProduct inserts or replaces a product.
func (s *Memory) AddProduct(p types.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// RemoveProduct delists a product. Recorded events are kept, mirroring
// catalog drift in the real store.
func (s *Memory) RemoveProduct(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

// RecordEvent accumulates an interaction weight for the identity.
func (s *Memory) RecordEvent(id types.Identity, productID int64, weight float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.userEvents
	if id.Anonymous {
		events = s.sessEvents
	}
	if events[id.Value] == nil {
		events[id.Value] = make(map[int64]float64)
	}
	events[id.Value][productID] += weight
}

// SetPopularity sets the 30-day popularity score for a product.
func (s *Memory) SetPopularity(productID int64, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popularity[productID] = score
}

// ListProducts returns all products ordered by ascending id.
func (s *Memory) ListProducts(ctx context.Context) ([]types.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	products := make([]types.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// SumInteractionWeights returns the identity's summed weights, strongest
// first, capped at limit.
func (s *Memory) SumInteractionWeights(ctx context.Context, id types.Identity, limit int) ([]types.ProductWeight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	events := s.userEvents
	if id.Anonymous {
		events = s.sessEvents
	}

	weights := make([]types.ProductWeight, 0, len(events[id.Value]))
	for productID, w := range events[id.Value] {
		weights = append(weights, types.ProductWeight{ProductID: productID, Weight: w})
	}
	sort.Slice(weights, func(i, j int) bool {
		if weights[i].Weight != weights[j].Weight {
			return weights[i].Weight > weights[j].Weight
		}
		return weights[i].ProductID < weights[j].ProductID
	})
	if limit > 0 && len(weights) > limit {
		weights = weights[:limit]
	}
	return weights, nil
}

// TopPopular returns products by descending popularity score then
// ascending id, scoring unranked products zero.
func (s *Memory) TopPopular(ctx context.Context, limit int) ([]types.PopularProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	popular := make([]types.PopularProduct, 0, len(s.products))
	for _, p := range s.products {
		popular = append(popular, types.PopularProduct{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price,
			Score: s.popularity[p.ID],
		})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Score != popular[j].Score {
			return popular[i].Score > popular[j].Score
		}
		return popular[i].ID < popular[j].ID
	})
	if limit > 0 && len(popular) > limit {
		popular = popular[:limit]
	}
	return popular, nil
}
