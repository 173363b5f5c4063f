package rank

import (
	"context"
	"errors"
	"testing"

	"github.com/kindred-recs/kindred/pkg/store"
	"github.com/kindred-recs/kindred/pkg/types"
)

func TestPopularityTop(t *testing.T) {
	mem := store.NewMemory()
	mem.AddProduct(types.Product{ID: 1, Name: "Red Shoe", Price: 50})
	mem.AddProduct(types.Product{ID: 2, Name: "Blue Shoe", Price: 45})
	mem.AddProduct(types.Product{ID: 3, Name: "Red Hat", Price: 15})
	mem.SetPopularity(3, 9)
	mem.SetPopularity(1, 4)

	recs, err := NewPopularity(mem).Top(context.Background(), 2)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].ID != 3 || recs[1].ID != 1 {
		t.Errorf("order = [%d %d], want [3 1]", recs[0].ID, recs[1].ID)
	}

	// Fallback entries carry the price
	if recs[0].Price == nil || *recs[0].Price != 15 {
		t.Errorf("recs[0].Price = %v, want 15", recs[0].Price)
	}
	if recs[0].Score != 9 {
		t.Errorf("recs[0].Score = %f, want 9", recs[0].Score)
	}
}

func TestPopularityTop_EmptyStore(t *testing.T) {
	recs, err := NewPopularity(store.NewMemory()).Top(context.Background(), 8)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no recommendations, got %d", len(recs))
	}
}

func TestPopularityTop_StoreError(t *testing.T) {
	mem := store.NewMemory()
	mem.Err = errors.New("connection refused")

	_, err := NewPopularity(mem).Top(context.Background(), 8)
	if err == nil {
		t.Fatal("store failure should propagate")
	}
}
