package profile

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kindred-recs/kindred/pkg/catalog"
	"github.com/kindred-recs/kindred/pkg/store"
	"github.com/kindred-recs/kindred/pkg/textvec"
	"github.com/kindred-recs/kindred/pkg/types"
)

func buildFixture(t *testing.T) (*store.Memory, *catalog.Snapshot) {
	t.Helper()
	mem := store.NewMemory()
	mem.AddProduct(types.Product{ID: 1, Name: "Red Shoe", Description: "red shoe"})
	mem.AddProduct(types.Product{ID: 2, Name: "Blue Shoe", Description: "blue shoe"})
	mem.AddProduct(types.Product{ID: 3, Name: "Red Hat", Description: "red hat"})

	snap, err := catalog.NewBuilder(mem, textvec.DefaultOptions()).Refresh(context.Background())
	if err != nil {
		t.Fatalf("snapshot build failed: %v", err)
	}
	return mem, snap
}

func TestBuild_SingleProductMatchesCatalogRow(t *testing.T) {
	mem, snap := buildFixture(t)
	user := types.Identity{Value: "u1"}
	mem.RecordEvent(user, 1, 3)

	vec, err := NewAggregator(mem).Build(context.Background(), user, snap)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if vec == nil {
		t.Fatal("expected a profile vector")
	}
	if len(vec) != snap.Model.Dims() {
		t.Fatalf("profile has %d dims, want %d", len(vec), snap.Model.Dims())
	}

	// With a single interacted product the weighted centroid collapses to
	// that product's catalog row, whatever the event weight was.
	row, _ := snap.Row(1)
	for _, term := range snap.Matrix[row] {
		if math.Abs(vec[term.Index]-term.Weight) > 1e-12 {
			t.Errorf("profile[%d] = %f, want %f", term.Index, vec[term.Index], term.Weight)
		}
	}
	var nonZero int
	for _, x := range vec {
		if x != 0 {
			nonZero++
		}
	}
	if nonZero != len(snap.Matrix[row]) {
		t.Errorf("profile has %d non-zero entries, want %d", nonZero, len(snap.Matrix[row]))
	}
}

func TestBuild_WeightsBlendProducts(t *testing.T) {
	mem, snap := buildFixture(t)
	user := types.Identity{Value: "u1"}
	mem.RecordEvent(user, 1, 3)
	mem.RecordEvent(user, 2, 1)

	vec, err := NewAggregator(mem).Build(context.Background(), user, snap)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if vec == nil {
		t.Fatal("expected a profile vector")
	}

	// Profile = (3*row1 + 1*row2) / 4
	row1, _ := snap.Row(1)
	row2, _ := snap.Row(2)
	want := make([]float64, snap.Model.Dims())
	snap.Matrix[row1].AddTo(want, 3)
	snap.Matrix[row2].AddTo(want, 1)
	for i := range want {
		want[i] /= 4
	}
	for i := range want {
		if math.Abs(vec[i]-want[i]) > 1e-12 {
			t.Errorf("profile[%d] = %f, want %f", i, vec[i], want[i])
		}
	}
}

func TestBuild_NoHistory(t *testing.T) {
	mem, snap := buildFixture(t)

	vec, err := NewAggregator(mem).Build(context.Background(), types.Identity{Value: "nobody"}, snap)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if vec != nil {
		t.Errorf("cold-start identity should yield a nil profile, got %v", vec)
	}
}

func TestBuild_AllHistoryDrifted(t *testing.T) {
	mem, snap := buildFixture(t)
	user := types.Identity{Value: "u1"}
	// Events only for products absent from the snapshot
	mem.RecordEvent(user, 98, 2)
	mem.RecordEvent(user, 99, 5)

	vec, err := NewAggregator(mem).Build(context.Background(), user, snap)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if vec != nil {
		t.Errorf("fully drifted history should yield a nil profile, got %v", vec)
	}
}

func TestBuild_PartialDriftSkipsUnknown(t *testing.T) {
	mem, snap := buildFixture(t)
	user := types.Identity{Value: "u1"}
	mem.RecordEvent(user, 1, 2)
	mem.RecordEvent(user, 99, 100) // delisted, must not poison the profile

	vec, err := NewAggregator(mem).Build(context.Background(), user, snap)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if vec == nil {
		t.Fatal("expected a profile vector")
	}

	// Only product 1 contributes, so the profile equals its row
	row, _ := snap.Row(1)
	for _, term := range snap.Matrix[row] {
		if math.Abs(vec[term.Index]-term.Weight) > 1e-12 {
			t.Errorf("profile[%d] = %f, want %f", term.Index, vec[term.Index], term.Weight)
		}
	}
}

func TestBuild_StoreErrorPropagates(t *testing.T) {
	mem, snap := buildFixture(t)
	mem.Err = errors.New("connection refused")

	_, err := NewAggregator(mem).Build(context.Background(), types.Identity{Value: "u1"}, snap)
	if err == nil {
		t.Fatal("store failure should propagate")
	}
}

func TestBuild_HistoryLimit(t *testing.T) {
	mem, snap := buildFixture(t)
	user := types.Identity{Value: "u1"}
	mem.RecordEvent(user, 1, 1) // weakest, cut by the limit
	mem.RecordEvent(user, 2, 5)
	mem.RecordEvent(user, 3, 3)

	agg := NewAggregator(mem)
	agg.HistoryLimit = 2

	vec, err := agg.Build(context.Background(), user, snap)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Profile = (5*row2 + 3*row3) / 8; product 1 excluded
	row2, _ := snap.Row(2)
	row3, _ := snap.Row(3)
	want := make([]float64, snap.Model.Dims())
	snap.Matrix[row2].AddTo(want, 5)
	snap.Matrix[row3].AddTo(want, 3)
	for i := range want {
		want[i] /= 8
	}
	for i := range want {
		if math.Abs(vec[i]-want[i]) > 1e-12 {
			t.Errorf("profile[%d] = %f, want %f", i, vec[i], want[i])
		}
	}
}
