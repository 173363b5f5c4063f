package rank

import (
	"context"
	"math"
	"testing"

	"github.com/kindred-recs/kindred/pkg/catalog"
	"github.com/kindred-recs/kindred/pkg/store"
	"github.com/kindred-recs/kindred/pkg/textvec"
	"github.com/kindred-recs/kindred/pkg/types"
)

func buildSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	mem := store.NewMemory()
	mem.AddProduct(types.Product{ID: 1, Name: "Red Shoe", Description: "red shoe"})
	mem.AddProduct(types.Product{ID: 2, Name: "Blue Shoe", Description: "blue shoe"})
	mem.AddProduct(types.Product{ID: 3, Name: "Red Hat", Description: "red hat"})

	snap, err := catalog.NewBuilder(mem, textvec.DefaultOptions()).Refresh(context.Background())
	if err != nil {
		t.Fatalf("snapshot build failed: %v", err)
	}
	return snap
}

// profileFor returns the dense form of one catalog row.
func profileFor(snap *catalog.Snapshot, productID int64) []float64 {
	row, _ := snap.Row(productID)
	dense := make([]float64, snap.Model.Dims())
	snap.Matrix[row].AddTo(dense, 1)
	return dense
}

func TestRank_SelfFirst(t *testing.T) {
	snap := buildSnapshot(t)
	profile := profileFor(snap, 1)

	recs := Similarity{}.Rank(snap, profile, 2)
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].ID != 1 {
		t.Errorf("top recommendation = %d, want the interacted product 1", recs[0].ID)
	}
	if math.Abs(recs[0].Score-1) > 1e-12 {
		t.Errorf("self similarity = %f, want 1", recs[0].Score)
	}
	// "blue shoe" and "red hat" tie (one shared unigram each with equal
	// document frequency); the tie resolves to the lower row, product 2.
	if recs[1].ID != 2 {
		t.Errorf("second recommendation = %d, want 2", recs[1].ID)
	}
}

func TestRank_ScoresNonIncreasing(t *testing.T) {
	snap := buildSnapshot(t)
	profile := profileFor(snap, 1)

	recs := Similarity{}.Rank(snap, profile, snap.Len())
	for i := 1; i < len(recs); i++ {
		if recs[i].Score > recs[i-1].Score {
			t.Fatalf("scores not non-increasing at %d: %f > %f", i, recs[i].Score, recs[i-1].Score)
		}
	}
}

func TestRank_KExceedsCatalog(t *testing.T) {
	snap := buildSnapshot(t)
	recs := Similarity{}.Rank(snap, profileFor(snap, 1), 100)
	if len(recs) != snap.Len() {
		t.Errorf("expected all %d rows, got %d", snap.Len(), len(recs))
	}
}

func TestRank_NoPriceOnRankedPath(t *testing.T) {
	snap := buildSnapshot(t)
	recs := Similarity{}.Rank(snap, profileFor(snap, 1), 3)
	for _, rec := range recs {
		if rec.Price != nil {
			t.Errorf("ranked entry %d carries a price", rec.ID)
		}
	}
}

func TestRank_EmptySnapshotOrBadK(t *testing.T) {
	snap := buildSnapshot(t)

	empty, err := catalog.NewBuilder(store.NewMemory(), textvec.DefaultOptions()).Refresh(context.Background())
	if err != nil {
		t.Fatalf("snapshot build failed: %v", err)
	}

	if recs := (Similarity{}).Rank(empty, nil, 5); recs != nil {
		t.Errorf("empty snapshot should rank to nil, got %v", recs)
	}
	if recs := (Similarity{}).Rank(snap, profileFor(snap, 1), 0); recs != nil {
		t.Errorf("k=0 should rank to nil, got %v", recs)
	}
}

func TestRank_ZeroProfile(t *testing.T) {
	snap := buildSnapshot(t)
	profile := make([]float64, snap.Model.Dims())

	// All similarities zero: deterministic order by ascending row
	recs := Similarity{}.Rank(snap, profile, 3)
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	for i, want := range []int64{1, 2, 3} {
		if recs[i].ID != want {
			t.Errorf("recs[%d].ID = %d, want %d", i, recs[i].ID, want)
		}
	}
}
