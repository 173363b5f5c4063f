package textvec

import (
	"math"
	"testing"
)

func TestVectorDot(t *testing.T) {
	v := Vector{{Index: 0, Weight: 1}, {Index: 2, Weight: 2}}
	w := Vector{{Index: 2, Weight: 3}, {Index: 5, Weight: 1}}

	if got := v.Dot(w); got != 6 {
		t.Errorf("Dot = %f, want 6", got)
	}
	if got := w.Dot(v); got != 6 {
		t.Errorf("Dot should be symmetric, got %f", got)
	}
}

func TestVectorDot_Disjoint(t *testing.T) {
	v := Vector{{Index: 0, Weight: 1}}
	w := Vector{{Index: 1, Weight: 1}}
	if got := v.Dot(w); got != 0 {
		t.Errorf("Dot of disjoint vectors = %f, want 0", got)
	}
}

func TestVectorDot_Empty(t *testing.T) {
	v := Vector{{Index: 0, Weight: 1}}
	if got := v.Dot(nil); got != 0 {
		t.Errorf("Dot with nil = %f, want 0", got)
	}
	if got := Vector(nil).Dot(nil); got != 0 {
		t.Errorf("Dot of nils = %f, want 0", got)
	}
}

func TestVectorDotDense(t *testing.T) {
	v := Vector{{Index: 0, Weight: 2}, {Index: 3, Weight: 1}}
	d := []float64{1, 0, 0, 4}
	if got := v.DotDense(d); got != 6 {
		t.Errorf("DotDense = %f, want 6", got)
	}
}

func TestVectorDotDense_OutOfRange(t *testing.T) {
	// Columns beyond the dense length contribute nothing
	v := Vector{{Index: 0, Weight: 2}, {Index: 9, Weight: 5}}
	d := []float64{3}
	if got := v.DotDense(d); got != 6 {
		t.Errorf("DotDense = %f, want 6", got)
	}
}

func TestVectorAddTo(t *testing.T) {
	v := Vector{{Index: 1, Weight: 2}, {Index: 3, Weight: 1}}
	d := make([]float64, 4)

	v.AddTo(d, 2)
	v.AddTo(d, 1)

	want := []float64{0, 6, 0, 3}
	for i := range want {
		if d[i] != want[i] {
			t.Errorf("AddTo result[%d] = %f, want %f", i, d[i], want[i])
		}
	}
}

func TestVectorNormalize(t *testing.T) {
	v := Vector{{Index: 0, Weight: 3}, {Index: 1, Weight: 4}}
	v.Normalize()

	if math.Abs(v.Norm()-1) > 1e-12 {
		t.Errorf("norm after Normalize = %f, want 1", v.Norm())
	}
	if math.Abs(v[0].Weight-0.6) > 1e-12 || math.Abs(v[1].Weight-0.8) > 1e-12 {
		t.Errorf("normalized weights = %v, want [0.6 0.8]", v)
	}
}

func TestVectorNormalize_Zero(t *testing.T) {
	v := Vector{{Index: 0, Weight: 0}}
	v.Normalize() // must not divide by zero
	if v[0].Weight != 0 {
		t.Errorf("zero vector changed by Normalize: %v", v)
	}
}
