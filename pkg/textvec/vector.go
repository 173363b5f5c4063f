package textvec

import "math"

// Term is a single column-weight pair in a sparse vector.
type Term struct {
	Index  int
	Weight float64
}

// Vector is a sparse term-weighted vector, always sorted by column index
// so that pairwise operations can merge-join in O(n+m).
type Vector []Term

// Dot computes the inner product of two sparse vectors (linear kernel).
func (v Vector) Dot(w Vector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(v) && j < len(w) {
		switch {
		case v[i].Index == w[j].Index:
			dot += v[i].Weight * w[j].Weight
			i++
			j++
		case v[i].Index < w[j].Index:
			i++
		default:
			j++
		}
	}
	return dot
}

// DotDense computes the inner product against a dense vector. Columns
// beyond len(d) contribute nothing.
func (v Vector) DotDense(d []float64) float64 {
	var dot float64
	for _, t := range v {
		if t.Index < len(d) {
			dot += t.Weight * d[t.Index]
		}
	}
	return dot
}

// AddTo accumulates scale times this vector into the dense accumulator d.
func (v Vector) AddTo(d []float64, scale float64) {
	for _, t := range v {
		if t.Index < len(d) {
			d[t.Index] += scale * t.Weight
		}
	}
}

// Norm returns the L2 norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, t := range v {
		sum += t.Weight * t.Weight
	}
	return math.Sqrt(sum)
}

// Normalize scales the vector to unit L2 norm in place. A zero vector is
// left untouched.
func (v Vector) Normalize() {
	norm := v.Norm()
	if norm == 0 {
		return
	}
	for i := range v {
		v[i].Weight /= norm
	}
}
