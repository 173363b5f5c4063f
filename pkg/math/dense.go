// Package math provides dense float64 vector operations used by the
// profile aggregation pipeline.
package math

import (
	"math"
)

// DotProduct computes the inner product of two dense vectors.
// Mismatched lengths are truncated to the shorter vector.
func DotProduct(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	i := 0
	// Process 4 elements at a time for better CPU pipelining
	for ; i <= n-4; i += 4 {
		sum += a[i]*b[i] + a[i+1]*b[i+1] + a[i+2]*b[i+2] + a[i+3]*b[i+3]
	}
	for ; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// CosineSimilarity computes cosine similarity between two dense vectors.
// Returns 0 when either vector is zero (undefined angle).
func CosineSimilarity(a, b []float64) float64 {
	denom := math.Sqrt(DotProduct(a, a) * DotProduct(b, b))
	if denom == 0 {
		return 0
	}
	return DotProduct(a, b) / denom
}

// Scale multiplies all elements by a scalar in place.
func Scale(v []float64, scalar float64) {
	for i := range v {
		v[i] *= scalar
	}
}

// Zero fills a vector with zeros.
func Zero(v []float64) {
	for i := range v {
		v[i] = 0
	}
}

// Norm returns the L2 norm of a dense vector.
func Norm(v []float64) float64 {
	return math.Sqrt(DotProduct(v, v))
}
