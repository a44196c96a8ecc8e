// Package distance provides the Euclidean distance kernels used by the
// query engine and the verification pass.
//
// The 3-wide kernels operate on one batch projection and are hand-inlined:
// at fixed arity the compiler generates better code than any generic SIMD
// dispatch. Full-row distances (arbitrary dimensionality) go through
// github.com/viterin/vek, which picks AVX2/NEON kernels at runtime.
package distance

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// SquaredL23 returns the squared Euclidean distance between two 3-D points.
func SquaredL23(a, b [3]float32) float32 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}

// L23 returns the Euclidean distance between two 3-D points.
func L23(a, b [3]float32) float32 {
	return float32(math.Sqrt(float64(SquaredL23(a, b))))
}

// L2 returns the Euclidean distance between two vectors of equal length.
func L2(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return vek32.Distance(a, b)
}

// WithinRadius3 reports whether two 3-D points lie within radius of each
// other. The comparison is done on squared distances to avoid the square
// root on the hot path.
func WithinRadius3(a, b [3]float32, radius float32) bool {
	return SquaredL23(a, b) <= radius*radius
}
