// Package exhaustive implements a brute-force range scanner.
//
// It visits points in ascending id order and checks every one against the
// radius. At O(n) per query it only pays off for tiny batches, but its
// simplicity makes it the reference the tree backends are validated against.
package exhaustive

import (
	"github.com/hupe1980/rangego/distance"
	"github.com/hupe1980/rangego/index"
)

// Compile time check to ensure Scanner satisfies the index.Index interface.
var _ index.Index = (*Scanner)(nil)

// Scanner is a linear-scan index over one batch of 3-D projections.
type Scanner struct {
	points [][3]float32
	radius float32
}

// New creates a Scanner over the given projections.
func New(points [][3]float32, radius float32) (*Scanner, error) {
	if err := index.ValidateBuild(points, radius); err != nil {
		return nil, err
	}
	return &Scanner{points: points, radius: radius}, nil
}

// Builder adapts New to the generic builder signature.
func Builder(points [][3]float32, radius float32) (index.Index, error) {
	return New(points, radius)
}

// RangeSearch scans every point in ascending id order.
func (s *Scanner) RangeSearch(q [3]float32, self uint32, visit func(id uint32) bool) {
	r2 := s.radius * s.radius
	for i := range s.points {
		id := uint32(i)
		if id == self {
			continue
		}
		if distance.SquaredL23(q, s.points[i]) > r2 {
			continue
		}
		if !visit(id) {
			return
		}
	}
}

// Len returns the number of indexed points.
func (s *Scanner) Len() int { return len(s.points) }

// Radius returns the search radius the scanner was built for.
func (s *Scanner) Radius() float32 { return s.radius }
