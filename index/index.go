// Package index defines the contract spatial index backends implement.
//
// A backend indexes one batch of 3-D projections for a fixed search radius
// and answers bounded range queries over it. The engine treats backends as
// interchangeable: the bundled bvh backend is the default, the exhaustive
// backend is the oracle used for cross-checking, and external acceleration
// hardware can be wrapped behind the same interface.
package index

import "errors"

var (
	// ErrNoPoints is returned when an index is built over an empty batch.
	ErrNoPoints = errors.New("index: point set is empty")

	// ErrInvalidRadius is returned when the search radius is not a
	// positive finite number.
	ErrInvalidRadius = errors.New("index: radius must be positive")
)

// Index is a read-only spatial index over one batch's 3-D projections.
//
// Implementations must be safe for concurrent RangeSearch calls after
// construction; nothing mutates an index once built.
type Index interface {
	// RangeSearch invokes visit for every point whose projection lies
	// within the index radius of q, in a deterministic order fixed by the
	// index structure. The query's own id (self) is never reported.
	// Traversal stops early when visit returns false.
	RangeSearch(q [3]float32, self uint32, visit func(id uint32) bool)

	// Len returns the number of indexed points.
	Len() int
}

// BuilderFunc constructs an index over one batch's projections.
//
// The points slice is borrowed: builders must not mutate it and may retain
// it for the index lifetime.
type BuilderFunc func(points [][3]float32, radius float32) (Index, error)

// ValidateBuild checks the inputs common to all builders.
func ValidateBuild(points [][3]float32, radius float32) error {
	if len(points) == 0 {
		return ErrNoPoints
	}
	// The negated comparison also rejects NaN.
	if !(radius > 0) {
		return ErrInvalidRadius
	}
	return nil
}
