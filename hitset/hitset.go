// Package hitset records which point ids matched a query and merges the
// per-batch answers into one final set.
//
// Sets are compressed roaring bitmaps, so whole-cloud matches in dense
// regions stay cheap, and cross-batch intersection and union run on the
// container level instead of id by id.
package hitset

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Set is a sorted set of point ids backed by a roaring bitmap.
type Set struct {
	rb *roaring.Bitmap
}

// New creates an empty set.
func New() *Set {
	return &Set{rb: roaring.New()}
}

// FromIDs creates a set holding the given ids.
func FromIDs(ids ...uint32) *Set {
	return &Set{rb: roaring.BitmapOf(ids...)}
}

// Add inserts a point id.
func (s *Set) Add(id uint32) {
	s.rb.Add(id)
}

// AddMany inserts a batch of point ids.
func (s *Set) AddMany(ids []uint32) {
	s.rb.AddMany(ids)
}

// Contains reports whether the id is in the set.
func (s *Set) Contains(id uint32) bool {
	return s.rb.Contains(id)
}

// IsEmpty reports whether the set holds no ids.
func (s *Set) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of ids in the set.
func (s *Set) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	return &Set{rb: s.rb.Clone()}
}

// And narrows the set to ids also present in other.
func (s *Set) And(other *Set) {
	s.rb.And(other.rb)
}

// Or widens the set with the ids present in other.
func (s *Set) Or(other *Set) {
	s.rb.Or(other.rb)
}

// Clear removes all ids without releasing the containers.
func (s *Set) Clear() {
	s.rb.Clear()
}

// All iterates the ids in ascending order.
func (s *Set) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// AppendFirstK appends the k smallest ids to dst and returns it.
func (s *Set) AppendFirstK(dst []uint32, k int) []uint32 {
	it := s.rb.Iterator()
	for n := 0; n < k && it.HasNext(); n++ {
		dst = append(dst, it.Next())
	}
	return dst
}

// ToSlice returns all ids in ascending order.
func (s *Set) ToSlice() []uint32 {
	return s.rb.ToArray()
}

// GetSizeInBytes returns the serialized size of the set.
func (s *Set) GetSizeInBytes() uint64 {
	return s.rb.GetSizeInBytes()
}

// Intersect returns the ids present in every given set. With no sets the
// result is empty.
func Intersect(sets ...*Set) *Set {
	if len(sets) == 0 {
		return New()
	}
	rbs := make([]*roaring.Bitmap, len(sets))
	for i, s := range sets {
		rbs[i] = s.rb
	}
	return &Set{rb: roaring.FastAnd(rbs...)}
}

// Union returns the ids present in at least one of the given sets.
func Union(sets ...*Set) *Set {
	if len(sets) == 0 {
		return New()
	}
	rbs := make([]*roaring.Bitmap, len(sets))
	for i, s := range sets {
		rbs[i] = s.rb
	}
	return &Set{rb: roaring.FastOr(rbs...)}
}
