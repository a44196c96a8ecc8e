package bvh

import "math"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// emptyAABB returns a box that any expansion will replace.
func emptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: [3]float32{inf, inf, inf},
		Max: [3]float32{-inf, -inf, -inf},
	}
}

// ExpandPoint grows the box to cover the primitive box p ± radius.
func (b *AABB) ExpandPoint(p [3]float32, radius float32) {
	for a := 0; a < 3; a++ {
		if p[a]-radius < b.Min[a] {
			b.Min[a] = p[a] - radius
		}
		if p[a]+radius > b.Max[a] {
			b.Max[a] = p[a] + radius
		}
	}
}

// Union grows the box to cover o.
func (b *AABB) Union(o AABB) {
	for a := 0; a < 3; a++ {
		if o.Min[a] < b.Min[a] {
			b.Min[a] = o.Min[a]
		}
		if o.Max[a] > b.Max[a] {
			b.Max[a] = o.Max[a]
		}
	}
}

// Contains reports whether q lies inside the box (boundary inclusive).
//
// Primitive boxes are pre-inflated by the search radius, so containment of
// the bare query point is the sphere overlap test: |q-p| <= r implies q
// falls inside p's inflated box and every ancestor bound above it.
func (b AABB) Contains(q [3]float32) bool {
	for a := 0; a < 3; a++ {
		if q[a] < b.Min[a] || q[a] > b.Max[a] {
			return false
		}
	}
	return true
}

// ContainsBox reports whether o lies fully inside b.
func (b AABB) ContainsBox(o AABB) bool {
	for a := 0; a < 3; a++ {
		if o.Min[a] < b.Min[a] || o.Max[a] > b.Max[a] {
			return false
		}
	}
	return true
}
