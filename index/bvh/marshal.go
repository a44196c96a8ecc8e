package bvh

import (
	"encoding"
	"encoding/binary"
	"fmt"
	"math"
)

// Compile time checks for the binary round-trip contract.
var (
	_ encoding.BinaryMarshaler   = (*Tree)(nil)
	_ encoding.BinaryUnmarshaler = (*Tree)(nil)
)

// MarshalBinary stores, little-endian: n(uint32), radius(float32),
// maxDepth(uint32), numNodes(uint32), then n point triples, then numNodes
// nodes as 6 bound floats plus left and right int32.
func (t *Tree) MarshalBinary() ([]byte, error) {
	size := 16 + 12*len(t.points) + 32*len(t.nodes)
	out := make([]byte, 0, size)

	putU32 := func(v uint32) {
		out = binary.LittleEndian.AppendUint32(out, v)
	}
	putF32 := func(v float32) {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}

	putU32(uint32(len(t.points)))
	putF32(t.radius)
	putU32(uint32(t.maxDepth))
	putU32(uint32(len(t.nodes)))

	for _, p := range t.points {
		putF32(p[0])
		putF32(p[1])
		putF32(p[2])
	}
	for i := range t.nodes {
		nd := &t.nodes[i]
		for a := 0; a < 3; a++ {
			putF32(nd.bounds.Min[a])
		}
		for a := 0; a < 3; a++ {
			putF32(nd.bounds.Max[a])
		}
		putU32(uint32(nd.left))
		putU32(uint32(nd.right))
	}

	return out, nil
}

// UnmarshalBinary restores a tree serialized by MarshalBinary. The
// restored tree owns its point array.
func (t *Tree) UnmarshalBinary(data []byte) error {
	if len(data) < 16 {
		return fmt.Errorf("bvh: truncated header: %d bytes", len(data))
	}

	off := 0
	getU32 := func() uint32 {
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v
	}
	getF32 := func() float32 {
		return math.Float32frombits(getU32())
	}

	n := int(getU32())
	radius := getF32()
	maxDepth := int(getU32())
	numNodes := int(getU32())

	want := 16 + 12*n + 32*numNodes
	if len(data) != want {
		return fmt.Errorf("bvh: payload is %d bytes, want %d", len(data), want)
	}
	if numNodes != 2*n-1 {
		return fmt.Errorf("bvh: %d nodes inconsistent with %d points", numNodes, n)
	}

	points := make([][3]float32, n)
	for i := range points {
		points[i] = [3]float32{getF32(), getF32(), getF32()}
	}

	nodes := make([]node, numNodes)
	for i := range nodes {
		var b AABB
		for a := 0; a < 3; a++ {
			b.Min[a] = getF32()
		}
		for a := 0; a < 3; a++ {
			b.Max[a] = getF32()
		}
		left := int32(getU32())
		right := int32(getU32())
		nodes[i] = node{bounds: b, left: left, right: right}
	}

	if err := validateNodes(nodes, n); err != nil {
		return err
	}

	t.points = points
	t.radius = radius
	t.maxDepth = maxDepth
	t.nodes = nodes

	return nil
}

// validateNodes rejects structurally broken trees before they can panic a
// traversal: child indexes must stay in range and leaves must reference
// valid points.
func validateNodes(nodes []node, n int) error {
	for i := range nodes {
		nd := &nodes[i]
		if nd.left == leafChild {
			if nd.right < 0 || int(nd.right) >= n {
				return fmt.Errorf("bvh: leaf %d references point %d of %d", i, nd.right, n)
			}
			continue
		}
		if nd.left <= int32(i) || int(nd.left) >= len(nodes) ||
			nd.right <= int32(i) || int(nd.right) >= len(nodes) {
			return fmt.Errorf("bvh: node %d has out-of-order children %d,%d", i, nd.left, nd.right)
		}
	}
	return nil
}
