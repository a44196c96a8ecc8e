// Package testutil provides deterministic data generation and the
// brute-force oracle used to cross-check index backends in tests.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/hupe1980/rangego/distance"
)

// RNG is a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Float32 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// UniformCloud generates n points uniformly distributed in [0,scale)^3.
func (r *RNG) UniformCloud(n int, scale float32) [][3]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([][3]float32, n)
	for i := range points {
		points[i] = [3]float32{
			r.rand.Float32() * scale,
			r.rand.Float32() * scale,
			r.rand.Float32() * scale,
		}
	}
	return points
}

// ClusteredCloud generates n points within spread of center on each axis.
func (r *RNG) ClusteredCloud(n int, center [3]float32, spread float32) [][3]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([][3]float32, n)
	for i := range points {
		for a := 0; a < 3; a++ {
			points[i][a] = center[a] + (r.rand.Float32()*2-1)*spread
		}
	}
	return points
}

// UniformRows generates n rows of dim uniform coordinates in [0,scale).
func (r *RNG) UniformRows(n, dim int, scale float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([][]float32, n)
	for i := range rows {
		rows[i] = make([]float32, dim)
		for d := range rows[i] {
			rows[i][d] = r.rand.Float32() * scale
		}
	}
	return rows
}

// CSV renders rows as comma-delimited point-cloud text.
func CSV(rows [][]float32) string {
	var sb strings.Builder
	for _, row := range rows {
		for d, v := range row {
			if d > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "%g", v)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// CSV3 renders 3-D points as comma-delimited point-cloud text.
func CSV3(points [][3]float32) string {
	rows := make([][]float32, len(points))
	for i, p := range points {
		rows[i] = []float32{p[0], p[1], p[2]}
	}
	return CSV(rows)
}

// BruteRange returns, in ascending id order, every point within radius of
// q excluding self. It is the oracle all index backends are checked
// against.
func BruteRange(points [][3]float32, q [3]float32, self uint32, radius float32) []uint32 {
	var ids []uint32
	r2 := radius * radius
	for i, p := range points {
		if uint32(i) == self {
			continue
		}
		if distance.SquaredL23(q, p) <= r2 {
			ids = append(ids, uint32(i))
		}
	}
	return ids
}

// BruteRangeRows returns, in ascending id order, every row within radius
// of row q under the full-dimension Euclidean distance, excluding q.
func BruteRangeRows(rows [][]float32, q int, radius float32) []uint32 {
	var ids []uint32
	for i := range rows {
		if i == q {
			continue
		}
		if distance.L2(rows[q], rows[i]) <= radius {
			ids = append(ids, uint32(i))
		}
	}
	return ids
}
