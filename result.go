package rangego

import (
	"bufio"
	"io"
	"math"
	"strconv"
)

// Sentinel marks an unused result-row slot. It can never collide with a
// valid point index because datasets are bounded well below 2^32 points.
const Sentinel = uint32(math.MaxUint32)

// ResultSet holds one fixed-width result row per query.
//
// Row i is owned exclusively by query task i during a run: rows are
// disjoint sub-slices of one backing array, so concurrent tasks never
// share a slot. Every slot starts as Sentinel and is written at most
// once, left to right.
type ResultSet struct {
	n    int
	k    int
	rows []uint32 // n * k, row-major
}

// NewResultSet allocates an all-sentinel result set for n queries with
// capacity k each.
func NewResultSet(n, k int) *ResultSet {
	rows := make([]uint32, n*k)
	for i := range rows {
		rows[i] = Sentinel
	}
	return &ResultSet{n: n, k: k, rows: rows}
}

// N returns the number of queries.
func (rs *ResultSet) N() int { return rs.n }

// K returns the per-query result capacity.
func (rs *ResultSet) K() int { return rs.k }

// Row returns query i's full row of k slots, sentinel slots included.
// The returned slice aliases the result set.
func (rs *ResultSet) Row(i int) []uint32 {
	return rs.rows[i*rs.k : (i+1)*rs.k]
}

// Neighbors returns query i's accepted neighbors: the row prefix up to
// the first sentinel. The returned slice aliases the result set.
func (rs *ResultSet) Neighbors(i int) []uint32 {
	row := rs.Row(i)
	for j, id := range row {
		if id == Sentinel {
			return row[:j]
		}
	}
	return row
}

// Count returns the number of accepted neighbors for query i.
func (rs *ResultSet) Count(i int) int {
	return len(rs.Neighbors(i))
}

// WriteRows dumps the result set to w in the reference text format: one
// line per query in index order, each neighbor index followed by a single
// space, an empty line for a query with no neighbors.
func (rs *ResultSet) WriteRows(w io.Writer) error {
	bw := bufio.NewWriter(w)

	var scratch [12]byte
	for i := 0; i < rs.n; i++ {
		for _, id := range rs.Neighbors(i) {
			bw.Write(strconv.AppendUint(scratch[:0], uint64(id), 10))
			bw.WriteByte(' ')
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	return bw.Flush()
}
