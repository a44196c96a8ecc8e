package rangego

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rangego/testutil"
)

func TestVerify_AllCorrect(t *testing.T) {
	rng := testutil.NewRNG(17)
	points := rng.UniformCloud(150, 6)
	ds := mustParse(t, testutil.CSV3(points))

	eng := mustEngine(t, ds, func(o *Options) {
		o.Radius = 1.5
		o.K = 10
	})

	rs, err := eng.Run(t.Context())
	require.NoError(t, err)

	stats, err := eng.Verify(rs)
	require.NoError(t, err)

	assert.EqualValues(t, ds.N(), stats.Queries)
	assert.Zero(t, stats.Wrong)
	assert.Zero(t, stats.AvgWrongDist())

	var total uint64
	for q := 0; q < ds.N(); q++ {
		total += uint64(rs.Count(q))
	}
	assert.Equal(t, total, stats.Neighbors)
}

func TestVerify_DetectsWrongNeighbor(t *testing.T) {
	// Points 0 and 2 are 5 apart; planting 2 in query 0's row must be
	// flagged, and the reported distance is the full distance, not the
	// excess over the radius.
	ds := mustParse(t, "0,0,0\n1,0,0\n5,0,0\n")

	rs := NewResultSet(3, 2)
	rs.Row(0)[0] = 1
	rs.Row(0)[1] = 2

	stats, err := Verify(ds, rs, func(o *VerifyOptions) { o.Radius = 1.5 })
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.Neighbors)
	assert.EqualValues(t, 1, stats.Wrong)
	assert.InDelta(t, 5.0, stats.AvgWrongDist(), 1e-6)
}

func TestVerify_RowCountMismatch(t *testing.T) {
	ds := mustParse(t, "0,0,0\n1,0,0\n")
	rs := NewResultSet(3, 2)

	_, err := Verify(ds, rs)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestVerify_IndexOutOfRange(t *testing.T) {
	ds := mustParse(t, "0,0,0\n1,0,0\n")
	rs := NewResultSet(2, 2)
	rs.Row(0)[0] = 9

	_, err := Verify(ds, rs)
	require.Error(t, err)
}

func TestVerify_InvalidRadius(t *testing.T) {
	ds := mustParse(t, "0,0,0\n")
	rs := NewResultSet(1, 1)

	_, err := Verify(ds, rs, func(o *VerifyOptions) { o.Radius = 0 })
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestVerify_CombineIntersect(t *testing.T) {
	// Two batches: points 0 and 1 are close in batch 0 but far in
	// batch 1, so under the intersect predicate the pair is wrong.
	ds := mustParse(t, "0,0,0,0,0,0\n1,0,0,9,0,0\n")
	require.Equal(t, 2, ds.NumBatches())

	rs := NewResultSet(2, 1)
	rs.Row(0)[0] = 1

	stats, err := Verify(ds, rs, func(o *VerifyOptions) {
		o.Radius = 1.5
		o.Combine = CombineIntersect
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Wrong)
	// The worst projection distance is reported.
	assert.InDelta(t, 9.0, stats.AvgWrongDist(), 1e-5)

	// The same pair is fine under the union predicate.
	stats, err = Verify(ds, rs, func(o *VerifyOptions) {
		o.Radius = 1.5
		o.Combine = CombineUnion
	})
	require.NoError(t, err)
	assert.Zero(t, stats.Wrong)
}

func TestStats_Report(t *testing.T) {
	t.Run("NoWrong", func(t *testing.T) {
		st := &Stats{Queries: 4, Neighbors: 10}

		var sb strings.Builder
		require.NoError(t, st.Report(&sb))

		assert.Equal(t, "Sanity check done.\nAvg neighbor/query: 2\nAvg wrong neighbor/query: 0\n", sb.String())
	})

	t.Run("WithWrong", func(t *testing.T) {
		st := &Stats{Queries: 2, Neighbors: 6, Wrong: 2, WrongDistSum: 7}

		var sb strings.Builder
		require.NoError(t, st.Report(&sb))

		assert.Contains(t, sb.String(), "Avg wrong neighbor/query: 1\n")
		assert.Contains(t, sb.String(), "Avg wrong dist: 3.5")
	})

	t.Run("EmptyStats", func(t *testing.T) {
		st := &Stats{}
		assert.Zero(t, st.AvgNeighbors())
		assert.Zero(t, st.AvgWrong())
	})
}

func TestVerify_IntegerDivision(t *testing.T) {
	// 3 neighbors over 2 queries reports 1, matching the reference's
	// unsigned integer division.
	st := &Stats{Queries: 2, Neighbors: 3}
	assert.EqualValues(t, 1, st.AvgNeighbors())
}
