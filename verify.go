package rangego

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/rangego/distance"
	"github.com/hupe1980/rangego/pointcloud"
)

// VerifyOptions configures a verification pass.
type VerifyOptions struct {
	// Radius is the search radius the results claim to respect.
	Radius float32

	// Combine is the combination mode the results were produced with.
	// Verification classifies each pair against the mode's acceptance
	// predicate.
	Combine CombineMode

	// Logger receives structured operation logs.
	Logger *Logger

	// Metrics receives operation timings.
	Metrics MetricsCollector
}

// DefaultVerifyOptions holds the default verification options.
var DefaultVerifyOptions = VerifyOptions{
	Radius:  2.0,
	Combine: CombineSingle,
	Logger:  NoopLogger(),
	Metrics: NoopMetricsCollector{},
}

// Stats aggregates the outcome of a verification pass.
type Stats struct {
	// Queries is the number of result rows inspected.
	Queries uint64

	// Neighbors is the total number of non-sentinel entries.
	Neighbors uint64

	// Wrong is the number of entries whose recomputed distance violates
	// the radius under the combination mode's predicate.
	Wrong uint64

	// WrongDistSum accumulates the recomputed distance of every wrong
	// entry (the full distance, not the excess over the radius, matching
	// the reference report).
	WrongDistSum float64
}

// AvgNeighbors returns the average neighbor count per query, using
// unsigned integer division like the reference report.
func (st *Stats) AvgNeighbors() uint64 {
	if st.Queries == 0 {
		return 0
	}
	return st.Neighbors / st.Queries
}

// AvgWrong returns the average wrong-neighbor count per query, using
// unsigned integer division like the reference report.
func (st *Stats) AvgWrong() uint64 {
	if st.Queries == 0 {
		return 0
	}
	return st.Wrong / st.Queries
}

// AvgWrongDist returns the average recomputed distance of the wrong
// entries, or 0 when there are none.
func (st *Stats) AvgWrongDist() float64 {
	if st.Wrong == 0 {
		return 0
	}
	return st.WrongDistSum / float64(st.Wrong)
}

// Report writes the diagnostic summary in the reference text format.
// The wrong-distance line only appears when wrong entries exist.
func (st *Stats) Report(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Sanity check done.")
	fmt.Fprintf(bw, "Avg neighbor/query: %d\n", st.AvgNeighbors())
	fmt.Fprintf(bw, "Avg wrong neighbor/query: %d\n", st.AvgWrong())
	if st.Wrong > 0 {
		fmt.Fprintf(bw, "Avg wrong dist: %f\n", st.AvgWrongDist())
	}

	return bw.Flush()
}

// Verify recomputes the true distance of every reported pair and
// classifies it against the radius. It never mutates the result set; it
// exists to validate the index soundness guarantee empirically.
//
// It fails when the result set does not match the dataset shape or when
// a row contains an index that names no point.
func Verify(ds *pointcloud.Dataset, rs *ResultSet, optFns ...func(o *VerifyOptions)) (*Stats, error) {
	opts := DefaultVerifyOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	st, err := verify(ds, rs, opts)

	var wrong uint64
	if st != nil {
		wrong = st.Wrong
	}
	opts.Metrics.RecordVerify(wrong, time.Since(start), err)
	if st != nil {
		opts.Logger.LogVerify(context.Background(), st.Neighbors, st.Wrong, err)
	} else {
		opts.Logger.LogVerify(context.Background(), 0, 0, err)
	}

	return st, err
}

func verify(ds *pointcloud.Dataset, rs *ResultSet, opts VerifyOptions) (*Stats, error) {
	if !(opts.Radius > 0) {
		return nil, &ConfigError{Option: "radius", Reason: "must be positive"}
	}
	if rs.N() != ds.N() {
		return nil, &ConfigError{Option: "results", Reason: fmt.Sprintf("row count mismatch: results %d, dataset %d", rs.N(), ds.N())}
	}

	st := &Stats{Queries: uint64(ds.N())}

	n := uint32(ds.N())
	for q := 0; q < ds.N(); q++ {
		for _, id := range rs.Neighbors(q) {
			if id >= n {
				return nil, fmt.Errorf("rangego: query %d reports index %d, dataset has %d points", q, id, n)
			}

			st.Neighbors++

			d, ok := classify(ds, uint32(q), id, opts)
			if !ok {
				st.Wrong++
				st.WrongDistSum += float64(d)
			}
		}
	}

	return st, nil
}

// classify recomputes the distance between query q and neighbor id under
// the combination mode's predicate. It returns the recomputed distance
// and whether the pair genuinely satisfies the mode.
func classify(ds *pointcloud.Dataset, q, id uint32, opts VerifyOptions) (float32, bool) {
	r := opts.Radius

	switch opts.Combine {
	case CombineIntersect:
		// Every projection must agree; the distance reported for a wrong
		// pair is the worst offending projection.
		var worst float32
		ok := true
		for b := 0; b < ds.NumBatches(); b++ {
			d := distance.L23(ds.Point(b, int(q)), ds.Point(b, int(id)))
			if d > worst {
				worst = d
			}
			if d > r {
				ok = false
			}
		}
		return worst, ok

	case CombineUnion:
		// Any projection suffices; the distance reported for a wrong pair
		// is the best (still violating) projection.
		best := float32(0)
		ok := false
		for b := 0; b < ds.NumBatches(); b++ {
			d := distance.L23(ds.Point(b, int(q)), ds.Point(b, int(id)))
			if b == 0 || d < best {
				best = d
			}
			if d <= r {
				ok = true
			}
		}
		return best, ok

	default:
		d := distance.L23(ds.Point(0, int(q)), ds.Point(0, int(id)))
		return d, d <= r
	}
}

// Verify runs a verification pass against the engine's own radius and
// combination mode.
func (e *Engine) Verify(rs *ResultSet) (*Stats, error) {
	return Verify(e.ds, rs, func(o *VerifyOptions) {
		o.Radius = e.opts.Radius
		o.Combine = e.opts.Combine
		o.Logger = e.opts.Logger
		o.Metrics = e.opts.Metrics
	})
}
