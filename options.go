package rangego

import (
	"fmt"

	"github.com/hupe1980/rangego/index"
	"github.com/hupe1980/rangego/index/bvh"
	"github.com/hupe1980/rangego/pointcloud"
	"github.com/hupe1980/rangego/resource"
)

// CombineMode selects how hits from multiple batches combine into one
// result row when the dimensionality exceeds 3.
type CombineMode int

const (
	// CombineSingle queries batch 0 only. This is the default and mirrors
	// the behavior of the CUDA reference program.
	CombineSingle CombineMode = iota

	// CombineIntersect reports a neighbor only when every batch finds it
	// within radius (logical AND across the 3-D projections).
	CombineIntersect

	// CombineUnion reports a neighbor when any batch finds it within
	// radius (logical OR across the 3-D projections).
	CombineUnion
)

func (m CombineMode) String() string {
	switch m {
	case CombineSingle:
		return "single"
	case CombineIntersect:
		return "intersect"
	case CombineUnion:
		return "union"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Ordering selects the order in which accepted neighbors fill a result
// row.
type Ordering int

const (
	// OrderArrival fills rows in traversal discovery order. This is the
	// default: the engine reports K neighbors within radius, not the K
	// nearest.
	OrderArrival Ordering = iota

	// OrderIndex sorts the accepted neighbors by point index before
	// filling the row, making rows reproducible across runs and worker
	// counts.
	OrderIndex

	// OrderNearest ranks every in-radius hit by true distance and keeps
	// the K nearest. Unlike the other orderings this disables early
	// termination, since ranking needs the full candidate set.
	OrderNearest
)

func (o Ordering) String() string {
	switch o {
	case OrderArrival:
		return "arrival"
	case OrderIndex:
		return "index"
	case OrderNearest:
		return "nearest"
	default:
		return fmt.Sprintf("Unknown(%d)", int(o))
	}
}

// Options configures an Engine.
type Options struct {
	// Radius is the search radius.
	Radius float32

	// K caps the number of neighbors reported per query.
	K int

	// Combine selects the multi-batch combination mode. The combined
	// modes fill rows in ascending index order regardless of Order.
	Combine CombineMode

	// Order selects the row fill order for the single-batch mode.
	Order Ordering

	// Workers bounds the number of concurrent build and query tasks.
	// Zero or negative means GOMAXPROCS.
	Workers int

	// Backend constructs the per-batch spatial index.
	Backend index.BuilderFunc

	// Resource optionally bounds memory, build slots, and ingest IO.
	// A nil controller admits everything.
	Resource *resource.Controller

	// Logger receives structured operation logs.
	Logger *Logger

	// Metrics receives operation timings.
	Metrics MetricsCollector
}

// DefaultOptions holds the default engine options. Radius and K default
// to the reference program's CLI defaults.
var DefaultOptions = Options{
	Radius:  2.0,
	K:       50,
	Combine: CombineSingle,
	Order:   OrderArrival,
	Backend: bvh.Builder,
	Logger:  NoopLogger(),
	Metrics: NoopMetricsCollector{},
}

func (o *Options) validate() error {
	if !(o.Radius > 0) {
		return &ConfigError{Option: "radius", Reason: "must be positive"}
	}
	if o.K <= 0 {
		return &ConfigError{Option: "knn", Reason: "must be positive"}
	}
	if o.Backend == nil {
		return &ConfigError{Option: "backend", Reason: "must not be nil"}
	}
	switch o.Combine {
	case CombineSingle, CombineIntersect, CombineUnion:
	default:
		return &ConfigError{Option: "combine", Reason: fmt.Sprintf("unknown mode %d", int(o.Combine))}
	}
	switch o.Order {
	case OrderArrival, OrderIndex, OrderNearest:
	default:
		return &ConfigError{Option: "order", Reason: fmt.Sprintf("unknown ordering %d", int(o.Order))}
	}
	if o.Order == OrderNearest && o.Combine != CombineSingle {
		return &ConfigError{Option: "order", Reason: "nearest ordering applies to the single-batch mode only"}
	}
	return nil
}

// LoadOptions configures LoadDataset.
type LoadOptions struct {
	// PadMode fills the final partial triple when Dim%3 != 0.
	PadMode pointcloud.PadMode

	// Resource optionally rate-limits source reads.
	Resource *resource.Controller

	// Logger receives structured operation logs.
	Logger *Logger

	// Metrics receives operation timings.
	Metrics MetricsCollector
}

// DefaultLoadOptions holds the default load options.
var DefaultLoadOptions = LoadOptions{
	PadMode: pointcloud.PadZero,
	Logger:  NoopLogger(),
	Metrics: NoopMetricsCollector{},
}
