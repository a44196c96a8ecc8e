// Package rangego answers bounded-radius, bounded-cardinality neighbor
// queries for every point of a point cloud against every other point:
// "give me up to K points within distance R of me."
//
// Rangego ingests a delimited point cloud of any dimensionality, splits
// it into ceil(D/3) independently indexed 3-D projections (batches),
// builds a bounding-volume hierarchy per batch, and runs one independent
// query task per point. Each query fills a fixed-width result row of K
// uint32 slots, sentinel-padded, with neighbors found within the search
// radius. A post-run verification pass recomputes every reported distance
// and reports aggregate soundness statistics.
//
// The engine reports K neighbors within radius, not the K nearest:
// acceptance order is traversal discovery order unless an explicit
// ordering is configured.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	ds, err := rangego.LoadDatasetFile(ctx, "cloud.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng, err := rangego.New(ds, func(o *rangego.Options) {
//	    o.Radius = 2.0
//	    o.K = 50
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	rs, err := eng.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rs.WriteRows(os.Stdout)
//
//	stats, err := rangego.Verify(ds, rs, func(o *rangego.VerifyOptions) {
//	    o.Radius = 2.0
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stats.Report(os.Stderr)
//
// # Multi-batch combination
//
// When D > 3 the default mode queries batch 0 only, matching the
// reference pipeline this engine was modeled on. CombineIntersect
// requires every 3-D projection to agree before a neighbor is accepted;
// CombineUnion accepts a neighbor any projection finds.
package rangego

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/rangego/blobstore"
	"github.com/hupe1980/rangego/distance"
	"github.com/hupe1980/rangego/hitset"
	"github.com/hupe1980/rangego/index"
	"github.com/hupe1980/rangego/index/bvh"
	"github.com/hupe1980/rangego/pointcloud"
	"github.com/hupe1980/rangego/queue"
	"github.com/hupe1980/rangego/resource"
	"github.com/hupe1980/rangego/searcher"
	"github.com/hupe1980/rangego/snapshot"
)

// nodeBytes approximates the memory footprint of one BVH node for
// admission accounting: six bound floats plus two child indexes.
const nodeBytes = 32

// Engine runs all-points range queries over one dataset.
//
// An Engine is immutable after New: the batch indexes are shared
// read-only by all concurrent query tasks, and Run may be called any
// number of times.
type Engine struct {
	ds         *pointcloud.Dataset
	opts       Options
	indexes    []index.Index
	maxDepth   int
	buildBytes int64
	closed     atomic.Bool
}

// New builds an Engine over the dataset: one spatial index per batch,
// constructed concurrently on a bounded worker pool.
//
// It fails with a *ConfigError on invalid options and with an
// *IndexBuildError naming the offending batch when an index cannot be
// built.
func New(ds *pointcloud.Dataset, optFns ...func(o *Options)) (*Engine, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}
	if ds == nil || ds.N() == 0 {
		return nil, &IndexBuildError{Batch: -1, cause: index.ErrNoPoints}
	}

	e := &Engine{
		ds:      ds,
		opts:    opts,
		indexes: make([]index.Index, ds.NumBatches()),
	}

	// Admit the node arenas of all batches up front so a run that cannot
	// fit fails before any build work starts.
	e.buildBytes = int64(ds.NumBatches()) * int64(2*ds.N()-1) * nodeBytes
	if !opts.Resource.TryAcquireMemory(e.buildBytes) {
		return nil, &ResourceExhaustedError{Phase: "build", Requested: e.buildBytes}
	}

	if err := e.buildIndexes(context.Background()); err != nil {
		opts.Resource.ReleaseMemory(e.buildBytes)
		return nil, translateError(err)
	}

	return e, nil
}

// NewFromSnapshot builds an Engine from previously serialized batch
// indexes instead of rebuilding them. The snapshot must describe the
// given dataset; radius and backend are taken from the snapshot.
func NewFromSnapshot(ds *pointcloud.Dataset, snap *snapshot.Snapshot, optFns ...func(o *Options)) (*Engine, error) {
	opts := DefaultOptions
	opts.Radius = snap.Meta.Radius

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}
	if ds == nil || ds.N() == 0 {
		return nil, &IndexBuildError{Batch: -1, cause: index.ErrNoPoints}
	}

	if snap.Meta.Points != ds.N() {
		return nil, &ConfigError{Option: "snapshot", Reason: fmt.Sprintf("point count mismatch: snapshot %d, dataset %d", snap.Meta.Points, ds.N())}
	}
	if snap.Meta.Batches != ds.NumBatches() || len(snap.Trees) != ds.NumBatches() {
		return nil, &ConfigError{Option: "snapshot", Reason: fmt.Sprintf("batch count mismatch: snapshot %d, dataset %d", len(snap.Trees), ds.NumBatches())}
	}
	if opts.Radius != snap.Meta.Radius {
		return nil, &ConfigError{Option: "snapshot", Reason: "radius differs from the radius the snapshot was built with"}
	}

	e := &Engine{
		ds:      ds,
		opts:    opts,
		indexes: make([]index.Index, len(snap.Trees)),
	}
	for b, t := range snap.Trees {
		stats := t.Stats()
		if stats.Points != ds.N() {
			return nil, &ConfigError{Option: "snapshot", Reason: fmt.Sprintf("batch %d indexes %d points, dataset has %d", b, stats.Points, ds.N())}
		}
		if stats.MaxDepth > e.maxDepth {
			e.maxDepth = stats.MaxDepth
		}
		e.indexes[b] = t
	}

	return e, nil
}

// buildIndexes constructs every batch index on a bounded worker pool.
func (e *Engine) buildIndexes(ctx context.Context) error {
	pool := NewWorkerPool(e.opts.Workers)
	defer pool.Close()

	var wg sync.WaitGroup
	errs := make([]error, len(e.indexes))

	for b := range e.indexes {
		wg.Add(1)
		task := func() {
			defer wg.Done()

			start := time.Now()
			err := e.buildBatch(ctx, b)
			e.opts.Metrics.RecordBuild(b, time.Since(start), err)
			e.opts.Logger.LogBuild(ctx, b, e.ds.N(), err)
			errs[b] = err
		}
		if err := pool.Submit(ctx, task); err != nil {
			wg.Done()
			errs[b] = err
		}
	}

	wg.Wait()

	for b, err := range errs {
		if err != nil {
			return &IndexBuildError{Batch: b, cause: err}
		}
	}

	// depthOf only knows the bundled backends; anything else falls back
	// to a conservative stack bound.
	for _, idx := range e.indexes {
		if d := depthOf(idx); d > e.maxDepth {
			e.maxDepth = d
		}
	}

	return nil
}

func (e *Engine) buildBatch(ctx context.Context, b int) error {
	if err := e.opts.Resource.AcquireBuild(ctx); err != nil {
		return err
	}
	defer e.opts.Resource.ReleaseBuild()

	idx, err := e.opts.Backend(e.ds.Batch(b), e.opts.Radius)
	if err != nil {
		return err
	}
	e.indexes[b] = idx
	return nil
}

func depthOf(idx index.Index) int {
	if t, ok := idx.(*bvh.Tree); ok {
		return t.Stats().MaxDepth
	}
	// log2(n) plus slack does not hold for degenerate trees, so assume
	// the worst: one stack slot per point pair.
	return 2 * idx.Len()
}

// Dataset returns the dataset the engine indexes.
func (e *Engine) Dataset() *pointcloud.Dataset { return e.ds }

// Radius returns the search radius the indexes were built for.
func (e *Engine) Radius() float32 { return e.opts.Radius }

// K returns the per-query result capacity.
func (e *Engine) K() int { return e.opts.K }

// Index returns batch b's spatial index.
func (e *Engine) Index(b int) index.Index { return e.indexes[b] }

// Run executes one query task per point and returns the filled result
// set. Tasks are independent: each writes only its own row, so the only
// synchronization is the completion barrier before Run returns.
func (e *Engine) Run(ctx context.Context) (*ResultSet, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	n, k := e.ds.N(), e.opts.K

	rowBytes := int64(n) * int64(k) * 4
	if err := e.opts.Resource.AcquireMemory(ctx, rowBytes); err != nil {
		err = &ResourceExhaustedError{Phase: "query", Requested: rowBytes, cause: err}
		e.opts.Metrics.RecordSearch(n, time.Since(start), err)
		e.opts.Logger.LogSearch(ctx, n, k, err)
		return nil, err
	}
	defer e.opts.Resource.ReleaseMemory(rowBytes)

	rs := NewResultSet(n, k)

	workers := e.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			s := searcher.AcquireSearcher(e.maxDepth+1, k)
			defer searcher.ReleaseSearcher(s)

			for q := lo; q < hi; q++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				e.searchOne(s, uint32(q), rs.Row(q))
			}
			return nil
		})
	}

	err := g.Wait()
	e.opts.Metrics.RecordSearch(n, time.Since(start), err)
	e.opts.Logger.LogSearch(ctx, n, k, err)
	if err != nil {
		return nil, translateError(err)
	}

	return rs, nil
}

// Query runs a single query task for point i and returns its row: up to
// K neighbor indices, sentinel-padded to exactly K slots.
func (e *Engine) Query(ctx context.Context, i int) ([]uint32, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if i < 0 || i >= e.ds.N() {
		return nil, ErrQueryOutOfRange
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := make([]uint32, e.opts.K)
	for j := range row {
		row[j] = Sentinel
	}

	s := searcher.AcquireSearcher(e.maxDepth+1, e.opts.K)
	defer searcher.ReleaseSearcher(s)

	e.searchOne(s, uint32(i), row)
	return row, nil
}

// searchOne fills one query's row. The row is owned by this call; no
// other task ever touches it.
func (e *Engine) searchOne(s *searcher.Searcher, q uint32, row []uint32) {
	if e.opts.Combine == CombineSingle {
		e.searchSingleBatch(s, q, row)
		return
	}
	e.searchCombined(s, q, row)
}

// searchSingleBatch queries batch 0 only, mirroring the reference
// pipeline.
func (e *Engine) searchSingleBatch(s *searcher.Searcher, q uint32, row []uint32) {
	k := e.opts.K
	pt := e.ds.Point(0, int(q))

	switch e.opts.Order {
	case OrderArrival:
		filled := 0
		e.rangeSearch(0, s, pt, q, func(id uint32) bool {
			row[filled] = id
			filled++
			return filled < k
		})

	case OrderIndex:
		// First K discovered in canonical traversal order, then sorted:
		// deterministic for a fixed tree regardless of worker count.
		s.Hits = s.Hits[:0]
		e.rangeSearch(0, s, pt, q, func(id uint32) bool {
			s.Hits = append(s.Hits, id)
			return len(s.Hits) < k
		})
		slices.Sort(s.Hits)
		copy(row, s.Hits)

	case OrderNearest:
		// Ranking needs the full candidate set, so no early termination.
		s.Ranked.Reset()
		e.rangeSearch(0, s, pt, q, func(id uint32) bool {
			d := distance.L23(pt, e.ds.Point(0, int(id)))
			s.Ranked.PushBounded(queue.Candidate{ID: id, Distance: d}, k)
			return true
		})
		cands := s.Ranked.Drain(nil)
		// Drain pops the max-heap farthest-first; reverse into the row so
		// slot 0 holds the nearest neighbor.
		for i := len(cands) - 1; i >= 0; i-- {
			row[len(cands)-1-i] = cands[i].ID
		}
	}
}

// searchCombined queries every batch and combines the per-batch hit sets
// with the configured set operation. Rows fill in ascending index order,
// which makes the combined modes deterministic.
func (e *Engine) searchCombined(s *searcher.Searcher, q uint32, row []uint32) {
	nb := e.ds.NumBatches()
	sets := make([]*hitset.Set, 0, nb)

	for b := 0; b < nb; b++ {
		set := hitset.New()
		e.rangeSearch(b, s, e.ds.Point(b, int(q)), q, func(id uint32) bool {
			set.Add(id)
			return true
		})
		if e.opts.Combine == CombineIntersect && set.IsEmpty() {
			return
		}
		sets = append(sets, set)
	}

	var combined *hitset.Set
	if e.opts.Combine == CombineIntersect {
		combined = hitset.Intersect(sets...)
	} else {
		combined = hitset.Union(sets...)
	}

	s.Hits = combined.AppendFirstK(s.Hits[:0], e.opts.K)
	copy(row, s.Hits)
}

// rangeSearch dispatches to the caller-owned-scratch traversal when the
// backend supports it.
func (e *Engine) rangeSearch(b int, s *searcher.Searcher, q [3]float32, self uint32, visit func(id uint32) bool) {
	if t, ok := e.indexes[b].(*bvh.Tree); ok {
		t.RangeSearchWith(s, q, self, visit)
		return
	}
	e.indexes[b].RangeSearch(q, self, visit)
}

// Snapshot captures the built batch indexes for serialization. It fails
// when the engine runs a backend the snapshot format cannot represent.
func (e *Engine) Snapshot() (*snapshot.Snapshot, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	trees := make([]*bvh.Tree, len(e.indexes))
	for b, idx := range e.indexes {
		t, ok := idx.(*bvh.Tree)
		if !ok {
			return nil, &ConfigError{Option: "backend", Reason: "snapshots require the bvh backend"}
		}
		trees[b] = t
	}

	return &snapshot.Snapshot{
		Meta: snapshot.Metadata{
			CreatedAt: time.Now().UTC(),
			Points:    e.ds.N(),
			Dim:       e.ds.Dim(),
			PaddedDim: e.ds.PaddedDim(),
			Batches:   e.ds.NumBatches(),
			Radius:    e.opts.Radius,
			Backend:   "bvh",
		},
		Trees: trees,
	}, nil
}

// SaveSnapshot serializes the batch indexes to the blob store under the
// given name.
func (e *Engine) SaveSnapshot(ctx context.Context, store blobstore.BlobStore, name string, optFns ...func(o *snapshot.Options)) error {
	snap, err := e.Snapshot()
	if err != nil {
		e.opts.Logger.LogSnapshot(ctx, name, err)
		return err
	}

	err = snapshot.Save(ctx, store, name, snap, optFns...)
	e.opts.Logger.LogSnapshot(ctx, name, err)
	return err
}

// Close releases the engine's resource reservations. The engine cannot
// be used afterwards.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.opts.Resource.ReleaseMemory(e.buildBytes)
	e.buildBytes = 0
	return nil
}

// LoadDataset opens and parses a point cloud from a blob store,
// transparently decompressing gzip, zstd, and lz4 sources.
//
// It fails with a *SourceError when the blob cannot be opened or read and
// with a *pointcloud.MalformedRowError when a row's field count differs
// from the first row's.
func LoadDataset(ctx context.Context, store blobstore.BlobStore, name string, optFns ...func(o *LoadOptions)) (*pointcloud.Dataset, error) {
	opts := DefaultLoadOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	ds, err := loadDataset(ctx, store, name, opts)

	points, dim := 0, 0
	if ds != nil {
		points, dim = ds.N(), ds.Dim()
	}
	opts.Metrics.RecordIngest(points, time.Since(start), err)
	opts.Logger.LogIngest(ctx, name, points, dim, err)

	return ds, err
}

func loadDataset(ctx context.Context, store blobstore.BlobStore, name string, opts LoadOptions) (*pointcloud.Dataset, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, &SourceError{Source: name, cause: err}
	}
	defer blob.Close()

	var r io.Reader
	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, &SourceError{Source: name, cause: err}
		}
		r = bytes.NewReader(data)
	} else {
		r = io.NewSectionReader(blob, 0, blob.Size())
	}

	if opts.Resource != nil {
		r = resource.NewThrottledReader(ctx, r, opts.Resource)
	}

	rc, err := pointcloud.AutoDecompress(r)
	if err != nil {
		return nil, &SourceError{Source: name, cause: err}
	}
	defer rc.Close()

	ds, err := pointcloud.Parse(rc, func(o *pointcloud.Options) {
		o.PadMode = opts.PadMode
	})
	if err != nil {
		return nil, translateLoadError(name, err)
	}

	return ds, nil
}

// LoadDatasetFile is a convenience wrapper over LoadDataset for plain
// filesystem paths.
func LoadDatasetFile(ctx context.Context, path string, optFns ...func(o *LoadOptions)) (*pointcloud.Dataset, error) {
	store := blobstore.NewLocalStore(filepath.Dir(path))
	return LoadDataset(ctx, store, filepath.Base(path), optFns...)
}
