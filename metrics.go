package rangego

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    buildHistogram  prometheus.Histogram
//	    searchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordBuild(batch int, duration time.Duration, err error) {
//	    p.buildHistogram.Observe(duration.Seconds())
//	    // ... record error state, batch, etc.
//	}
type MetricsCollector interface {
	// RecordIngest is called after each point-cloud load.
	// points is the number of rows parsed, duration is the total time
	// taken, err is nil if successful.
	RecordIngest(points int, duration time.Duration, err error)

	// RecordBuild is called after each batch index build.
	RecordBuild(batch int, duration time.Duration, err error)

	// RecordSearch is called after each all-points query run.
	// queries is the number of query tasks executed.
	RecordSearch(queries int, duration time.Duration, err error)

	// RecordVerify is called after each verification pass.
	// wrong is the number of out-of-radius neighbors found.
	RecordVerify(wrong uint64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIngest(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordVerify(uint64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IngestCount      atomic.Int64
	IngestErrors     atomic.Int64
	IngestPoints     atomic.Int64
	BuildCount       atomic.Int64
	BuildErrors      atomic.Int64
	BuildTotalNanos  atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchQueries    atomic.Int64
	SearchTotalNanos atomic.Int64
	VerifyCount      atomic.Int64
	VerifyErrors     atomic.Int64
	VerifyWrong      atomic.Int64
}

// RecordIngest implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIngest(points int, duration time.Duration, err error) {
	b.IngestCount.Add(1)
	b.IngestPoints.Add(int64(points))
	if err != nil {
		b.IngestErrors.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(batch int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(queries int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchQueries.Add(int64(queries))
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordVerify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVerify(wrong uint64, duration time.Duration, err error) {
	b.VerifyCount.Add(1)
	b.VerifyWrong.Add(int64(wrong))
	if err != nil {
		b.VerifyErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IngestCount:    b.IngestCount.Load(),
		IngestErrors:   b.IngestErrors.Load(),
		IngestPoints:   b.IngestPoints.Load(),
		BuildCount:     b.BuildCount.Load(),
		BuildErrors:    b.BuildErrors.Load(),
		BuildAvgNanos:  avgNanos(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchQueries:  b.SearchQueries.Load(),
		SearchAvgNanos: avgNanos(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		VerifyCount:    b.VerifyCount.Load(),
		VerifyErrors:   b.VerifyErrors.Load(),
		VerifyWrong:    b.VerifyWrong.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IngestCount    int64
	IngestErrors   int64
	IngestPoints   int64
	BuildCount     int64
	BuildErrors    int64
	BuildAvgNanos  int64
	SearchCount    int64
	SearchErrors   int64
	SearchQueries  int64
	SearchAvgNanos int64
	VerifyCount    int64
	VerifyErrors   int64
	VerifyWrong    int64
}
