// Package pointcloud parses delimited point-cloud text into the batch
// layout the query engine indexes.
//
// A source is plain text with one point per line and comma-separated
// coordinates. The field count of the first line fixes the true
// dimensionality D for the whole cloud; every further line must match it.
// Coordinates are grouped into ceil(D/3) batches of 3-D projections, the
// unit the spatial index operates on. When D is not a multiple of 3 the
// final triple of every row is padded according to the configured PadMode.
package pointcloud

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Delimiter separates coordinates within a row.
const Delimiter = ","

// maxLineBytes bounds a single input line. Rows beyond this are malformed.
const maxLineBytes = 1 << 20

// PadMode selects how the final partial triple of a row is filled when the
// dimensionality is not a multiple of 3.
type PadMode int

const (
	// PadZero fills missing coordinates with 0.
	PadZero PadMode = iota
	// PadRepeat reuses the row's leading coordinates (wrap-around). This
	// mirrors the layout the original CUDA sample produced and exists for
	// comparison runs against it.
	PadRepeat
)

func (m PadMode) String() string {
	switch m {
	case PadZero:
		return "zero"
	case PadRepeat:
		return "repeat"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Options configures parsing.
type Options struct {
	// PadMode fills the final partial triple when Dim%3 != 0.
	PadMode PadMode
}

// DefaultOptions holds the default parsing options.
var DefaultOptions = Options{
	PadMode: PadZero,
}

// Dataset is an immutable, batched point cloud.
//
// Batches share the point index space: batch b holds the b-th 3-D
// projection of every point. The padded row-major coordinate matrix is
// retained for full-dimension distance checks.
type Dataset struct {
	n         int
	dim       int
	paddedDim int
	batches   [][][3]float32 // [numBatches][n]
	rows      []float32      // n * paddedDim, row-major, padded
	padMode   PadMode
}

// Parse reads a delimited point cloud from r.
//
// It fails with ErrEmptySource if r yields no rows and with a
// *MalformedRowError on the first row whose field count differs from the
// first row's.
func Parse(r io.Reader, optFns ...func(o *Options)) (*Dataset, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	ds := &Dataset{padMode: opts.PadMode}

	lineNo := 0
	fields := make([]float32, 0, 16)

	for sc.Scan() {
		lineNo++

		raw := strings.TrimSuffix(sc.Text(), "\r")

		var err error
		fields, err = splitRow(raw, fields[:0])
		if err != nil {
			return nil, &MalformedRowError{Line: lineNo, cause: err}
		}

		if ds.dim == 0 {
			ds.dim = len(fields)
			ds.paddedDim = ((ds.dim + 2) / 3) * 3
			ds.batches = make([][][3]float32, ds.paddedDim/3)
		} else if len(fields) != ds.dim {
			return nil, &MalformedRowError{Line: lineNo, Fields: len(fields), Want: ds.dim}
		}

		ds.appendRow(fields)
	}

	if err := sc.Err(); err != nil {
		if err == bufio.ErrTooLong {
			return nil, &MalformedRowError{Line: lineNo + 1, cause: err}
		}
		return nil, fmt.Errorf("pointcloud: read: %w", err)
	}

	if ds.n == 0 {
		return nil, ErrEmptySource
	}

	return ds, nil
}

// splitRow parses one comma-delimited row into dst.
func splitRow(raw string, dst []float32) ([]float32, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty row")
	}

	for len(raw) > 0 {
		var field string
		if i := strings.Index(raw, Delimiter); i >= 0 {
			field, raw = raw[:i], raw[i+len(Delimiter):]
		} else {
			field, raw = raw, ""
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", len(dst)+1, err)
		}
		dst = append(dst, float32(v))
	}

	return dst, nil
}

// appendRow pads one parsed row and distributes it across the batches.
func (ds *Dataset) appendRow(fields []float32) {
	rowStart := len(ds.rows)
	for d := 0; d < ds.paddedDim; d++ {
		ds.rows = append(ds.rows, ds.pad(fields, d))
	}

	row := ds.rows[rowStart:]
	for b := range ds.batches {
		ds.batches[b] = append(ds.batches[b], [3]float32{row[b*3], row[b*3+1], row[b*3+2]})
	}

	ds.n++
}

func (ds *Dataset) pad(fields []float32, d int) float32 {
	if d < len(fields) {
		return fields[d]
	}
	if ds.padMode == PadRepeat {
		return fields[d%len(fields)]
	}
	return 0
}

// N returns the number of points.
func (ds *Dataset) N() int { return ds.n }

// Dim returns the true dimensionality (field count of the first row).
func (ds *Dataset) Dim() int { return ds.dim }

// PaddedDim returns the dimensionality rounded up to a multiple of 3.
func (ds *Dataset) PaddedDim() int { return ds.paddedDim }

// NumBatches returns the number of 3-D projections, ceil(Dim/3).
func (ds *Dataset) NumBatches() int { return len(ds.batches) }

// Batch returns the 3-D projection of every point for batch b.
// The returned slice is shared; callers must not mutate it.
func (ds *Dataset) Batch(b int) [][3]float32 { return ds.batches[b] }

// Point returns point i's projection in batch b.
func (ds *Dataset) Point(b, i int) [3]float32 { return ds.batches[b][i] }

// Row returns point i's full padded coordinate row.
// The returned slice is shared; callers must not mutate it.
func (ds *Dataset) Row(i int) []float32 {
	return ds.rows[i*ds.paddedDim : (i+1)*ds.paddedDim]
}

// PadMode returns the pad mode the dataset was parsed with.
func (ds *Dataset) PadMode() PadMode { return ds.padMode }
