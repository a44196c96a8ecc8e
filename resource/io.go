package resource

import (
	"context"
	"io"
)

// ThrottledReader paces reads through a Controller's ingest throttle.
//
// Reads are capped at the throttle burst so a single large buffer (a
// scanner's, say) can never ask for more than the limiter can grant.
type ThrottledReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

// NewThrottledReader wraps r with the controller's ingest throttle.
func NewThrottledReader(ctx context.Context, r io.Reader, rc *Controller) *ThrottledReader {
	return &ThrottledReader{ctx: ctx, r: r, rc: rc}
}

func (r *ThrottledReader) Read(p []byte) (int, error) {
	n := len(p)
	if burst := r.rc.ioBurst(); burst > 0 && n > burst {
		n = burst
	}
	if err := r.rc.WaitIO(r.ctx, n); err != nil {
		return 0, err
	}
	return r.r.Read(p[:n])
}

// ThrottledWriter paces writes through a Controller's ingest throttle,
// splitting oversized buffers into burst-sized chunks to honor the
// io.Writer contract.
type ThrottledWriter struct {
	ctx context.Context
	w   io.Writer
	rc  *Controller
}

// NewThrottledWriter wraps w with the controller's ingest throttle.
func NewThrottledWriter(ctx context.Context, w io.Writer, rc *Controller) *ThrottledWriter {
	return &ThrottledWriter{ctx: ctx, w: w, rc: rc}
}

func (w *ThrottledWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		n := len(p)
		if burst := w.rc.ioBurst(); burst > 0 && n > burst {
			n = burst
		}
		if err := w.rc.WaitIO(w.ctx, n); err != nil {
			return written, err
		}
		m, err := w.w.Write(p[:n])
		written += m
		if err != nil {
			return written, err
		}
		p = p[n:]
	}
	return written, nil
}
