// Package blobstore abstracts where point clouds and index snapshots
// live.
//
// A BlobStore reads and writes named immutable blobs. The bundled
// implementations cover the local filesystem (memory-mapped reads), plain
// memory for tests, and S3-compatible object storage under blobstore/s3
// and blobstore/minio.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error satisfying errors.Is(err, ErrNotFound);
// it aliases os.ErrNotExist so filesystem errors pass through unchanged.
var ErrNotFound = os.ErrNotExist

// BlobStore reads and writes named blobs. Implementations must be safe
// for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Put writes a blob atomically: readers either see the previous
	// content or the full new content, never a partial write.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the blob names starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to one blob.
type Blob interface {
	io.ReaderAt
	io.Closer

	// Size returns the blob length in bytes.
	Size() int64
}

// Mappable is implemented by blobs whose contents are addressable without
// copying. The returned slice is valid until the blob is closed.
type Mappable interface {
	Bytes() ([]byte, error)
}

// ReadAll returns a copy of the blob's full contents. Mappable blobs are
// copied straight out of the mapping; others are drained through ReadAt.
func ReadAll(b Blob) ([]byte, error) {
	out := make([]byte, b.Size())

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err == nil {
			copy(out, data)
			return out, nil
		}
	}

	if _, err := io.ReadFull(io.NewSectionReader(b, 0, b.Size()), out); err != nil {
		return nil, err
	}
	return out, nil
}
