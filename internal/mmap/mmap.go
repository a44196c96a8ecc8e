// Package mmap provides read-only memory-mapped file access.
//
// Snapshot and point-cloud files are mapped instead of read so the page
// cache serves repeated access without copies. The API is deliberately
// small: Open a path, read through Bytes or ReadAt, Close once.
package mmap

import (
	"errors"
	"io"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned when accessing a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")

	// ErrInvalidSize is returned when the file size cannot be mapped.
	ErrInvalidSize = errors.New("mmap: invalid file size")

	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)

// AccessPattern hints the kernel about the expected access order.
type AccessPattern int

const (
	// AccessDefault leaves the kernel's readahead policy untouched.
	AccessDefault AccessPattern = iota
	// AccessSequential expects front-to-back reads.
	AccessSequential
	// AccessRandom expects scattered reads.
	AccessRandom
)

// Mapping is a read-only memory-mapped file. It owns the mapped bytes and
// unmaps them on Close.
type Mapping struct {
	data   []byte
	size   int
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path read-only. The file descriptor is released
// before returning; the mapping keeps the pages alive.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size < 0 || size != int64(int(size)) {
		return nil, ErrInvalidSize
	}
	if size == 0 {
		return &Mapping{}, nil
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}

	return &Mapping{data: data, size: int(size), unmap: unmap}, nil
}

// Close unmaps the memory. It is idempotent. Callers must not touch
// slices returned by Bytes after Close.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.unmap != nil && m.data != nil {
		return m.unmap(m.data)
	}
	return nil
}

// Bytes returns the mapped contents, or nil once closed.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the mapped length in bytes.
func (m *Mapping) Size() int {
	return m.size
}

// Advise hints the kernel about the upcoming access pattern.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// ReadAt implements io.ReaderAt over the mapped contents.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
