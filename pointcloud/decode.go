package pointcloud

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression magic bytes.
var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// AutoDecompress wraps r with the decompressor matching its leading magic
// bytes. Gzip, zstd, and lz4 frames are recognized; anything else passes
// through unchanged. The returned reader must be closed to release
// decompressor resources.
func AutoDecompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(4)
	if err != nil && len(head) == 0 {
		// Empty or unreadable source; let the parser report it.
		return io.NopCloser(br), nil
	}

	switch {
	case hasMagic(head, magicGzip):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("pointcloud: gzip: %w", err)
		}
		return zr, nil

	case hasMagic(head, magicZstd):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("pointcloud: zstd: %w", err)
		}
		return zr.IOReadCloser(), nil

	case hasMagic(head, magicLZ4):
		return io.NopCloser(lz4.NewReader(br)), nil

	default:
		return io.NopCloser(br), nil
	}
}

func hasMagic(head, magic []byte) bool {
	if len(head) < len(magic) {
		return false
	}
	for i := range magic {
		if head[i] != magic[i] {
			return false
		}
	}
	return true
}
