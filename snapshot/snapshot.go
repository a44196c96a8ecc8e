// Package snapshot persists built batch indexes so later runs can load
// them instead of rebuilding.
//
// A snapshot is self-describing: magic, format version and codec name
// come first, then a codec-encoded metadata header, then one
// zstd-compressed block per batch index. Files written with any built-in
// codec load back regardless of the current default.
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/rangego/blobstore"
	"github.com/hupe1980/rangego/codec"
	"github.com/hupe1980/rangego/index/bvh"
)

// Version is the current snapshot format version.
const Version = 1

var magic = [4]byte{'R', 'G', 'S', '1'}

const (
	maxCodecNameLen = 255
	maxMetadataLen  = 1 << 20
	maxBlockLen     = 1 << 31
)

var (
	// ErrInvalidMagic is returned when the file does not start with the
	// snapshot magic.
	ErrInvalidMagic = errors.New("snapshot: invalid magic")

	// ErrUnsupportedVersion is returned for format versions this build
	// cannot read.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")

	// ErrUnknownCodec is returned when the header names a codec this
	// build does not ship.
	ErrUnknownCodec = errors.New("snapshot: unknown codec")

	// ErrCorrupt is returned when the file structure is inconsistent.
	ErrCorrupt = errors.New("snapshot: corrupt file")
)

// Metadata describes the dataset the snapshot's indexes were built from.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	Points    int       `json:"points"`
	Dim       int       `json:"dim"`
	PaddedDim int       `json:"padded_dim"`
	Batches   int       `json:"batches"`
	Radius    float32   `json:"radius"`
	Backend   string    `json:"backend"`
}

// Snapshot bundles the batch indexes with their metadata.
type Snapshot struct {
	Meta  Metadata
	Trees []*bvh.Tree
}

// Options configures snapshot writing.
type Options struct {
	// Codec encodes the metadata header.
	Codec codec.Codec

	// Level is the zstd compression level for the index blocks.
	Level zstd.EncoderLevel
}

// DefaultOptions holds the default write options.
var DefaultOptions = Options{
	Codec: codec.Default,
	Level: zstd.SpeedDefault,
}

// Write serializes the snapshot to w.
func Write(w io.Writer, snap *Snapshot, optFns ...func(o *Options)) error {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if len(snap.Trees) != snap.Meta.Batches {
		return fmt.Errorf("%w: %d trees for %d batches", ErrCorrupt, len(snap.Trees), snap.Meta.Batches)
	}

	name := opts.Codec.Name()
	if len(name) > maxCodecNameLen {
		return fmt.Errorf("snapshot: codec name %q too long", name)
	}

	header := make([]byte, 0, 16+len(name))
	header = append(header, magic[:]...)
	header = binary.LittleEndian.AppendUint16(header, Version)
	header = append(header, byte(len(name)))
	header = append(header, name...)

	meta, err := opts.Codec.Marshal(snap.Meta)
	if err != nil {
		return fmt.Errorf("snapshot: encode metadata: %w", err)
	}
	header = binary.LittleEndian.AppendUint32(header, uint32(len(meta)))
	header = append(header, meta...)

	if _, err := w.Write(header); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(opts.Level))
	if err != nil {
		return err
	}
	defer enc.Close()

	var frame [4]byte
	for _, tree := range snap.Trees {
		raw, err := tree.MarshalBinary()
		if err != nil {
			return err
		}

		block := enc.EncodeAll(raw, nil)
		binary.LittleEndian.PutUint32(frame[:], uint32(len(block)))
		if _, err := w.Write(frame[:]); err != nil {
			return err
		}
		if _, err := w.Write(block); err != nil {
			return err
		}
	}

	return nil
}

// Read deserializes a snapshot from r.
func Read(r io.Reader) (*Snapshot, error) {
	var head [7]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !bytes.Equal(head[:4], magic[:]) {
		return nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint16(head[4:6]); v != Version {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedVersion, v)
	}

	nameBuf := make([]byte, head[6])
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	c, ok := codec.ByName(string(nameBuf))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, nameBuf)
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	metaLen := binary.LittleEndian.Uint32(lenBuf[:])
	if metaLen > maxMetadataLen {
		return nil, fmt.Errorf("%w: metadata length %d", ErrCorrupt, metaLen)
	}

	metaBuf := make([]byte, metaLen)
	if _, err := io.ReadFull(r, metaBuf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	snap := &Snapshot{}
	if err := c.Unmarshal(metaBuf, &snap.Meta); err != nil {
		return nil, fmt.Errorf("%w: decode metadata: %v", ErrCorrupt, err)
	}
	if snap.Meta.Batches < 0 {
		return nil, fmt.Errorf("%w: negative batch count", ErrCorrupt)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	snap.Trees = make([]*bvh.Tree, 0, snap.Meta.Batches)
	for i := 0; i < snap.Meta.Batches; i++ {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: batch %d: %v", ErrCorrupt, i, err)
		}
		blockLen := binary.LittleEndian.Uint32(lenBuf[:])
		if uint64(blockLen) > maxBlockLen {
			return nil, fmt.Errorf("%w: batch %d block length %d", ErrCorrupt, i, blockLen)
		}

		block := make([]byte, blockLen)
		if _, err := io.ReadFull(r, block); err != nil {
			return nil, fmt.Errorf("%w: batch %d: %v", ErrCorrupt, i, err)
		}

		raw, err := dec.DecodeAll(block, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d: %v", ErrCorrupt, i, err)
		}

		var tree bvh.Tree
		if err := tree.UnmarshalBinary(raw); err != nil {
			return nil, fmt.Errorf("snapshot: batch %d: %w", i, err)
		}
		snap.Trees = append(snap.Trees, &tree)
	}

	// Anything after the last block means the file was not written by
	// this format.
	var trail [1]byte
	if _, err := r.Read(trail[:]); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrCorrupt)
	}

	return snap, nil
}

// Save writes the snapshot to the named blob.
func Save(ctx context.Context, store blobstore.BlobStore, name string, snap *Snapshot, optFns ...func(o *Options)) error {
	var buf bytes.Buffer
	if err := Write(&buf, snap, optFns...); err != nil {
		return err
	}
	return store.Put(ctx, name, buf.Bytes())
}

// Load reads the named blob and deserializes the snapshot.
func Load(ctx context.Context, store blobstore.BlobStore, name string) (*Snapshot, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	data, err := blobstore.ReadAll(b)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data))
}
