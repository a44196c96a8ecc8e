// Package s3 provides an Amazon S3 implementation of
// blobstore.BlobStore.
//
// Reads use ranged GetObject calls so snapshot headers can be inspected
// without pulling whole objects; writes go through the upload manager,
// which switches to multipart once a blob crosses the part size.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/rangego/blobstore"
)

// Client is the subset of the S3 API the store depends on. *s3.Client
// satisfies it; tests substitute a mock.
type Client interface {
	manager.UploadAPIClient

	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Options configures the store.
type Options struct {
	// Prefix is prepended to every blob name, e.g. "clouds/".
	Prefix string

	// PartSize is the multipart upload part size in bytes.
	PartSize int64

	// Concurrency is the number of parallel part uploads.
	Concurrency int

	// Checksum enables CRC32C integrity validation on uploads.
	Checksum bool
}

// DefaultOptions holds the default store options.
var DefaultOptions = Options{
	PartSize:    8 * 1024 * 1024,
	Concurrency: 5,
	Checksum:    true,
}

// Compile time check to ensure Store satisfies the BlobStore interface.
var _ blobstore.BlobStore = (*Store)(nil)

// Store implements blobstore.BlobStore on an S3 bucket.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	opts     Options
}

// NewStore creates a store on the given bucket.
func NewStore(client Client, bucket string, optFns ...func(o *Options)) *Store {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = opts.PartSize
		u.Concurrency = opts.Concurrency
	})

	return &Store{
		client:   client,
		uploader: uploader,
		bucket:   bucket,
		opts:     opts,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.opts.Prefix, name)
}

// Open verifies the object exists and returns a ranged-read blob. Reads
// on the blob inherit ctx.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		var nsk *types.NoSuchKey
		if errors.As(err, &nf) || errors.As(err, &nsk) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &remoteBlob{
		ctx:    ctx,
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// Put uploads the blob through the upload manager.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	}
	if s.opts.Checksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	_, err := s.uploader.Upload(ctx, input)
	return err
}

// Delete removes the object. S3 delete is idempotent already.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List pages through the bucket and returns names under the store
// prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := aws.ToString(obj.Key)
			if s.opts.Prefix != "" {
				name = strings.TrimPrefix(name, s.opts.Prefix)
				name = strings.TrimPrefix(name, "/")
			}
			if name != "" {
				names = append(names, name)
			}
		}
	}

	sort.Strings(names)
	return names, nil
}

type remoteBlob struct {
	ctx    context.Context
	client Client
	bucket string
	key    string
	size   int64
}

func (b *remoteBlob) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	resp, err := b.client.GetObject(b.ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	want := int(end - off + 1)
	n, err := io.ReadFull(resp.Body, p[:want])
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *remoteBlob) Close() error {
	return nil
}

func (b *remoteBlob) Size() int64 {
	return b.size
}
