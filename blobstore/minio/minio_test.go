package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rangego/blobstore"
)

// TestIntegration_MinioStore requires a running MinIO instance, e.g.
//
//	docker run -p 9000:9000 minio/minio server /data
//
// and MINIO_ENDPOINT set to its address.
func TestIntegration_MinioStore(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping MinIO integration test: MINIO_ENDPOINT not set")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err)

	ctx := context.Background()
	bucket := "rangego-test"

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		t.Skipf("MinIO not reachable: %v", err)
	}
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "it/")

	data := []byte("0.5,1.5,2.5\n3.5,4.5,5.5\n")
	require.NoError(t, store.Put(ctx, "cloud.csv", data))

	t.Run("OpenAndReadAt", func(t *testing.T) {
		b, err := store.Open(ctx, "cloud.csv")
		require.NoError(t, err)
		defer b.Close()

		assert.Equal(t, int64(len(data)), b.Size())

		buf := make([]byte, len(data))
		n, err := b.ReadAt(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, data, buf[:n])

		// Ranged read.
		part := make([]byte, 3)
		_, err = b.ReadAt(part, 4)
		require.NoError(t, err)
		assert.Equal(t, "1.5", string(part))

		// Tail read returns EOF with the remaining bytes.
		tail := make([]byte, 10)
		n, err = b.ReadAt(tail, int64(len(data)-4))
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, 4, n)
	})

	t.Run("List", func(t *testing.T) {
		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, names, "cloud.csv")
	})

	t.Run("OpenMissing", func(t *testing.T) {
		_, err := store.Open(ctx, "absent")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "cloud.csv"))
		_, err := store.Open(ctx, "cloud.csv")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)

		require.NoError(t, store.Delete(ctx, "cloud.csv"), "delete is idempotent")
	})
}
