package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rangego/blobstore"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	store := NewStore(s3.NewFromConfig(cfg), bucket, func(o *Options) {
		o.Prefix = fmt.Sprintf("rangego-it-%d", time.Now().UnixNano())
	})

	data := []byte("1,2,3\n4,5,6\n7,8,9\n")
	require.NoError(t, store.Put(ctx, "cloud.csv", data))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "cloud.csv")

	b, err := store.Open(ctx, "cloud.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), b.Size())

	got, err := blobstore.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	require.NoError(t, b.Close())

	require.NoError(t, store.Delete(ctx, "cloud.csv"))
	_, err = store.Open(ctx, "cloud.csv")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
