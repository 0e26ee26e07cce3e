package minio

import (
	"os"
	"testing"

	"github.com/hupe1980/hepio/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_KeyMapping(t *testing.T) {
	s := NewStore(nil, "bucket", "/runs/")
	assert.Equal(t, "runs/testevents.root", s.key("testevents.root"))
	assert.Equal(t, "testevents.root", s.name("runs/testevents.root"))

	bare := NewStore(nil, "bucket", "")
	assert.Equal(t, "a.root", bare.key("a.root"))
	assert.Equal(t, "a.root", bare.name("a.root"))
}

// TestStore_Integration requires a running MinIO instance.
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	bucket := "test-hepio"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := t.Context()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.root", data))

	got, err := blobstore.ReadAll(ctx, store, "test.root")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.root")

	require.NoError(t, store.Delete(ctx, "test.root"))
	_, err = store.Open(ctx, "test.root")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	w, err := store.Create(ctx, "stream.root")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := store.Open(ctx, "stream.root")
	require.NoError(t, err)
	assert.Equal(t, int64(13), b.Size())
	require.NoError(t, b.Close())
	_ = store.Delete(ctx, "stream.root")
}
