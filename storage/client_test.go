package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "test-bucket"

func newTestClient(t *testing.T) (*Client, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend()
	t.Cleanup(backend.Reset)
	return NewClient(backend, testBucket), backend
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	want := []byte("image bytes")
	require.NoError(t, client.Put(ctx, "private/products/p1/images/i1.png", want, "image/png"))

	got, err := client.Get(ctx, "private/products/p1/images/i1.png")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPutOverwritesInPlace(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	key := "public/a/b.png"
	require.NoError(t, client.Put(ctx, key, []byte("first"), "image/png"))
	require.NoError(t, client.Put(ctx, key, []byte("second"), "image/png"))

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestPutValidation(t *testing.T) {
	ctx := context.Background()
	client, backend := newTestClient(t)

	tests := []struct {
		name string
		key  string
		data []byte
		kind ErrorKind
	}{
		{"missing key", "", []byte("x"), KindKeyRequired},
		{"malformed key", "not a key!", []byte("x"), KindKeyInvalid},
		{"missing data", "public/a/b.png", nil, KindDataRequired},
		{"empty data", "public/a/b.png", []byte{}, KindDataInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Put(ctx, tt.key, tt.data, "image/png")
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}

	// validation happens before any backend call
	assert.False(t, backend.Exists(testBucket, "public/a/b.png"))
}

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	_, err := client.Get(ctx, "public/a/missing.png")
	assert.True(t, IsNotFound(err))
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	require.NoError(t, client.Put(ctx, "private/a/src.png", []byte("payload"), "image/png"))
	require.NoError(t, client.Copy(ctx, "public/a/dst.png", "private/a/src.png"))

	got, err := client.Get(ctx, "public/a/dst.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	// source still present
	_, err = client.Get(ctx, "private/a/src.png")
	assert.NoError(t, err)
}

func TestCopyValidatesBothSidesDistinctly(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	assert.True(t, IsKind(client.Copy(ctx, "", "private/a/src.png"), KindKeyRequired))
	assert.True(t, IsKind(client.Copy(ctx, "bad dest!", "private/a/src.png"), KindKeyInvalid))
	assert.True(t, IsKind(client.Copy(ctx, "public/a/dst.png", ""), KindSourceKeyRequired))
	assert.True(t, IsKind(client.Copy(ctx, "public/a/dst.png", "bad src!"), KindSourceKeyInvalid))
}

func TestCopyMissingSource(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	err := client.Copy(ctx, "public/a/dst.png", "private/a/missing.png")
	assert.True(t, IsNotFound(err))
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	client, backend := newTestClient(t)

	require.NoError(t, client.Put(ctx, "private/a/src.png", []byte("payload"), "image/png"))
	require.NoError(t, client.Move(ctx, "pending-deletion/a/src.png", "private/a/src.png"))

	got, err := client.Get(ctx, "pending-deletion/a/src.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
	assert.False(t, backend.Exists(testBucket, "private/a/src.png"))
}

func TestMoveMissingSourceLeavesDestinationUntouched(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	require.NoError(t, client.Put(ctx, "public/a/dst.png", []byte("existing"), "image/png"))

	err := client.Move(ctx, "public/a/dst.png", "private/a/missing.png")
	assert.True(t, IsNotFound(err))

	got, err := client.Get(ctx, "public/a/dst.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("existing"), got)
}

func TestDeleteManyIdempotent(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	require.NoError(t, client.Put(ctx, "public/a/b.png", []byte("x"), "image/png"))
	require.NoError(t, client.DeleteMany(ctx, []string{"public/a/b.png", "public/a/never-existed.png"}))

	_, err := client.Get(ctx, "public/a/b.png")
	assert.True(t, IsNotFound(err))
}

func TestDeleteManyFailFastValidation(t *testing.T) {
	ctx := context.Background()
	client, backend := newTestClient(t)

	require.NoError(t, client.Put(ctx, "public/a/b.png", []byte("x"), "image/png"))

	assert.True(t, IsKind(client.DeleteMany(ctx, nil), KindListRequired))
	assert.True(t, IsKind(client.DeleteMany(ctx, []string{"public/a/b.png", ""}), KindItemRequired))
	assert.True(t, IsKind(client.DeleteMany(ctx, []string{"public/a/b.png", "bad key!"}), KindItemInvalid))

	// nothing was deleted by the rejected calls
	assert.True(t, backend.Exists(testBucket, "public/a/b.png"))
}

func TestListSynthesizesDirectories(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	require.NoError(t, client.Put(ctx, "a/x.jpg", []byte("1"), "image/jpeg"))
	require.NoError(t, client.Put(ctx, "a/b/y.png", []byte("2"), "image/png"))
	require.NoError(t, client.Put(ctx, "a/b/z.png", []byte("3"), "image/png"))

	entries, err := client.List(ctx, "a/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/x.jpg", "a/b/"}, entries)
}

func TestListNormalizesPrefixAndValidates(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	require.NoError(t, client.Put(ctx, "a/b/y.png", []byte("2"), "image/png"))

	// no trailing slash on the directory argument
	entries, err := client.List(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/"}, entries)

	_, err = client.List(ctx, "")
	assert.True(t, IsKind(err, KindDirectoryRequired))
	_, err = client.List(ctx, "bad dir!")
	assert.True(t, IsKind(err, KindDirectoryInvalid))
}

func TestListDeepHierarchy(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	require.NoError(t, client.Put(ctx, "public/products/p1/images/i1.png", []byte("1"), "image/png"))
	require.NoError(t, client.Put(ctx, "public/products/p1/images/i2.png", []byte("2"), "image/png"))
	require.NoError(t, client.Put(ctx, "public/products/p2/images/i3.png", []byte("3"), "image/png"))

	entries, err := client.List(ctx, "public/products/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"public/products/p1/", "public/products/p2/"}, entries)

	entries, err = client.List(ctx, "public/products/p1/images/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"public/products/p1/images/i1.png",
		"public/products/p1/images/i2.png",
	}, entries)
}
