package storage

import (
	"context"
	"time"
)

// ObjectInfo describes one stored object as reported by a Backend listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Backend is the minimum surface of an S3-compatible object store the client
// needs. Implementations map their own not-found signal to ErrObjectNotExist.
type Backend interface {
	// EnsureBucket creates the bucket if it does not exist and applies the
	// default access policy (anonymous read under public/*).
	EnsureBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	CopyObject(ctx context.Context, bucket, destKey, sourceKey string) error
	// RemoveObjects deletes the given keys; missing keys are not an error.
	RemoveObjects(ctx context.Context, bucket string, keys []string) error
	// ListObjects returns every object whose key starts with prefix,
	// recursively, in lexical order.
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}
