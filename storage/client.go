package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Client is the only component that talks to the blob backend. Every argument
// is validated before a network call is made; only NotFound and raw I/O errors
// can surface afterwards.
type Client struct {
	backend Backend
	bucket  string

	ensureOnce sync.Once
	ensureErr  error
}

func NewClient(backend Backend, bucket string) *Client {
	return &Client{
		backend: backend,
		bucket:  bucket,
	}
}

// ensure lazily creates the backing bucket on first use.
func (c *Client) ensure(ctx context.Context) error {
	c.ensureOnce.Do(func() {
		c.ensureErr = c.backend.EnsureBucket(ctx, c.bucket)
	})
	return c.ensureErr
}

// Put stores data under key, overwriting any existing payload in place.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return newError(KindKeyRequired, "object key is required")
	}
	if !IsValidKey(key) {
		return newError(KindKeyInvalid, "invalid object key: %s", key)
	}
	if data == nil {
		return newError(KindDataRequired, "object data is required")
	}
	if len(data) == 0 {
		return newError(KindDataInvalid, "object data cannot be empty")
	}

	if err := c.ensure(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}

	if err := c.backend.PutObject(ctx, c.bucket, key, data, contentType); err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Get reads the payload stored under key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, newError(KindKeyRequired, "object key is required")
	}
	if !IsValidKey(key) {
		return nil, newError(KindKeyInvalid, "invalid object key: %s", key)
	}

	if err := c.ensure(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	data, err := c.backend.GetObject(ctx, c.bucket, key)
	if err != nil {
		if err == ErrObjectNotExist {
			return nil, newError(KindNotFound, "object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return data, nil
}

// Copy duplicates sourceKey under destKey, overwriting destKey if present.
func (c *Client) Copy(ctx context.Context, destKey, sourceKey string) error {
	if destKey == "" {
		return newError(KindKeyRequired, "destination key is required")
	}
	if !IsValidKey(destKey) {
		return newError(KindKeyInvalid, "invalid destination key: %s", destKey)
	}
	if sourceKey == "" {
		return newError(KindSourceKeyRequired, "source key is required")
	}
	if !IsValidKey(sourceKey) {
		return newError(KindSourceKeyInvalid, "invalid source key: %s", sourceKey)
	}

	if err := c.ensure(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}

	if err := c.backend.CopyObject(ctx, c.bucket, destKey, sourceKey); err != nil {
		if err == ErrObjectNotExist {
			return newError(KindNotFound, "source object not found: %s", sourceKey)
		}
		return fmt.Errorf("failed to copy object %s to %s: %w", sourceKey, destKey, err)
	}
	return nil
}

// Move is Copy followed by deletion of the source. The two steps are not
// atomic: a failure between them leaves the object present at both keys.
func (c *Client) Move(ctx context.Context, destKey, sourceKey string) error {
	if err := c.Copy(ctx, destKey, sourceKey); err != nil {
		return err
	}
	return c.DeleteMany(ctx, []string{sourceKey})
}

// DeleteMany removes the given keys. The whole list is validated before any
// deletion is attempted; deleting a nonexistent key is not an error.
func (c *Client) DeleteMany(ctx context.Context, keys []string) error {
	if keys == nil {
		return newError(KindListRequired, "key list is required")
	}
	for i, key := range keys {
		if key == "" {
			return newError(KindItemRequired, "key list item %d is empty", i)
		}
		if !IsValidKey(key) {
			return newError(KindItemInvalid, "key list item %d is invalid: %s", i, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.ensure(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}

	if err := c.backend.RemoveObjects(ctx, c.bucket, keys); err != nil {
		return fmt.Errorf("failed to delete objects: %w", err)
	}
	return nil
}

// List returns the direct children of directory: leaf objects by their full
// key, and one synthesized "name/" entry per distinct subdirectory.
func (c *Client) List(ctx context.Context, directory string) ([]string, error) {
	if directory == "" {
		return nil, newError(KindDirectoryRequired, "directory is required")
	}
	if !isValidDirectory(directory) {
		return nil, newError(KindDirectoryInvalid, "invalid directory: %s", directory)
	}

	prefix := directory
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	if err := c.ensure(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	objects, err := c.backend.ListObjects(ctx, c.bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
	}

	// Flat key/value storage emulating a filesystem: collapse everything
	// below the first segment into one directory entry.
	var entries []string
	seenDirs := make(map[string]bool)
	for _, obj := range objects {
		remainder := strings.TrimPrefix(obj.Key, prefix)
		if remainder == "" {
			continue
		}
		if idx := strings.Index(remainder, "/"); idx >= 0 {
			dir := prefix + remainder[:idx+1]
			if !seenDirs[dir] {
				seenDirs[dir] = true
				entries = append(entries, dir)
			}
			continue
		}
		entries = append(entries, obj.Key)
	}
	sort.Strings(entries)
	return entries, nil
}
