package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryBackend is an in-memory Backend used as a test stand-in for the real
// object store. All state lives on the struct; Reset restores a clean slate
// between tests.
type MemoryBackend struct {
	mu       sync.Mutex
	buckets  map[string]map[string][]byte
	policies map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		buckets:  make(map[string]map[string][]byte),
		policies: make(map[string]string),
	}
}

func (b *MemoryBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buckets = make(map[string]map[string][]byte)
	b.policies = make(map[string]string)
}

func (b *MemoryBackend) EnsureBucket(ctx context.Context, bucket string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.buckets[bucket]; !ok {
		b.buckets[bucket] = make(map[string][]byte)
		b.policies[bucket] = "public-read:public/*"
	}
	return nil
}

func (b *MemoryBackend) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	objects := b.buckets[bucket]
	if objects == nil {
		objects = make(map[string][]byte)
		b.buckets[bucket] = objects
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	objects[key] = buf
	return nil
}

func (b *MemoryBackend) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.buckets[bucket][key]
	if !ok {
		return nil, ErrObjectNotExist
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (b *MemoryBackend) CopyObject(ctx context.Context, bucket, destKey, sourceKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	objects := b.buckets[bucket]
	data, ok := objects[sourceKey]
	if !ok {
		return ErrObjectNotExist
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	objects[destKey] = buf
	return nil
}

func (b *MemoryBackend) RemoveObjects(ctx context.Context, bucket string, keys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	objects := b.buckets[bucket]
	for _, key := range keys {
		delete(objects, key)
	}
	return nil
}

func (b *MemoryBackend) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var infos []ObjectInfo
	for key, data := range b.buckets[bucket] {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, ObjectInfo{
				Key:          key,
				Size:         int64(len(data)),
				LastModified: time.Now(),
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Exists reports whether a key is present; test helper.
func (b *MemoryBackend) Exists(bucket, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.buckets[bucket][key]
	return ok
}
