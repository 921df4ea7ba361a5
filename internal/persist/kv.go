// Package persist provides the key/value persistence the viewer uses for the
// saved-molecule index and panel-collapse flags. Values are opaque JSON blobs
// keyed by bucket name; corrupted or missing values always fall back to
// defaults at the call site, never to a fatal error.
package persist

import (
	"context"
	"sync"
)

// KV is a minimal bucket/payload store.
type KV interface {
	// Get returns the payload for a bucket. found is false when the bucket
	// has never been written.
	Get(ctx context.Context, bucket string) (payload []byte, found bool, err error)

	// Put writes the payload for a bucket, replacing any previous value.
	Put(ctx context.Context, bucket string, payload []byte) error

	// Delete removes a bucket. Deleting a missing bucket is not an error.
	Delete(ctx context.Context, bucket string) error

	Close() error
}

// MemoryKV is an in-memory KV, used in tests and as the fallback when the
// on-disk store cannot be opened.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(ctx context.Context, bucket string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.data[bucket]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, true, nil
}

func (m *MemoryKV) Put(ctx context.Context, bucket string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.data[bucket] = cp
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, bucket)
	return nil
}

func (m *MemoryKV) Close() error { return nil }
