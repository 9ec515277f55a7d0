package store

import (
	"context"
	"sync"
)

// MemoryBackend holds the roster document in process memory. State is lost on restart.
type MemoryBackend struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Read(ctx context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return nil, ErrNoRoster
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (b *MemoryBackend) Write(ctx context.Context, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)
	b.mu.Lock()
	b.data = stored
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

var _ Backend = (*MemoryBackend)(nil)
