package catalog

import (
	"context"
	"sync"
)

// Blob is the durable home of the serialized catalog: one opaque value read and
// written as a whole.
type Blob interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
}

type MemBlob struct {
	mu   sync.RWMutex
	data []byte
	set  bool
}

func NewMemBlob() *MemBlob {
	return &MemBlob{}
}

func (b *MemBlob) Ping(ctx context.Context) error { return nil }

func (b *MemBlob) Read(ctx context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.set {
		return nil, ErrBlobMissing
	}
	return append([]byte(nil), b.data...), nil
}

func (b *MemBlob) Write(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data[:0], data...)
	b.set = true
	return nil
}
