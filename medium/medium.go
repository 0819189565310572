// Package medium defines the durable key-value medium that backs the
// persisted cache stores.
//
// A persisted store keeps its entire entry map as one value under a single
// storage key, so a medium only needs whole-value reads and writes. Values
// must round-trip byte-for-byte: GetItem returns exactly what SetItem stored.
//
// Clear drops every item the medium owns. Adapters over shared backends
// (Redis, a directory) scope Clear to their own namespace.
package medium

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNilClient = errors.New("medium: nil client")
	// ErrRejected is returned when a lossy backend declined a write.
	ErrRejected = errors.New("medium: write rejected")
)

// Medium is a minimal durable key-value store.
type Medium interface {
	// GetItem returns (value, true, nil) on hit and (nil, false, nil) on miss.
	GetItem(ctx context.Context, key string) ([]byte, bool, error)
	SetItem(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
	Close(ctx context.Context) error
}

// Memory is a process-local medium. Its lifetime is the process, which is
// what a session store wants by default.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

var _ Medium = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) GetItem(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	v, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) SetItem(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.items[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	clear(m.items)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }
