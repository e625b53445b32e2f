package blob

import (
	"context"
	"sync"
)

// MemoryStore implements Store using an in-memory map.
// Useful for testing and demos. Not persistent.
type MemoryStore struct {
	payloads map[string][]byte
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payloads: make(map[string][]byte),
	}
}

// Put stores a payload in memory.
func (s *MemoryStore) Put(ctx context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payloads[key]; exists {
		return ErrBlobExists
	}

	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.payloads[key] = stored
	return nil
}

// Get retrieves a payload by key.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.payloads[key]
	if !ok {
		return nil, ErrBlobNotFound
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// Delete removes a payload by key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.payloads, key)
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
