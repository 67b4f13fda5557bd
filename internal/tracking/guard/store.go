// Package guard prevents duplicate emission of logically identical events.
// Guard state is best-effort: the backing store may be unavailable, and
// every failure degrades toward "assume not yet fired" rather than an
// error surfacing to the caller.
package guard

import (
	"context"
	"sync"
	"time"
)

// Store is the key-value medium backing guard state. The pipeline runs on
// a concurrent host, so the at-most-once contract rests on SetIfAbsent
// being atomic per key.
type Store interface {
	// Get returns the stored value, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	// SetIfAbsent stores value under key only when the key is absent.
	// Returns true when this call created the entry. A non-positive ttl
	// means no expiry.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Delete removes the key.
	Delete(ctx context.Context, key string) error
}

// MemoryStore is the in-process Store used in tests and when Redis is not
// configured. Entries live for the process lifetime; TTLs are ignored.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key], nil
}

func (s *MemoryStore) SetIfAbsent(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; exists {
		return false, nil
	}
	s.entries[key] = value
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

var _ Store = (*MemoryStore)(nil)
