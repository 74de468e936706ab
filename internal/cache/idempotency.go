// Package cache holds the idempotency keys used to reject replayed
// sale-creating requests.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a key stays reserved.
const DefaultTTL = 24 * time.Hour

// IdempotencyStore reserves request keys.
type IdempotencyStore interface {
	// Reserve returns true if key was free and is now held for ttl,
	// false if it is already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees key so the request can be retried.
	Release(ctx context.Context, key string) error
	Close() error
}

// InMemoryIdempotencyStore keeps keys in a map. Suitable for single-instance
// deployments and tests.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewInMemoryIdempotencyStore creates an empty store.
func NewInMemoryIdempotencyStore(now func() time.Time) *InMemoryIdempotencyStore {
	if now == nil {
		now = time.Now
	}
	return &InMemoryIdempotencyStore{entries: make(map[string]time.Time), now: now}
}

func (s *InMemoryIdempotencyStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, k)
		}
	}
	if _, held := s.entries[key]; held {
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *InMemoryIdempotencyStore) Close() error { return nil }

var _ IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
