// Package ratelimit provides fixed-window request rate limiting for
// sensitive endpoints, with an in-memory store by default and an optional
// Redis-backed store for multi-instance deployments.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store tracks request counts per identifier within a fixed window.
type Store interface {
	// Increment records one request for the identifier and returns the
	// count within the current window and the window's reset time. A new
	// window starts when the previous one has elapsed.
	Increment(ctx context.Context, identifier string, window time.Duration) (count int, resetAt time.Time, err error)

	// Sweep removes entries whose window has elapsed, bounding memory
	// growth from one-off callers.
	Sweep(ctx context.Context) int
}

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStore is the process-local store. State is not shared across
// instances; a distributed deployment should use the Redis store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Increment implements Store
func (s *MemoryStore) Increment(ctx context.Context, identifier string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	e, ok := s.entries[identifier]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{resetAt: now.Add(window)}
		s.entries[identifier] = e
	}

	e.count++
	return e.count, e.resetAt, nil
}

// Sweep implements Store
func (s *MemoryStore) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identifiers
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
