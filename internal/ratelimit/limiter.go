package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of a rate-limit check
type Result struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Limiter counts requests per identifier in fixed windows. It is
// instantiated once at process start and passed by reference to
// handlers; swapping the Store swaps the backing strategy without
// touching call sites.
type Limiter struct {
	store Store
}

// NewLimiter creates a limiter over the given store. A nil store gets an
// in-memory one.
func NewLimiter(store Store) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Limiter{store: store}
}

// Check records one request for the identifier and reports whether it is
// within maxRequests per window.
func (l *Limiter) Check(ctx context.Context, identifier string, maxRequests int, window time.Duration) (Result, error) {
	count, resetAt, err := l.store.Increment(ctx, identifier, window)
	if err != nil {
		return Result{}, err
	}

	remaining := maxRequests - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= maxRequests,
		Limit:     maxRequests,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Sweep removes expired entries from the backing store
func (l *Limiter) Sweep(ctx context.Context) int {
	return l.store.Sweep(ctx)
}
