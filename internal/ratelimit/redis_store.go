package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore implements Store on Redis so that the counter is shared
// across instances. Window expiry is delegated to key TTLs, so Sweep is
// a no-op here.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	now       func() time.Time
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

// Increment implements Store
func (s *RedisStore) Increment(ctx context.Context, identifier string, window time.Duration) (int, time.Time, error) {
	key := s.keyPrefix + identifier
	now := s.now()

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		return int(count), now.Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if ttl < 0 {
		// Key lost its TTL (e.g. a racing reset); restore the window.
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		ttl = window
	}

	return int(count), now.Add(ttl), nil
}

// Sweep implements Store
func (s *RedisStore) Sweep(ctx context.Context) int {
	return 0
}
