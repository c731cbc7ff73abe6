package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// inFlight marks a key whose first request is still executing. Stored responses are
// JSON objects, so the marker never collides with one.
const inFlight = "in-flight"

// releaseScript deletes a key only while it still holds the in-flight marker.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyCache implements ports.IdempotencyCache using Redis.
type IdempotencyCache struct {
	client goredis.UniversalClient
	prefix string
}

// NewIdempotencyCache creates a Redis-backed store for replayable responses.
func NewIdempotencyCache(client goredis.UniversalClient) *IdempotencyCache {
	return &IdempotencyCache{client: client, prefix: keyspace + "idem:"}
}

// Reserve claims key for one executing request. It reports false when the key is already
// reserved or holds a stored response.
func (c *IdempotencyCache) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.prefix+key, inFlight, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis idempotency reserve: %w", err)
	}
	return ok, nil
}

// Get returns the stored response for key, or nil, nil if there is none or the key is
// only reserved.
func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis idempotency get: %w", err)
	}
	if string(val) == inFlight {
		return nil, nil
	}
	return val, nil
}

// Set stores the response, replacing the reservation.
func (c *IdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis idempotency set: %w", err)
	}
	return nil
}

// Release drops an unfinished reservation so the key can be retried. A stored response
// is left in place.
func (c *IdempotencyCache) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, c.client, []string{c.prefix + key}, inFlight).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis idempotency release: %w", err)
	}
	return nil
}
