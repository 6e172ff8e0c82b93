package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCoordinator implements Coordinator on a shared Redis key space.
// SET NX gives the system-wide acquire-if-absent semantics and the
// server-enforced expiry reclaims keys left behind by crashed holders.
type RedisCoordinator struct {
	client *redis.Client
	holder string
}

// NewRedisCoordinator returns a coordinator backed by the given
// client. Each coordinator instance writes an opaque holder marker as
// the key value; the marker identifies the process in debugging
// sessions and is otherwise unused.
func NewRedisCoordinator(client *redis.Client) *RedisCoordinator {
	return &RedisCoordinator{client: client, holder: uuid.NewString()}
}

// Acquire creates key with the given TTL if absent. Any Redis error is
// reported alongside acquired=false so that callers treat an
// unreachable lock store the same as a held lock, never as a free one.
func (c *RedisCoordinator) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, key, c.holder, ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release deletes key unconditionally. Deleting a missing key is a
// no-op in Redis, which gives the required idempotence.
func (c *RedisCoordinator) Release(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
