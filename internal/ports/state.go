package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheError wraps StatePort backend failures.
var ErrCacheError = errors.New("ports: state backend error")

// StatePort is a namespaced key/value store with optional TTL, used for
// idempotency keys and checkpoints outside the core.
type StatePort interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, namespace, key string) error
}

// RedisStateAdapter implements StatePort against Redis.
type RedisStateAdapter struct {
	client *redis.Client
}

// NewRedisStateAdapter connects to addr and verifies reachability.
func NewRedisStateAdapter(ctx context.Context, addr string) (*RedisStateAdapter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 0})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to connect to redis: %v", ErrCacheError, err)
	}
	return &RedisStateAdapter{client: client}, nil
}

func namespacedKey(namespace, key string) string {
	return namespace + ":" + key
}

// Get returns the raw value stored at (namespace, key), or ErrNoData if
// unset.
func (a *RedisStateAdapter) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	data, err := a.client.Get(ctx, namespacedKey(namespace, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("%w: %v", ErrCacheError, err)
	}
	return data, nil
}

// Set stores value at (namespace, key). A zero ttl means no expiry.
func (a *RedisStateAdapter) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if err := a.client.Set(ctx, namespacedKey(namespace, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheError, err)
	}
	return nil
}

// Delete removes the value at (namespace, key), if present.
func (a *RedisStateAdapter) Delete(ctx context.Context, namespace, key string) error {
	if err := a.client.Del(ctx, namespacedKey(namespace, key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheError, err)
	}
	return nil
}
