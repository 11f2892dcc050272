package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs the correlation store with a shared Redis instance, for
// multi-node hosts where the auth URL and the callback can be served by
// different processes.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. An empty prefix defaults to
// "socialkit:cache:".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "socialkit:cache:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Set(key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0 // no expiry
	}
	if err := r.client.Set(context.Background(), r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set failed: %w", err)
	}
	return nil
}

func (r *Redis) Get(key string) ([]byte, error) {
	value, err := r.client.Get(context.Background(), r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis cache: get failed: %w", err)
	}
	return value, nil
}

// Delete removes the key and returns the previous value in a single
// round trip, so the consume-once read stays atomic across nodes.
func (r *Redis) Delete(key string) ([]byte, error) {
	value, err := r.client.GetDel(context.Background(), r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis cache: delete failed: %w", err)
	}
	return value, nil
}
