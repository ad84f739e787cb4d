package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis mirrors cache entries in a shared Redis, so that several gateway
// processes share their upstream answers.
//
// Values are stored as JSON with a Redis side expiry.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis connects to addr and pings it.
func NewRedis(ctx context.Context, addr, password string, db int, prefix string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisClient(rdb, prefix), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) key(k string) string { return r.prefix + k }

// Store saves v under key for ttl.
func (r *Redis) Store(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot encode cache value for %q: %w", key, err)
	}
	if err := r.rdb.Set(ctx, r.key(key), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Load decodes the value stored under key into v and reports whether it was
// found.
func (r *Redis) Load(ctx context.Context, key string, v any) (bool, error) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %q: %w", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("cannot decode cache value for %q: %w", key, err)
	}
	return true, nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error { return r.rdb.Close() }
