package routestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key used when none is configured.
const DefaultRedisKey = "rewriter:routes"

// RedisBackend stores the table as a JSON array under a single key, the
// same whole-value layout an options table would use.
type RedisBackend struct {
	client *backend.Client
	key    string
}

// NewRedisBackend returns a backend using an existing client.
func NewRedisBackend(client *backend.Client, key string) *RedisBackend {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{client: client, key: key}
}

// DialRedis creates a client for the given address and returns a backend
// using it.
func DialRedis(addr, password string, db int, key string) *RedisBackend {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisBackend(client, key)
}

// Ping checks connectivity.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Load reads the table from the key. A missing key is an empty table.
func (b *RedisBackend) Load(ctx context.Context) ([]Route, error) {
	val, err := b.client.Get(ctx, b.key).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return []Route{}, nil
		}
		return nil, fmt.Errorf("failed to get routes from redis: %w", err)
	}

	var routes []Route
	if err := json.Unmarshal([]byte(val), &routes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal routes: %w", err)
	}

	return clone(routes), nil
}

// Save overwrites the key with routes encoded as JSON.
func (b *RedisBackend) Save(ctx context.Context, routes []Route) error {
	data, err := json.Marshal(clone(routes))
	if err != nil {
		return fmt.Errorf("failed to marshal routes: %w", err)
	}

	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save routes to redis: %w", err)
	}

	return nil
}

// Close closes the underlying client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
