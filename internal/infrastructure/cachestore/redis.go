package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wallet_balances/internal/app/port"
)

// RedisStore is the durable CacheStore backend. It shares one keyspace across
// all tiers; keys already carry their tier prefix.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, address, username, password string, db int, keyPrefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis at %s: %w", address, err)
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}, nil
}

// Get implements port.CacheStore.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting key %s: %w", key, err)
	}
	return raw, true, nil
}

// Set implements port.CacheStore. A zero ttlHint persists the entry without
// expiration (the metadata tier is permanent).
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttlHint time.Duration) error {
	if ttlHint < 0 {
		ttlHint = 0
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttlHint).Err(); err != nil {
		return fmt.Errorf("setting key %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ port.CacheStore = (*RedisStore)(nil)
