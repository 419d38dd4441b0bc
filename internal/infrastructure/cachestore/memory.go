package cachestore

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"wallet_balances/internal/app/port"
)

// MemoryStore is the in-process CacheStore backend. Expiry here is only the
// ttlHint-driven eviction; tiers still enforce their own TTLs by comparing
// the cachedAt they embed in their values.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an in-memory store. defaultExpiration applies to
// entries written with a zero ttlHint.
func NewMemoryStore(defaultExpiration, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get implements port.CacheStore.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	raw, ok := value.([]byte)
	if !ok {
		return nil, false, nil
	}
	return raw, true, nil
}

// Set implements port.CacheStore. A zero ttlHint means keep forever (the
// metadata tier is permanent); positive hints let the store evict entries
// whose owning tier would treat them as stale anyway.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttlHint time.Duration) error {
	expiration := ttlHint
	if ttlHint <= 0 {
		expiration = gocache.NoExpiration
	}
	s.cache.Set(key, value, expiration)
	return nil
}

var _ port.CacheStore = (*MemoryStore)(nil)
