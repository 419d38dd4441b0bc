// Package cachestore provides the storage backends behind every cache tier
// and the fail-open typed accessors the pipeline uses to read and write them.
package cachestore

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Get reads and decodes a cache entry. Every failure mode (store error,
// absent key, undecodable payload) degrades to a miss; caches must never
// become a source of request failures. The tier label only feeds metrics.
func Get[T any](ctx context.Context, store port.CacheStore, logger port.Logger, tier, key string) (T, bool) {
	var value T
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		metrics.CacheErrors.WithLabelValues(tier).Inc()
		logger.Warn("Cache read failed, treating as miss", "tier", tier, "key", key, "error", err)
		return value, false
	}
	if !found {
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		// Corrupt entry: a miss, not an error. It will be overwritten by the
		// next full write.
		metrics.CacheErrors.WithLabelValues(tier).Inc()
		logger.Warn("Cache entry failed shape validation, treating as miss", "tier", tier, "key", key, "error", err)
		var zero T
		return zero, false
	}
	return value, true
}

// Put encodes and writes a cache entry. Failures are logged and swallowed;
// the only consequence of a lost write is a lower hit rate later.
func Put[T any](ctx context.Context, store port.CacheStore, logger port.Logger, tier, key string, value T, ttlHint time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		metrics.CacheErrors.WithLabelValues(tier).Inc()
		logger.Error("Cache value failed to encode", "tier", tier, "key", key, "error", err)
		return
	}
	if err := store.Set(ctx, key, raw, ttlHint); err != nil {
		metrics.CacheErrors.WithLabelValues(tier).Inc()
		logger.Warn("Cache write failed", "tier", tier, "key", key, "error", err)
	}
}
