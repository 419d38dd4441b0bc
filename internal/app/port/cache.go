package port

import (
	"context"
	"time"
)

// CacheStore is the single storage contract shared by every cache tier.
// Values are opaque bytes; each tier embeds its own cachedAt and compares it
// against its own TTL, so one backend serves heterogeneous lifetimes. The
// ttlHint lets backends evict on their own schedule; zero means keep forever.
//
// Stores must fail open: callers treat any error as a miss, never as a
// request failure.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttlHint time.Duration) error
}

// BlobStore is the durable object store used to re-host token logos.
type BlobStore interface {
	// Head returns the public URL for path if the object exists.
	Head(ctx context.Context, path string) (string, bool, error)
	// Put uploads bytes under path and returns the public URL.
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// BaseURL returns the public prefix all hosted objects share.
	BaseURL() string
}
