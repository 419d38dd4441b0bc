package cachestore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_balances/internal/app/port"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// brokenStore fails every operation, standing in for an unreachable Redis.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

// recordingStore is an in-memory CacheStore that lets tests inject payloads.
type recordingStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newRecordingStore() *recordingStore {
	return &recordingStore{data: make(map[string][]byte)}
}

func (s *recordingStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, found := s.data[key]
	return raw, found, nil
}

func (s *recordingStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

var _ port.CacheStore = (*recordingStore)(nil)

type payload struct {
	Value string `json:"value"`
}

func TestGetFailOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("store_error_is_a_miss", func(t *testing.T) {
		_, found := Get[payload](ctx, brokenStore{}, nopLogger{}, "wallet", "k")
		assert.False(t, found)
	})

	t.Run("corrupt_payload_is_a_miss", func(t *testing.T) {
		store := newRecordingStore()
		store.data["k"] = []byte("{not json")
		_, found := Get[payload](ctx, store, nopLogger{}, "wallet", "k")
		assert.False(t, found)
	})

	t.Run("absent_key_is_a_miss", func(t *testing.T) {
		_, found := Get[payload](ctx, newRecordingStore(), nopLogger{}, "wallet", "k")
		assert.False(t, found)
	})
}

func TestPutThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()

	Put(ctx, store, nopLogger{}, "price", "k", payload{Value: "42"}, time.Minute)
	got, found := Get[payload](ctx, store, nopLogger{}, "price", "k")
	require.True(t, found)
	assert.Equal(t, "42", got.Value)
}

func TestPutSwallowsWriteErrors(t *testing.T) {
	// Must not panic; a lost write only costs a later hit.
	Put(context.Background(), brokenStore{}, nopLogger{}, "wallet", "k", payload{Value: "x"}, time.Minute)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("round_trip", func(t *testing.T) {
		store := NewMemoryStore(time.Minute, time.Minute)
		require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
		raw, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []byte("v"), raw)
	})

	t.Run("miss", func(t *testing.T) {
		store := NewMemoryStore(time.Minute, time.Minute)
		_, found, err := store.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("zero_ttl_hint_keeps_entry_past_default_expiration", func(t *testing.T) {
		store := NewMemoryStore(time.Millisecond, time.Minute)
		require.NoError(t, store.Set(ctx, "permanent", []byte("v"), 0))
		time.Sleep(5 * time.Millisecond)
		_, found, err := store.Get(ctx, "permanent")
		require.NoError(t, err)
		assert.True(t, found)
	})
}
