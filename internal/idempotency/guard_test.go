package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) MarkSeen(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGuard_MemoryStore(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	guard := NewGuard(store, time.Hour, testLogger())
	ctx := context.Background()

	assert.True(t, guard.FirstSeen(ctx, 10))
	assert.False(t, guard.FirstSeen(ctx, 10))
	assert.True(t, guard.FirstSeen(ctx, 11))

	now = now.Add(time.Hour)
	assert.Equal(t, 2, store.Sweep())
	assert.Zero(t, store.Len())
	assert.True(t, guard.FirstSeen(ctx, 10))
}

func TestGuard_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	guard := NewGuard(NewRedisStore(client, testLogger()), time.Minute, testLogger())
	ctx := context.Background()

	assert.True(t, guard.FirstSeen(ctx, 42))
	assert.False(t, guard.FirstSeen(ctx, 42))
	require.True(t, mr.Exists(keyPrefix+UpdateKey(42)))

	mr.FastForward(2 * time.Minute)
	assert.True(t, guard.FirstSeen(ctx, 42))
}

func TestGuard_FailsOpen(t *testing.T) {
	ctx := context.Background()

	assert.True(t, NewGuard(brokenStore{}, time.Hour, testLogger()).FirstSeen(ctx, 1))
	assert.True(t, NewGuard(brokenStore{}, time.Hour, testLogger()).FirstSeen(ctx, 1))

	disabled := NewGuard(NewMemoryStore(), 0, testLogger())
	assert.True(t, disabled.FirstSeen(ctx, 1))
	assert.True(t, disabled.FirstSeen(ctx, 1))

	var nilGuard *Guard
	assert.True(t, nilGuard.FirstSeen(ctx, 1))
}
