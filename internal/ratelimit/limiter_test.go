package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/joke-bot/pkg/config"
)

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, errors.New("connection refused")
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)

	result, err = limiter.Check(ctx, "user:2", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	now = now.Add(time.Minute)
	result, err = limiter.Check(ctx, "user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := limiter.Check(ctx, "old", 5, time.Minute)
	require.NoError(t, err)
	now = now.Add(10 * time.Minute)
	_, err = limiter.Check(ctx, "fresh", 5, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 1, limiter.Cleanup(5*time.Minute))
	assert.Equal(t, 1, limiter.Len())
	assert.Zero(t, limiter.Cleanup(0))
}

func TestAdaptiveLimiter_MemoryOnlyUsesFullLimit(t *testing.T) {
	limiter := NewAdaptiveLimiter(nil, NewMemoryLimiter(testLogger()), testLogger())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		result, err := limiter.Check(ctx, "user:1", 4, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "user:1", 4, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
}

func TestAdaptiveLimiter_FallsBackWithHalfLimit(t *testing.T) {
	limiter := NewAdaptiveLimiter(failingLimiter{}, NewMemoryLimiter(testLogger()), testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Check(ctx, "user:1", 4, time.Minute)
		require.NoError(t, err)
	}

	result, err := limiter.Check(ctx, "user:1", 4, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
}

func TestAdaptiveLimiter_RedisRejection(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewAdaptiveLimiter(NewRedisLimiter(client, testLogger()), NewMemoryLimiter(testLogger()), testLogger())
	ctx := context.Background()

	_, err := limiter.Check(ctx, "user:1", 1, time.Minute)
	require.NoError(t, err)

	result, err := limiter.Check(ctx, "user:1", 1, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
}

func TestRules(t *testing.T) {
	rules := NewRules(config.RateLimitConfig{
		PerUser:   config.RateLimitRule{Limit: 30, Window: "1m"},
		Whitelist: []int64{7},
	}, 1)

	assert.True(t, rules.IsWhitelisted(1))
	assert.True(t, rules.IsWhitelisted(7))
	assert.False(t, rules.IsWhitelisted(2))

	limit, window, err := rules.GetPerUserLimit()
	require.NoError(t, err)
	assert.Equal(t, 30, limit)
	assert.Equal(t, time.Minute, window)

	testCases := []struct {
		name   string
		window string
	}{
		{name: "missing", window: ""},
		{name: "malformed", window: "soon"},
		{name: "negative", window: "-1m"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRules(config.RateLimitConfig{PerUser: config.RateLimitRule{Limit: 1, Window: tc.window}}, 0)
			_, _, err := r.GetPerUserLimit()
			assert.Error(t, err)
		})
	}
}

func TestDenied(t *testing.T) {
	assert.False(t, Denied(&Result{Allowed: true}, nil))
	assert.True(t, Denied(&Result{Allowed: false}, nil))
	assert.True(t, Denied(&Result{Allowed: false}, ErrLimitExceeded))
	assert.False(t, Denied(nil, errors.New("connection refused")))
	assert.False(t, Denied(nil, nil))
	assert.Equal(t, "user:42", UserKey(42))
}
