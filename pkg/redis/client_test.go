package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/joke-bot/pkg/config"
)

func TestNew_InstrumentsCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := New(ctx, config.RedisConfig{Enabled: true, Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.HealthCheck(ctx))

	getsBefore := testutil.ToFloat64(redisRequestsTotal.WithLabelValues("get"))
	getErrorsBefore := testutil.ToFloat64(redisErrorsTotal.WithLabelValues("get"))

	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	_, err = client.Get(ctx, "missing").Result()
	require.Error(t, err)

	assert.Equal(t, getsBefore+1, testutil.ToFloat64(redisRequestsTotal.WithLabelValues("get")))
	assert.Equal(t, getErrorsBefore, testutil.ToFloat64(redisErrorsTotal.WithLabelValues("get")))

	pipelinesBefore := testutil.ToFloat64(redisRequestsTotal.WithLabelValues("pipeline"))
	pipe := client.TxPipeline()
	pipe.Incr(ctx, "counter")
	pipe.Expire(ctx, "counter", 0)
	_, err = pipe.Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, pipelinesBefore+1, testutil.ToFloat64(redisRequestsTotal.WithLabelValues("pipeline")))
}

func TestNew_FailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), config.RedisConfig{Enabled: true, Addr: addr})
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Addr: "redis:6379", Password: "secret", DB: 2, PoolSize: 7})

	assert.Equal(t, "redis:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, maxRetries, opts.MaxRetries)
}
