package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticDeps bool

func (s staticDeps) Check(context.Context) (map[string]string, bool) {
	return nil, bool(s)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProbes_Readiness(t *testing.T) {
	ctx := context.Background()

	p := NewProbes(testLogger(), staticDeps(true))
	assert.NoError(t, p.Liveness(ctx))
	assert.ErrorIs(t, p.Readiness(ctx), ErrNotReady)

	p.MarkReady()
	assert.NoError(t, p.Readiness(ctx))

	p.MarkDraining()
	assert.ErrorIs(t, p.Readiness(ctx), ErrNotReady)

	unhealthy := NewProbes(testLogger(), staticDeps(false))
	unhealthy.MarkReady()
	assert.ErrorIs(t, unhealthy.Readiness(ctx), ErrNotReady)
}

func TestProbeHandler(t *testing.T) {
	p := NewProbes(testLogger(), nil)

	rec := httptest.NewRecorder()
	ProbeHandler(p.Readiness).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	p.MarkReady()
	rec = httptest.NewRecorder()
	ProbeHandler(p.Readiness).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestShutdown_RunsHooksInOrder(t *testing.T) {
	s := NewShutdown(testLogger())

	var order []string
	for _, name := range []string{"telegram", "database", "redis"} {
		s.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	s.Register("ignored", nil)

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"telegram", "database", "redis"}, order)
}

func TestShutdown_ContinuesAfterExpiredDeadline(t *testing.T) {
	s := NewShutdown(testLogger())

	var ran atomic.Int32
	s.Register("telegram", func(ctx context.Context) error {
		ran.Add(1)
		<-ctx.Done()
		return ctx.Err()
	})
	s.Register("database", func(context.Context) error {
		ran.Add(1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Execute(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "telegram:")
	assert.Equal(t, int32(2), ran.Load())
}

func TestShutdown_CollectsErrors(t *testing.T) {
	s := NewShutdown(testLogger())
	s.Register("database", func(context.Context) error { return errors.New("close failed") })
	s.Register("redis", func(context.Context) error { return nil })

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, "database: close failed", err.Error())
}

func TestEvery(t *testing.T) {
	t.Run("runs until cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var runs atomic.Int32

		done := make(chan struct{})
		go func() {
			Every(ctx, time.Millisecond, func(context.Context) {
				if runs.Add(1) == 3 {
					cancel()
				}
			})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("task loop did not stop")
		}
		assert.GreaterOrEqual(t, runs.Load(), int32(3))
	})

	t.Run("disabled interval", func(t *testing.T) {
		called := false
		Every(context.Background(), 0, func(context.Context) { called = true })
		assert.False(t, called)
	})
}
