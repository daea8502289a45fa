package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker_Check(t *testing.T) {
	c := NewChecker(testLogger())
	c.AddCheck("database", CheckFunc(func(context.Context) error { return nil }))
	c.AddCheck("redis", CheckFunc(func(context.Context) error { return errors.New("connection refused") }))
	c.AddCheck("", CheckFunc(func(context.Context) error { return nil }))
	c.AddCheck("nil", nil)

	assert.Equal(t, []string{"database", "redis"}, c.Names())

	results, healthy := c.Check(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, map[string]string{"database": "OK", "redis": "connection refused"}, results)
}

func TestChecker_Handler(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		body   map[string]string
	}{
		{name: "healthy", status: http.StatusOK, body: map[string]string{"database": "OK"}},
		{name: "unhealthy", err: errors.New("down"), status: http.StatusServiceUnavailable, body: map[string]string{"database": "down"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewChecker(testLogger())
			c.AddCheck("database", CheckFunc(func(context.Context) error { return tc.err }))

			rec := httptest.NewRecorder()
			c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tc.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.body, body)
		})
	}
}

func TestTelegramChecker_Uninitialized(t *testing.T) {
	assert.Error(t, NewTelegramChecker(nil).HealthCheck(context.Background()))
}
