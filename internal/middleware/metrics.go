package middleware

import (
	"context"
	"time"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
	"github.com/Proton-105/joke-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus
// under the route chosen by the router.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(ctx context.Context, u *handlers.Update) error {
		start := time.Now()
		err := next(ctx, u)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(routeName(u), status, time.Since(start))

		return err
	}
}

func routeName(u *handlers.Update) string {
	if u == nil || u.Route == "" {
		return "unknown"
	}
	return u.Route
}
