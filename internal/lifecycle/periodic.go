package lifecycle

import (
	"context"
	"time"
)

// Every calls task once per interval until ctx ends. A non-positive interval disables it.
func Every(ctx context.Context, interval time.Duration, task func(context.Context)) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task(ctx)
		}
	}
}
