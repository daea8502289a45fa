package idempotency

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var duplicateUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "duplicate_updates_total",
	Help: "Total number of redelivered Telegram updates that were dropped.",
})

func init() {
	prometheus.MustRegister(duplicateUpdatesTotal)
}

// Guard tells first deliveries of an update from redeliveries.
type Guard struct {
	store Store
	ttl   time.Duration
	log   *slog.Logger
}

// NewGuard remembers update ids for ttl.
func NewGuard(store Store, ttl time.Duration, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}

	return &Guard{store: store, ttl: ttl, log: log}
}

// FirstSeen reports whether updateID has not been handled yet. Store failures let the
// update through.
func (g *Guard) FirstSeen(ctx context.Context, updateID int) bool {
	if g == nil || g.store == nil || g.ttl <= 0 {
		return true
	}

	fresh, err := g.store.MarkSeen(ctx, UpdateKey(updateID), g.ttl)
	if err != nil {
		g.log.Warn("update deduplication unavailable", slog.Int("update_id", updateID), slog.Any("error", err))
		return true
	}

	if !fresh {
		duplicateUpdatesTotal.Inc()
		g.log.Info("dropping redelivered update", slog.Int("update_id", updateID))
	}
	return fresh
}

// UpdateKey is the store key of a Telegram update id.
func UpdateKey(updateID int) string {
	return "update:" + strconv.Itoa(updateID)
}
