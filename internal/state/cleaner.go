package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner removes conversation states older than ttl. Redis expires its keys by itself;
// the sweep covers the memory backend and keeps the transition metrics honest.
type Cleaner struct {
	storage Storage
	log     *slog.Logger
	ttl     time.Duration
	now     func() time.Time
}

func NewCleaner(storage Storage, log *slog.Logger, ttl time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	return &Cleaner{storage: storage, log: log, ttl: ttl, now: time.Now}
}

// Cleanup clears every expired state and reports how many were cleared. States never
// expire when ttl is not positive.
func (c *Cleaner) Cleanup(ctx context.Context) int {
	if c.ttl <= 0 || ctx.Err() != nil {
		return 0
	}

	states, err := c.storage.GetAllStates(ctx)
	if err != nil {
		c.log.Error("state cleaner failed to list states", slog.Any("error", err))
		return 0
	}

	now := c.now()
	cleared := 0
	for _, st := range states {
		if st == nil || !st.Expired(c.ttl, now) {
			continue
		}

		if err := c.storage.ClearState(ctx, st.ChatID); err != nil {
			c.log.Error("state cleaner failed to clear state", slog.Int64("chat_id", st.ChatID), slog.Any("error", err))
			continue
		}

		transitionRecorder(string(st.CurrentState), string(StateIdle))
		cleared++
		c.log.Info("pending conversation cleared", slog.Int64("chat_id", st.ChatID))
	}

	return cleared
}
