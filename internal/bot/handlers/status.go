package handlers

import (
	"context"
	"time"
)

// NewStatusHandler reports the pool size and the uptime of the process.
func NewStatusHandler(s *Session) Handler {
	return func(ctx context.Context, u *Update) error {
		count, err := s.Jokes.Count(ctx)
		if err != nil {
			return err
		}

		uptime := s.now().Sub(s.StartedAt).Truncate(time.Second)
		return s.reply(ctx, u.ChatID, s.Tr.Tf("status.text", count, uptime))
	}
}
