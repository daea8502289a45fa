package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Proton-105/joke-bot/internal/bot/keyboard"
	"github.com/Proton-105/joke-bot/internal/state"
)

// NewCancelAddHandler handles the cancel button of the /add prompt: it drops the pending
// continuation of the chat, if any, and acknowledges the callback. Other actions are
// acknowledged and otherwise ignored.
func NewCancelAddHandler(s *Session) Handler {
	return func(ctx context.Context, u *Update) error {
		if u.Data != keyboard.ActionCancel {
			s.logger().Warn("unknown add action", slog.String("action", u.Data), slog.Int64("chat_id", u.ChatID))
			return s.Replier.AckCallback(ctx, u.CallbackID, "")
		}

		_, err := s.FSM.GetState(ctx, u.ChatID)
		switch {
		case errors.Is(err, state.ErrStateNotFound):
			return s.Replier.AckCallback(ctx, u.CallbackID, s.Tr.T("add.nothing_pending"))
		case err != nil:
			return err
		}

		if err := s.FSM.ClearState(ctx, u.ChatID); err != nil {
			s.logger().Error("failed to clear pending conversation", slog.Int64("chat_id", u.ChatID), slog.Any("error", err))
			return err
		}

		text := s.Tr.T("add.cancelled")
		if err := s.Replier.AckCallback(ctx, u.CallbackID, text); err != nil {
			return err
		}

		return s.reply(ctx, u.ChatID, text)
	}
}
