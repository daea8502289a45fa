package handlers

import (
	"context"
	"log/slog"

	"github.com/Proton-105/joke-bot/internal/state"
)

// NewAddHandler prompts for a submission and registers the continuation that will receive it.
// A pending prompt of the same chat is replaced.
func NewAddHandler(s *Session) Handler {
	return func(ctx context.Context, u *Update) error {
		if err := s.FSM.TransitionTo(ctx, u.ChatID, u.Sender.ID, state.StateAwaitingSubmission); err != nil {
			return err
		}

		s.logger().Info("awaiting joke submission", slog.Int64("chat_id", u.ChatID), slog.Int64("user_id", u.Sender.ID))

		return s.Replier.Reply(ctx, Reply{
			ChatID: u.ChatID,
			Text:   s.Tr.T("add.prompt"),
			Markup: s.Keyboard.CancelAdd(),
		})
	}
}

// NewSubmissionHandler stores the jokes found in the message that answered the /add prompt.
func NewSubmissionHandler(s *Session) Handler {
	return func(ctx context.Context, u *Update) error {
		n, err := s.Jokes.Add(ctx, u.Sender, u.Text)
		if err != nil {
			return err
		}

		if n == 0 {
			return s.reply(ctx, u.ChatID, s.Tr.T("add.empty"))
		}

		s.logger().Info("jokes added", slog.Int64("user_id", u.Sender.ID), slog.Int("count", n))
		return s.reply(ctx, u.ChatID, s.Tr.Tf("add.saved", n))
	}
}
