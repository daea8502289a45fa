package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Proton-105/joke-bot/internal/updater"
)

// NewRestartHandler runs the self-update pipeline for the privileged user. Everyone else
// gets a refusal and nothing is run. The pipeline blocks the caller until it finishes.
func NewRestartHandler(s *Session) Handler {
	return func(ctx context.Context, u *Update) error {
		log := s.logger().With(slog.Int64("user_id", u.Sender.ID), slog.Int64("chat_id", u.ChatID))

		if u.Sender.ID != s.AdminID {
			log.Info("restart refused for unprivileged user")
			return s.reply(ctx, u.ChatID, s.Tr.T("restart.refused"))
		}

		log.Info("self-update requested")

		err := s.Updater.Run(ctx, &chatReporter{session: s, chatID: u.ChatID})
		var stepErr *updater.StepError
		if errors.As(err, &stepErr) {
			// Already reported to the chat.
			log.Warn("self-update aborted", slog.String("step", stepErr.Step.Name))
			return nil
		}

		return err
	}
}

// chatReporter posts pipeline progress to the requesting chat.
type chatReporter struct {
	session *Session
	chatID  int64
}

func (r *chatReporter) StepStarted(ctx context.Context, step updater.Step) {
	s := r.session
	if err := s.reply(ctx, r.chatID, s.Tr.Tf("restart.step_started", r.stepLabel(step))); err != nil {
		s.logger().Warn("failed to report update step", slog.String("step", step.Name), slog.Any("error", err))
		return
	}

	// The last step replaces the process, so progress must leave before the command starts.
	if err := s.Replier.Flush(ctx); err != nil {
		s.logger().Warn("failed to flush replies", slog.Any("error", err))
	}
}

func (r *chatReporter) StepFailed(ctx context.Context, stepErr *updater.StepError) {
	s := r.session
	if err := s.reply(ctx, r.chatID, r.failureText(stepErr)); err != nil {
		s.logger().Warn("failed to report update failure", slog.String("step", stepErr.Step.Name), slog.Any("error", err))
	}
}

func (r *chatReporter) stepLabel(step updater.Step) string {
	key := "restart.steps." + step.Name
	if label := r.session.Tr.T(key); label != key {
		return label
	}
	if step.Description != "" {
		return step.Description
	}
	return step.String()
}

func (r *chatReporter) failureText(stepErr *updater.StepError) string {
	tr := r.session.Tr
	label := r.stepLabel(stepErr.Step)

	var b strings.Builder
	if stepErr.Err != nil {
		b.WriteString(tr.Tf("restart.step_launch_failed", label, stepErr.Err))
	} else {
		b.WriteString(tr.Tf("restart.step_failed", label, stepErr.ExitCode))
	}

	if stepErr.Stderr != "" {
		b.WriteString("\n\n" + tr.T("restart.stderr") + "\n" + stepErr.Stderr)
	}
	if stepErr.Stdout != "" {
		b.WriteString("\n\n" + tr.T("restart.stdout") + "\n" + stepErr.Stdout)
	}

	return b.String()
}
