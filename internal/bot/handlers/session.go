package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/Proton-105/joke-bot/internal/bot/keyboard"
	"github.com/Proton-105/joke-bot/internal/domain"
	"github.com/Proton-105/joke-bot/internal/i18n"
	"github.com/Proton-105/joke-bot/internal/state"
	"github.com/Proton-105/joke-bot/internal/updater"
)

// JokeService is the joke pool as seen by the handlers.
type JokeService interface {
	Add(ctx context.Context, author domain.Author, text string) (int, error)
	Search(ctx context.Context, pattern string) ([]domain.Joke, error)
	Count(ctx context.Context) (int, error)
	Random(ctx context.Context) (domain.Joke, error)
}

// UpdatePipeline runs the self-update steps.
type UpdatePipeline interface {
	Run(ctx context.Context, rep updater.Reporter) error
}

// Session is the process-wide state shared by all handlers. It is built once at startup
// and passed explicitly to every handler constructor.
type Session struct {
	StartedAt time.Time
	AdminID   int64

	FSM      state.StateMachine
	Jokes    JokeService
	Updater  UpdatePipeline
	Replier  Replier
	Tr       i18n.Translator
	Keyboard *keyboard.Builder
	Log      *slog.Logger

	Now func() time.Time
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Session) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Session) reply(ctx context.Context, chatID int64, text string) error {
	return s.Replier.Reply(ctx, Reply{ChatID: chatID, Text: text})
}
