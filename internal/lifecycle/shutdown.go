package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Hook is a named step of the shutdown sequence. Fn receives the shutdown deadline.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Shutdown runs hooks one after another in registration order, so that intake stops
// before the components it feeds are released.
type Shutdown struct {
	mu    sync.Mutex
	hooks []Hook
	log   *slog.Logger
}

func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}
	return &Shutdown{log: log}
}

// Register appends a hook. Nil functions are ignored.
func (s *Shutdown) Register(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	s.hooks = append(s.hooks, Hook{Name: name, Fn: fn})
	s.mu.Unlock()
}

// Execute runs every hook even when an earlier one fails or the deadline has passed.
// Failures are joined and prefixed with the hook name.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	hooks := append([]Hook(nil), s.hooks...)
	s.mu.Unlock()

	s.log.Info("shutting down", slog.Int("hooks", len(hooks)))
	started := time.Now()

	var errs []error
	for _, hook := range hooks {
		at := time.Now()
		if err := hook.Fn(ctx); err != nil {
			s.log.Error("shutdown hook failed", slog.String("hook", hook.Name), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", hook.Name, err))
			continue
		}
		s.log.Info("shutdown hook done", slog.String("hook", hook.Name), slog.Duration("elapsed", time.Since(at)))
	}

	s.log.Info("shutdown finished", slog.Duration("elapsed", time.Since(started)), slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}
