package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/joke-bot/internal/errors"
	"github.com/Proton-105/joke-bot/internal/state"
)

// Dispatcher hands a message to the pending continuation of its chat.
type Dispatcher struct {
	fsm           state.StateMachine
	stateHandlers map[state.State]handlers.Handler
	log           *slog.Logger
	mu            sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handlers registry.
func NewDispatcher(fsm state.StateMachine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		fsm:           fsm,
		stateHandlers: make(map[state.State]handlers.Handler),
		log:           log,
	}
}

// RegisterStateHandler registers the continuation handler for the provided state.
func (d *Dispatcher) RegisterStateHandler(s state.State, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateHandlers[s] = h
}

// Dispatch consumes the pending continuation of the chat and runs its handler. It reports
// false when the chat has nothing pending; the continuation is removed before the handler
// runs, so it is consumed whatever the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, u *handlers.Update) (bool, error) {
	pending, err := d.fsm.Take(ctx, u.ChatID)
	if err != nil {
		if errors.Is(err, state.ErrStateNotFound) {
			return false, nil
		}
		return true, apperrors.NewStateError("failed to load pending conversation", err)
	}

	u.Route = "continuation:" + string(pending.CurrentState)

	handler := d.getHandler(pending.CurrentState)
	if handler == nil {
		d.log.Warn("no handler registered for state", slog.String("state", string(pending.CurrentState)), slog.Int64("chat_id", u.ChatID))
		return true, nil
	}

	return true, handler(ctx, u)
}

func (d *Dispatcher) getHandler(s state.State) handlers.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateHandlers[s]
}
