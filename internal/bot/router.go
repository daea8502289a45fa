package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
	"github.com/Proton-105/joke-bot/internal/bot/keyboard"
)

type commandRoute struct {
	prefix  string
	handler handlers.Handler
}

// Router dispatches messages, inline queries and callbacks.
//
// A private text message goes to the pending continuation of its chat when there is one,
// otherwise to the first command whose prefix starts the text. Everything else is ignored.
type Router struct {
	mu          sync.RWMutex
	commands    []commandRoute
	callbacks   map[string]handlers.Handler
	inline      handlers.Handler
	dispatcher  *Dispatcher
	middlewares []handlers.Middleware
	startedAt   time.Time
	log         *slog.Logger
}

// NewRouter builds a Router with empty registries. Messages sent before startedAt are dropped.
func NewRouter(dispatcher *Dispatcher, startedAt time.Time, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		callbacks:   make(map[string]handlers.Handler),
		dispatcher:  dispatcher,
		middlewares: make([]handlers.Middleware, 0),
		startedAt:   startedAt,
		log:         log,
	}
}

// RegisterCommand appends a command handler; earlier registrations win on overlapping prefixes.
func (r *Router) RegisterCommand(prefix string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, commandRoute{prefix: prefix, handler: h})
}

// RegisterCallback registers the handler of a callback route. The handler sees the action
// part of the callback data in Update.Data.
func (r *Router) RegisterCallback(route string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[route] = h
}

// SetInline sets the inline query handler.
func (r *Router) SetInline(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inline = h
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(ctx context.Context, u *handlers.Update) error {
	if u == nil {
		return nil
	}

	switch u.Kind {
	case handlers.KindCallback:
		return r.handleCallback(ctx, u)
	case handlers.KindInline:
		return r.handleInline(ctx, u)
	default:
		return r.handleMessage(ctx, u)
	}
}

func (r *Router) handleCallback(ctx context.Context, u *handlers.Update) error {
	route, action, err := keyboard.DecodeCallback(u.Data)
	if err != nil {
		r.log.Info("malformed callback data", slog.String("data", u.Data), slog.Any("error", err))
		return nil
	}

	r.mu.RLock()
	handler := r.callbacks[route]
	r.mu.RUnlock()

	if handler == nil {
		r.log.Info("no callback handler found", slog.String("route", route))
		return nil
	}

	u.Route = "callback:" + route
	u.Data = action
	return r.executeHandler(ctx, handler, u)
}

func (r *Router) handleInline(ctx context.Context, u *handlers.Update) error {
	r.mu.RLock()
	handler := r.inline
	r.mu.RUnlock()

	if handler == nil {
		return nil
	}

	u.Route = "inline"
	return r.executeHandler(ctx, handler, u)
}

func (r *Router) handleMessage(ctx context.Context, u *handlers.Update) error {
	// Telegram timestamps have second precision.
	if u.Sent.Before(r.startedAt.Truncate(time.Second)) {
		r.log.Debug("dropping message sent before start", slog.Int64("chat_id", u.ChatID), slog.Time("sent", u.Sent))
		return nil
	}

	if u.Text == "" || !u.ChatPrivate {
		return nil
	}

	return r.executeHandler(ctx, r.messageHandler, u)
}

// messageHandler runs inside the middleware chain so that continuations and commands
// share recovery, error replies, rate limiting and metrics.
func (r *Router) messageHandler(ctx context.Context, u *handlers.Update) error {
	if r.dispatcher != nil {
		handled, err := r.dispatcher.Dispatch(ctx, u)
		if handled || err != nil {
			return err
		}
	}

	prefix, handler := r.findCommandHandler(u.Text)
	if handler == nil {
		u.Route = "ignored"
		return nil
	}

	u.Route = prefix
	return handler(ctx, u)
}

func (r *Router) executeHandler(ctx context.Context, h handlers.Handler, u *handlers.Update) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(ctx, u)
}

func (r *Router) findCommandHandler(text string) (string, handlers.Handler) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, route := range r.commands {
		if strings.HasPrefix(text, route.prefix) {
			return route.prefix, route.handler
		}
	}

	return "", nil
}

// applyMiddlewares wraps the handler with all registered middlewares.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}
