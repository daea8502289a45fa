package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/joke-bot/internal/errors"
	"github.com/Proton-105/joke-bot/internal/idempotency"
	"github.com/Proton-105/joke-bot/pkg/logger"
)

const fallbackErrorMessage = "⚠️ Something went wrong. Please try again later."

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperrors.Handler, replier handlers.Replier) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(ctx context.Context, u *handlers.Update) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler",
						slog.Any("panic", r),
						slog.String("route", u.Route),
						slog.String("stack", string(debug.Stack())),
					)

					userMsg := fallbackErrorMessage
					if errHandler != nil {
						if msg, _ := errHandler.Handle(ctx, fmt.Errorf("panic recovered: %v", r)); msg != "" {
							userMsg = msg
						}
					}

					if sendErr := notify(ctx, replier, u, userMsg); sendErr != nil {
						log.Error("failed to notify user about panic", slog.Any("error", sendErr))
					}

					err = nil
				}
			}()

			return next(ctx, u)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
func ErrorHandlingMiddleware(errHandler *apperrors.Handler, replier handlers.Replier) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(ctx context.Context, u *handlers.Update) error {
			err := next(ctx, u)
			if err == nil {
				return nil
			}

			userMsg := fallbackErrorMessage
			if errHandler != nil {
				if msg, _ := errHandler.Handle(ctx, err); msg != "" {
					userMsg = msg
				}
			}

			return notify(ctx, replier, u, userMsg)
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(ctx context.Context, u *handlers.Update) error {
			start := time.Now()
			attrs := []any{
				slog.String("kind", u.Kind.String()),
				slog.Int64("user_id", u.Sender.ID),
				slog.Int64("chat_id", u.ChatID),
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
			}

			log.Debug("handling update", attrs...)
			err := next(ctx, u)
			log.Info("handled update", append(attrs,
				slog.String("route", u.Route),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)...)

			return err
		}
	}
}

// DeduplicationMiddleware drops updates that were already handled. Updates without an
// id pass through.
func DeduplicationMiddleware(guard *idempotency.Guard) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(ctx context.Context, u *handlers.Update) error {
			if u.ID != 0 && !guard.FirstSeen(ctx, u.ID) {
				u.Route = "duplicate"
				return nil
			}
			return next(ctx, u)
		}
	}
}

// notify tells the user about a failure through the channel the update came from.
// Inline queries have no place to show it.
func notify(ctx context.Context, replier handlers.Replier, u *handlers.Update, text string) error {
	if replier == nil || u == nil {
		return nil
	}

	switch u.Kind {
	case handlers.KindMessage:
		return replier.Reply(ctx, handlers.Reply{ChatID: u.ChatID, Text: text})
	case handlers.KindCallback:
		return replier.AckCallback(ctx, u.CallbackID, text)
	default:
		return nil
	}
}
