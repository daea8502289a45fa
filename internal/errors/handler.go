package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/joke-bot/pkg/logger"
	"github.com/Proton-105/joke-bot/pkg/metrics"
)

// Translator resolves catalog keys into user-facing text.
type Translator interface {
	T(key string) string
}

var fallbackMessages = map[string]string{
	KeyValidation:      "The message has an unexpected format.",
	KeyDatabase:        "Temporary storage problem, nothing was saved. Please try again later.",
	KeyExternalCommand: "An external command failed.",
	KeyState:           "This action is not possible right now.",
	KeyRateLimit:       "Too many requests. Please slow down.",
	KeyEmptyPool:       "There are no jokes yet.",
	KeyUnknown:         "Something went wrong. Please try again later.",
}

type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
	translator    Translator
}

func NewHandler(log *slog.Logger, sentryEnabled bool, translator Translator) *Handler {
	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
		translator:    translator,
	}
}

// Handle logs and reports err and returns the message to show the user along with
// whether the failed operation may be retried.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		attrs := []slog.Attr{
			slog.String("code", appErr.Code),
			slog.String("message", appErr.Message),
			slog.String("severity", string(appErr.Severity)),
			slog.Bool("retryable", appErr.Retryable),
		}
		if cause := appErr.Unwrap(); cause != nil {
			attrs = append(attrs, slog.String("cause", cause.Error()))
		}

		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			attrs = append(attrs, slog.String("correlation_id", correlationID))
		}

		level := slog.LevelError
		if appErr.Severity == SeverityLow {
			level = slog.LevelWarn
		}
		log.LogAttrs(ctx, level, "application error", attrs...)
		metrics.RecordError(appErr.Code, string(appErr.Severity))

		if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
			h.sendToSentry(err)
		}

		key := appErr.UserMessageKey
		if key == "" {
			key = KeyUnknown
		}

		return h.message(key), appErr.Retryable
	}

	attrs := []slog.Attr{
		slog.String("message", err.Error()),
		slog.String("severity", string(SeverityHigh)),
		slog.Bool("retryable", false),
	}

	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	log.LogAttrs(ctx, slog.LevelError, "unknown error", attrs...)
	metrics.RecordError("unknown", string(SeverityHigh))

	if h.sentryEnabled {
		h.sendToSentry(err)
	}

	return h.message(KeyUnknown), false
}

func (h *Handler) message(key string) string {
	if h != nil && h.translator != nil {
		if msg := h.translator.T(key); msg != "" && msg != key {
			return msg
		}
	}

	if msg, ok := fallbackMessages[key]; ok {
		return msg
	}

	return fallbackMessages[KeyUnknown]
}

func (h *Handler) sendToSentry(err error) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr != nil {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}

			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}
		}

		sentry.CaptureException(err)
	})
}
