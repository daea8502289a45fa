package middleware

import (
	"context"
	"log/slog"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
	"github.com/Proton-105/joke-bot/internal/ratelimit"
	"github.com/Proton-105/joke-bot/pkg/metrics"
)

// Translator resolves message keys.
type Translator interface {
	T(key string) string
}

// PendingClearer drops the pending continuation of a chat.
type PendingClearer interface {
	ClearState(ctx context.Context, chatID int64) error
}

// RateLimitMiddleware enforces per-user rate limits for incoming updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle returns a middleware that drops updates from users over their limit. A limited
// message still consumes the pending continuation of its chat and gets a short notice.
// Limited callbacks are acknowledged with the notice; limited inline queries go unanswered.
// Limiter failures let the update through.
func (m *RateLimitMiddleware) Handle(replier handlers.Replier, tr Translator, pending PendingClearer) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(ctx context.Context, u *handlers.Update) error {
			if m.limiter == nil || m.rules == nil || u == nil {
				return next(ctx, u)
			}

			userID := u.Sender.ID
			if m.rules.IsWhitelisted(userID) {
				return next(ctx, u)
			}

			limit, window, err := m.rules.GetPerUserLimit()
			if err != nil {
				m.log.Error("failed to load per-user rate limit", slog.Int64("user_id", userID), slog.Any("error", err))
				return next(ctx, u)
			}

			result, err := m.limiter.Check(ctx, ratelimit.UserKey(userID), limit, window)
			if !ratelimit.Denied(result, err) {
				if err != nil {
					m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
				}
				return next(ctx, u)
			}

			m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID), slog.String("kind", u.Kind.String()))
			metrics.RecordError("rate_limit", "low")

			if u.Kind == handlers.KindMessage && pending != nil {
				if err := pending.ClearState(ctx, u.ChatID); err != nil {
					m.log.Warn("failed to drop pending conversation", slog.Int64("chat_id", u.ChatID), slog.Any("error", err))
				}
			}

			if replier == nil || tr == nil {
				return nil
			}

			notice := tr.T("rate_limit.slow_down")
			switch u.Kind {
			case handlers.KindMessage:
				return replier.Reply(ctx, handlers.Reply{ChatID: u.ChatID, Text: notice})
			case handlers.KindCallback:
				return replier.AckCallback(ctx, u.CallbackID, notice)
			default:
				return nil
			}
		}
	}
}
