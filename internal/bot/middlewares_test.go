package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/joke-bot/internal/errors"
	"github.com/Proton-105/joke-bot/internal/testutil"
)

func TestErrorHandlingMiddleware_NotifiesBySource(t *testing.T) {
	replier := &testutil.FakeReplier{}
	errHandler := apperrors.NewHandler(testutil.Logger(), false, nil)
	h := ErrorHandlingMiddleware(errHandler, replier)(func(context.Context, *handlers.Update) error {
		return apperrors.NewValidationError("bad input")
	})

	ctx := context.Background()
	require.NoError(t, h(ctx, &handlers.Update{Kind: handlers.KindMessage, ChatID: 3}))
	require.NoError(t, h(ctx, &handlers.Update{Kind: handlers.KindCallback, CallbackID: "cb"}))
	require.NoError(t, h(ctx, &handlers.Update{Kind: handlers.KindInline, QueryID: "q"}))

	assert.Equal(t, []string{"The message has an unexpected format."}, replier.Texts(3))
	assert.Equal(t, []testutil.Ack{{CallbackID: "cb", Text: "The message has an unexpected format."}}, replier.Acks())
	assert.Empty(t, replier.Answers())
}

func TestErrorHandlingMiddleware_ReturnsDeliveryFailure(t *testing.T) {
	replier := &testutil.FakeReplier{Err: errors.New("queue closed")}
	h := ErrorHandlingMiddleware(nil, replier)(func(context.Context, *handlers.Update) error {
		return errors.New("boom")
	})

	err := h(context.Background(), &handlers.Update{Kind: handlers.KindMessage, ChatID: 3})
	assert.EqualError(t, err, "queue closed")
	assert.Equal(t, []string{fallbackErrorMessage}, replier.Texts(3))
}

func TestRecoveryMiddleware_SwallowsPanic(t *testing.T) {
	replier := &testutil.FakeReplier{}
	h := RecoveryMiddleware(testutil.Logger(), nil, replier)(func(context.Context, *handlers.Update) error {
		panic("nil map")
	})

	assert.NotPanics(t, func() {
		assert.NoError(t, h(context.Background(), &handlers.Update{Kind: handlers.KindMessage, ChatID: 4}))
	})
	assert.Equal(t, []string{fallbackErrorMessage}, replier.Texts(4))
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	boom := errors.New("boom")
	h := LoggingMiddleware(testutil.Logger())(func(_ context.Context, u *handlers.Update) error {
		u.Route = "/status"
		return boom
	})

	u := &handlers.Update{Kind: handlers.KindMessage}
	assert.ErrorIs(t, h(context.Background(), u), boom)
	assert.Equal(t, "/status", u.Route)
	assert.Nil(t, LoggingMiddleware(nil)(nil))
}
