package handlers

import (
	"context"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/joke-bot/internal/domain"
)

// Kind distinguishes inbound events.
type Kind int

const (
	KindMessage Kind = iota
	KindInline
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindInline:
		return "inline"
	case KindCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Update is a transport-independent inbound event.
type Update struct {
	// ID is the Telegram update id; zero when unknown.
	ID          int
	Kind        Kind
	ChatID      int64
	ChatPrivate bool
	Sender      domain.Author
	Text        string
	Sent        time.Time

	// QueryID is set for inline queries.
	QueryID string
	// CallbackID and Data are set for callback queries. The router replaces Data with the
	// action part of the callback data before the handler runs.
	CallbackID string
	Data       string

	// Route names the branch that handled the update; set by the router for logs and metrics.
	Route string
}

// Handler processes a routed update.
type Handler func(ctx context.Context, u *Update) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// Reply is one outbound chat message.
type Reply struct {
	ChatID int64
	Text   string
	Markup *telebot.ReplyMarkup
}

// InlineResult is one inline answer candidate.
type InlineResult struct {
	ID    string
	Title string
	Text  string
}

// InlineAnswer answers an inline query. When Results is empty and SwitchPMText is set,
// the client shows a button that opens the private chat with SwitchPMParam as /start payload.
type InlineAnswer struct {
	QueryID       string
	Results       []InlineResult
	CacheSeconds  int
	SwitchPMText  string
	SwitchPMParam string
}

// Replier delivers outbound traffic to the chat platform.
type Replier interface {
	Reply(ctx context.Context, r Reply) error
	Answer(ctx context.Context, a InlineAnswer) error
	AckCallback(ctx context.Context, callbackID, text string) error
	// Flush blocks until everything issued so far has been handed to the platform.
	Flush(ctx context.Context) error
}
