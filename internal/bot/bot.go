package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
	"github.com/Proton-105/joke-bot/internal/bot/keyboard"
	"github.com/Proton-105/joke-bot/internal/domain"
	apperrors "github.com/Proton-105/joke-bot/internal/errors"
	"github.com/Proton-105/joke-bot/internal/i18n"
	"github.com/Proton-105/joke-bot/internal/idempotency"
	"github.com/Proton-105/joke-bot/internal/middleware"
	"github.com/Proton-105/joke-bot/internal/state"
	"github.com/Proton-105/joke-bot/pkg/config"
	"github.com/Proton-105/joke-bot/pkg/logger"
)

var allowedUpdates = []string{"message", "inline_query", "callback_query"}

// Deps are the collaborators the bot is assembled from.
type Deps struct {
	FSM     state.StateMachine
	Jokes   handlers.JokeService
	Updater handlers.UpdatePipeline
	Catalog *i18n.Manager
	// RateLimit and Dedup are optional.
	RateLimit *middleware.RateLimitMiddleware
	Dedup     *idempotency.Guard
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot *telebot.Bot
	log     *slog.Logger
	cfg     config.Config
	outbox  *Outbox
	router  *Router
}

// New builds a telegram bot instance configured according to the application settings.
// Messages sent before New returns are ignored once polling starts.
func New(cfg config.Config, log *slog.Logger, deps Deps) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("initialize bot: message catalog is required")
	}

	settings := telebot.Settings{
		Token:       cfg.Bot.Token,
		Synchronous: true,
		OnError: func(err error, c telebot.Context) {
			log.Error("telegram update failed", slog.Any("error", err))
		},
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:         cfg.Bot.WebhookListen,
			AllowedUpdates: allowedUpdates,
			Endpoint:       &telebot.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout:        cfg.Bot.Timeout,
			AllowedUpdates: allowedUpdates,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	tr := deps.Catalog.Translator(cfg.Bot.Language)
	outbox := NewOutbox(&telegramSender{tb: tb}, cfg.Bot.OutboxSize, log)

	session := &handlers.Session{
		StartedAt: time.Now(),
		AdminID:   cfg.Bot.AdminID,
		FSM:       deps.FSM,
		Jokes:     deps.Jokes,
		Updater:   deps.Updater,
		Replier:   outbox,
		Tr:        tr,
		Keyboard:  keyboard.NewBuilder(tr, log),
		Log:       log,
	}

	var extra []handlers.Middleware
	if deps.Dedup != nil {
		extra = append(extra, DeduplicationMiddleware(deps.Dedup))
	}
	if deps.RateLimit != nil {
		extra = append(extra, deps.RateLimit.Handle(outbox, tr, deps.FSM))
	}

	b := &Bot{
		telebot: tb,
		log:     log,
		cfg:     cfg,
		outbox:  outbox,
		router:  BuildRouter(session, apperrors.NewHandler(log, cfg.Sentry.Enabled, tr), extra...),
	}

	b.registerTelebotHandlers()

	return b, nil
}

// BuildRouter registers every command, continuation, callback and the inline handler of
// the joke bot on a fresh Router. extra middlewares run after logging and before metrics.
func BuildRouter(s *handlers.Session, errHandler *apperrors.Handler, extra ...handlers.Middleware) *Router {
	dispatcher := NewDispatcher(s.FSM, s.Log)
	dispatcher.RegisterStateHandler(state.StateAwaitingSubmission, handlers.NewSubmissionHandler(s))

	router := NewRouter(dispatcher, s.StartedAt, s.Log)

	router.Use(RecoveryMiddleware(s.Log, errHandler, s.Replier))
	router.Use(ErrorHandlingMiddleware(errHandler, s.Replier))
	router.Use(LoggingMiddleware(s.Log))
	for _, mw := range extra {
		router.Use(mw)
	}
	router.Use(middleware.Metrics)

	add := handlers.NewAddHandler(s)
	router.RegisterCommand(CommandAdd, add)
	router.RegisterCommand(CommandRestart, handlers.NewRestartHandler(s))
	router.RegisterCommand(CommandStatus, handlers.NewStatusHandler(s))
	router.RegisterCommand(CommandStart, handlers.NewStartHandler(s, add))
	router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(s))

	router.RegisterCallback(CallbackAdd, handlers.NewCancelAddHandler(s))
	router.SetInline(handlers.NewInlineHandler(s))

	return router
}

// Start runs the outbox worker and the telegram event loop. It blocks until Stop.
func (b *Bot) Start() {
	b.outbox.Start()
	b.log.Info("telegram bot started",
		slog.String("mode", b.cfg.Bot.Mode),
		slog.String("username", b.telebot.Me.Username),
	)
	b.telebot.Start()
}

// Stop stops polling and waits for queued replies to be delivered. Polling stops only
// after the update being handled returns, so both waits are bounded by ctx.
func (b *Bot) Stop(ctx context.Context) error {
	b.log.Info("stopping telegram bot...")

	stopped := make(chan struct{})
	go func() {
		b.telebot.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		return fmt.Errorf("stop polling: %w", ctx.Err())
	}

	if err := b.outbox.Close(ctx); err != nil {
		return fmt.Errorf("drain outbox: %w", err)
	}
	return nil
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) registerTelebotHandlers() {
	b.telebot.Handle(telebot.OnText, b.onText)
	b.telebot.Handle(telebot.OnQuery, b.onQuery)
	b.telebot.Handle(telebot.OnCallback, b.onCallback)
}

func (b *Bot) onText(c telebot.Context) error {
	m := c.Message()
	if m == nil {
		return nil
	}

	return b.route(&handlers.Update{
		ID:          c.Update().ID,
		Kind:        handlers.KindMessage,
		ChatID:      m.Chat.ID,
		ChatPrivate: m.Chat.Type == telebot.ChatPrivate,
		Sender:      author(m.Sender),
		Text:        m.Text,
		Sent:        m.Time(),
	})
}

func (b *Bot) onQuery(c telebot.Context) error {
	q := c.Query()
	if q == nil {
		return nil
	}

	sender := author(q.Sender)
	return b.route(&handlers.Update{
		ID:      c.Update().ID,
		Kind:    handlers.KindInline,
		ChatID:  sender.ID,
		Sender:  sender,
		Text:    q.Text,
		QueryID: q.ID,
	})
}

func (b *Bot) onCallback(c telebot.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}

	sender := author(cb.Sender)
	chatID := sender.ID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}

	return b.route(&handlers.Update{
		ID:         c.Update().ID,
		Kind:       handlers.KindCallback,
		ChatID:     chatID,
		Sender:     sender,
		CallbackID: cb.ID,
		Data:       cb.Data,
	})
}

func (b *Bot) route(u *handlers.Update) error {
	return b.router.Route(logger.WithCorrelationID(context.Background()), u)
}

func author(u *telebot.User) domain.Author {
	if u == nil {
		return domain.Author{}
	}

	name := u.Username
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}

	return domain.Author{ID: u.ID, Name: name}
}
