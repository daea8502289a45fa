// Package keyboard builds inline keyboards and encodes their callback data.
package keyboard

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// Callback routes and actions understood by the router.
const (
	RouteAdd     = "add"
	ActionCancel = "cancel"
)

// Translator resolves button labels.
type Translator interface {
	T(key string) string
}

// Builder creates the inline keyboards attached to bot replies.
type Builder struct {
	log *slog.Logger
	tr  Translator
}

// NewBuilder returns a new Builder instance.
func NewBuilder(tr Translator, log *slog.Logger) *Builder {
	return &Builder{tr: tr, log: log}
}

// CancelAdd builds the single cancel button attached to the /add prompt. It returns nil
// when the markup cannot be built; the prompt is still usable without it.
func (b *Builder) CancelAdd() *telebot.ReplyMarkup {
	label := "Cancel ❌"
	if b.tr != nil {
		label = b.tr.T("add.cancel_button")
	}

	markup, err := NewInlineKeyboard().
		AddRow(InlineButton{Text: label, Unique: RouteAdd, Data: ActionCancel}).
		Build()
	if err != nil {
		if b.log != nil {
			b.log.Error("failed to build cancel keyboard", slog.Any("error", err))
		}
		return nil
	}

	return markup
}
