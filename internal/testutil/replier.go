// Package testutil provides fakes shared by the bot tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
)

// Ack is a recorded callback acknowledgement.
type Ack struct {
	CallbackID string
	Text       string
}

// FakeReplier records outbound traffic synchronously.
type FakeReplier struct {
	mu      sync.Mutex
	replies []handlers.Reply
	answers []handlers.InlineAnswer
	acks    []Ack
	flushes int

	// Err, when set, is returned by every call.
	Err error
}

var _ handlers.Replier = (*FakeReplier)(nil)

func (f *FakeReplier) Reply(_ context.Context, r handlers.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, r)
	return f.Err
}

func (f *FakeReplier) Answer(_ context.Context, a handlers.InlineAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, a)
	return f.Err
}

func (f *FakeReplier) AckCallback(_ context.Context, callbackID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, Ack{CallbackID: callbackID, Text: text})
	return f.Err
}

func (f *FakeReplier) Flush(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

// Replies returns a copy of the recorded messages.
func (f *FakeReplier) Replies() []handlers.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]handlers.Reply(nil), f.replies...)
}

// Texts returns the texts sent to chatID in order.
func (f *FakeReplier) Texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var texts []string
	for _, r := range f.replies {
		if r.ChatID == chatID {
			texts = append(texts, r.Text)
		}
	}
	return texts
}

// Answers returns a copy of the recorded inline answers.
func (f *FakeReplier) Answers() []handlers.InlineAnswer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]handlers.InlineAnswer(nil), f.answers...)
}

// Acks returns a copy of the recorded callback acknowledgements.
func (f *FakeReplier) Acks() []Ack {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Ack(nil), f.acks...)
}

// Flushes reports how many times Flush was called.
func (f *FakeReplier) Flushes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

// Reset forgets everything recorded so far.
func (f *FakeReplier) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies, f.answers, f.acks, f.flushes = nil, nil, nil, 0
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
