package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
	"github.com/Proton-105/joke-bot/internal/testutil"
)

// queuePoller delivers its updates once and then waits to be stopped.
type queuePoller struct {
	updates []telebot.Update
}

func (p *queuePoller) Poll(_ *telebot.Bot, dest chan telebot.Update, stop chan struct{}) {
	for _, u := range p.updates {
		select {
		case dest <- u:
		case <-stop:
			return
		}
	}
	<-stop
}

func newOfflineBot(t *testing.T, poller telebot.Poller, sender Sender) *Bot {
	t.Helper()

	tb, err := telebot.NewBot(telebot.Settings{
		Offline:     true,
		Synchronous: true,
		Poller:      poller,
	})
	require.NoError(t, err)

	log := testutil.Logger()
	return &Bot{
		telebot: tb,
		log:     log,
		outbox:  NewOutbox(sender, 4, log),
	}
}

func TestBot_StopIsBoundedWhileUpdateRuns(t *testing.T) {
	poller := &queuePoller{updates: []telebot.Update{
		{ID: 1, Message: &telebot.Message{Text: "/restart", Chat: &telebot.Chat{ID: 1, Type: telebot.ChatPrivate}}},
	}}
	b := newOfflineBot(t, poller, &recordingSender{})

	entered := make(chan struct{})
	release := make(chan struct{})
	b.telebot.Handle(telebot.OnText, func(telebot.Context) error {
		close(entered)
		<-release
		return nil
	})

	finished := make(chan struct{})
	go func() {
		b.Start()
		close(finished)
	}()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("update was not delivered")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.Stop(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("polling did not stop after the update returned")
	}
}

func TestBot_StopDrainsQueuedReplies(t *testing.T) {
	sender := &recordingSender{}
	b := newOfflineBot(t, &queuePoller{}, sender)

	finished := make(chan struct{})
	go func() {
		b.Start()
		close(finished)
	}()

	require.NoError(t, b.outbox.Reply(context.Background(), handlers.Reply{ChatID: 1, Text: "bye"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, b.Stop(ctx))
	assert.Equal(t, []string{"message:bye"}, sender.Calls())

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("polling did not stop")
	}
}
