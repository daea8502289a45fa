package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/joke-bot/internal/errors"
	"github.com/Proton-105/joke-bot/pkg/metrics"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// ErrOutboxClosed is returned for traffic issued after Close.
var ErrOutboxClosed = errors.New("outbox is closed")

// Sender performs the actual platform calls.
type Sender interface {
	SendMessage(ctx context.Context, r handlers.Reply) error
	AnswerInline(ctx context.Context, a handlers.InlineAnswer) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type outboxJob struct {
	name string
	run  func(ctx context.Context) error
	done chan struct{}
}

// Outbox is a bounded FIFO of outbound calls drained by a single worker. Issuing a reply
// returns as soon as it is queued; when the queue is full the caller waits for space.
type Outbox struct {
	sender  Sender
	breaker *apperrors.CircuitBreaker
	log     *slog.Logger

	send      chan outboxJob
	close     chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
}

var _ handlers.Replier = (*Outbox)(nil)

// NewOutbox creates an outbox with room for size pending calls.
func NewOutbox(sender Sender, size int, log *slog.Logger) *Outbox {
	if log == nil {
		log = slog.Default()
	}
	if size <= 0 {
		size = 1
	}

	return &Outbox{
		sender:  sender,
		breaker: apperrors.NewCircuitBreaker(breakerThreshold, breakerCooldown),
		log:     log,
		send:    make(chan outboxJob, size),
		close:   make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the worker.
func (o *Outbox) Start() {
	go o.writeLoop()
}

// Reply queues a chat message.
func (o *Outbox) Reply(ctx context.Context, r handlers.Reply) error {
	return o.enqueue(ctx, outboxJob{name: "send_message", run: func(ctx context.Context) error {
		return o.sender.SendMessage(ctx, r)
	}})
}

// Answer queues an inline query answer.
func (o *Outbox) Answer(ctx context.Context, a handlers.InlineAnswer) error {
	return o.enqueue(ctx, outboxJob{name: "answer_inline", run: func(ctx context.Context) error {
		return o.sender.AnswerInline(ctx, a)
	}})
}

// AckCallback queues a callback acknowledgement.
func (o *Outbox) AckCallback(ctx context.Context, callbackID, text string) error {
	return o.enqueue(ctx, outboxJob{name: "answer_callback", run: func(ctx context.Context) error {
		return o.sender.AnswerCallback(ctx, callbackID, text)
	}})
}

// Flush waits until every call queued before it has been attempted.
func (o *Outbox) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := o.enqueue(ctx, outboxJob{name: "flush", done: done}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-o.stopped:
		return ErrOutboxClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new calls and waits for the queued ones to be attempted.
func (o *Outbox) Close(ctx context.Context) error {
	o.closeOnce.Do(func() { close(o.close) })

	select {
	case <-o.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len reports the number of queued calls.
func (o *Outbox) Len() int {
	return len(o.send)
}

func (o *Outbox) enqueue(ctx context.Context, job outboxJob) error {
	select {
	case <-o.close:
		return ErrOutboxClosed
	default:
	}

	select {
	case <-o.close:
		return ErrOutboxClosed
	case <-ctx.Done():
		return ctx.Err()
	case o.send <- job:
		metrics.SetOutboxDepth(len(o.send))
		return nil
	}
}

func (o *Outbox) writeLoop() {
	defer close(o.stopped)

	for {
		select {
		case job := <-o.send:
			o.process(job)
		case <-o.close:
			o.drain()
			return
		}
	}
}

func (o *Outbox) drain() {
	for {
		select {
		case job := <-o.send:
			o.process(job)
		default:
			return
		}
	}
}

func (o *Outbox) process(job outboxJob) {
	metrics.SetOutboxDepth(len(o.send))

	if job.done != nil {
		close(job.done)
	}
	if job.run == nil {
		return
	}

	// Queued calls outlive the update that issued them.
	err := o.breaker.Call(func() error {
		return job.run(context.Background())
	})
	switch {
	case errors.Is(err, apperrors.ErrCircuitOpen):
		o.log.Warn("outbound call dropped", slog.String("call", job.name), slog.Any("error", err))
	case err != nil:
		o.log.Error("outbound call failed", slog.String("call", job.name), slog.Any("error", err))
	}
}
