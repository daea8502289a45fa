package metrics

import (
	"context"
	"time"

	"github.com/Proton-105/joke-bot/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot events handled labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot event handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of conversation state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	pendingConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_conversations",
			Help: "Current number of chats with a pending continuation",
		},
	)
	conversationsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "conversations_by_state",
			Help: "Number of pending conversations per state",
		},
		[]string{"state"},
	)
	jokesAddedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jokes_added_total",
			Help: "Total number of jokes stored",
		},
	)
	inlineQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inline_queries_total",
			Help: "Total number of inline queries answered labeled by kind",
		},
		[]string{"kind"},
	)
	updateStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "update_steps_total",
			Help: "Total number of self-update steps executed labeled by step and status",
		},
		[]string{"step", "status"},
	)
	outboxQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbox_queue_depth",
			Help: "Number of outgoing replies waiting to be sent",
		},
	)
)

var trackedStates = []state.State{
	state.StateAwaitingSubmission,
}

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStateTransition tracks FSM transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// AddJokes counts stored jokes.
func AddJokes(n int) {
	if n <= 0 {
		return
	}
	jokesAddedTotal.Add(float64(n))
}

// RecordInlineQuery counts answered inline queries; kind is "random", "search" or "empty".
func RecordInlineQuery(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	inlineQueriesTotal.WithLabelValues(kind).Inc()
}

// RecordUpdateStep counts executed self-update steps.
func RecordUpdateStep(step, status string) {
	updateStepsTotal.WithLabelValues(step, status).Inc()
}

// SetOutboxDepth updates the outgoing reply queue gauge.
func SetOutboxDepth(depth int) {
	outboxQueueDepth.Set(float64(depth))
}

// SetPendingConversations updates the gauge for chats awaiting a continuation.
func SetPendingConversations(count int) {
	pendingConversations.Set(float64(count))
}

// SetConversationsByState updates the gauge for the given state.
func SetConversationsByState(state string, count int) {
	if state == "" {
		state = "unknown"
	}

	conversationsByState.WithLabelValues(state).Set(float64(count))
}

// StateCollector periodically gathers FSM state counts and emits gauge metrics.
type StateCollector struct {
	fsm      state.StateMachine
	interval time.Duration
}

// NewStateCollector builds a metrics collector bound to the provided FSM.
func NewStateCollector(fsm state.StateMachine) *StateCollector {
	return &StateCollector{fsm: fsm, interval: 10 * time.Second}
}

// Run polls the FSM every interval, updating conversation gauges until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.fsm == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) error {
	states, err := c.fsm.GetAllStates(ctx)
	if err != nil {
		return err
	}

	SetPendingConversations(len(states))

	stateCounts := make(map[string]int, len(states))
	for _, st := range states {
		label := "unknown"
		if st != nil && st.CurrentState != "" {
			label = string(st.CurrentState)
		}
		stateCounts[label]++
	}

	conversationsByState.Reset()

	for _, tracked := range trackedStates {
		label := string(tracked)
		SetConversationsByState(label, stateCounts[label])
		delete(stateCounts, label)
	}

	for label, count := range stateCounts {
		SetConversationsByState(label, count)
	}

	return nil
}
