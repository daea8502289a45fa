package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const (
	chatLockKeyPattern = "conversation:lock:%d"
	lockTTL            = 5 * time.Second
)

var (
	// ErrInvalidTransition indicates that a requested FSM transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that the chat has no pending state.
	ErrStateNotFound = errors.New("conversation state not found")
	// ErrStateLocked indicates that a concurrent operation already holds the lock.
	ErrStateLocked = errors.New("state is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe FSM transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// StateMachine describes the operations supported by the FSM controller.
type StateMachine interface {
	GetState(ctx context.Context, chatID int64) (*ConversationState, error)
	TransitionTo(ctx context.Context, chatID, userID int64, newState State) error
	// Take consumes the pending state of the chat. It returns ErrStateNotFound when the
	// chat is idle or its prompt has expired; in both cases nothing remains stored.
	Take(ctx context.Context, chatID int64) (*ConversationState, error)
	ClearState(ctx context.Context, chatID int64) error
	GetAllStates(ctx context.Context) ([]*ConversationState, error)
}

// machine is a concrete implementation of StateMachine backed by Storage and Redis locking.
type machine struct {
	storage Storage
	log     *slog.Logger
	locker  *redsync.Redsync
	ttl     time.Duration
	now     func() time.Time
}

// NewStateMachine creates a FSM controller using the provided storage backend. redisClient is
// optional and only used for per-chat locks; ttl bounds the life of a pending state (0 = forever).
func NewStateMachine(storage Storage, log *slog.Logger, redisClient *redis.Client, ttl time.Duration) StateMachine {
	if log == nil {
		log = slog.Default()
	}

	m := &machine{
		storage: storage,
		log:     log,
		ttl:     ttl,
		now:     time.Now,
	}
	if redisClient != nil {
		m.locker = redsync.New(goredis.NewPool(redisClient))
	}

	return m
}

// GetState returns the live state of the chat; expired states are reported as not found.
func (m *machine) GetState(ctx context.Context, chatID int64) (*ConversationState, error) {
	st, err := m.storage.GetState(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if st == nil || st.Expired(m.ttl, m.now()) {
		return nil, ErrStateNotFound
	}

	return st, nil
}

// GetAllStates returns every persisted state, including ones awaiting cleanup.
func (m *machine) GetAllStates(ctx context.Context) ([]*ConversationState, error) {
	return m.storage.GetAllStates(ctx)
}

// TransitionTo changes the state if the transition is allowed, guarded by a lock.
func (m *machine) TransitionTo(ctx context.Context, chatID, userID int64, newState State) error {
	unlock, err := m.lock(ctx, chatID)
	if err != nil {
		return err
	}
	defer unlock()

	current := StateIdle

	storedState, err := m.storage.GetState(ctx, chatID)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			return err
		}
	} else if storedState != nil && !storedState.Expired(m.ttl, m.now()) {
		current = storedState.CurrentState
	}

	if !IsTransitionAllowed(current, newState) {
		if m.log != nil {
			m.log.Warn("invalid state transition", "chat_id", chatID, "from", current, "to", newState)
		}
		return ErrInvalidTransition
	}

	transitionRecorder(string(current), string(newState))

	if newState == StateIdle {
		return m.storage.ClearState(ctx, chatID)
	}

	return m.saveState(ctx, chatID, userID, newState)
}

// Take atomically removes and returns the pending state of the chat.
func (m *machine) Take(ctx context.Context, chatID int64) (*ConversationState, error) {
	unlock, err := m.lock(ctx, chatID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := m.storage.TakeState(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStateNotFound
	}

	transitionRecorder(string(st.CurrentState), string(StateIdle))

	if st.Expired(m.ttl, m.now()) {
		if m.log != nil {
			m.log.Info("pending conversation expired", "chat_id", chatID, "state", st.CurrentState, "updated_at", st.UpdatedAt)
		}
		return nil, ErrStateNotFound
	}

	return st, nil
}

// ClearState removes the stored state via the backing storage while holding the lock.
func (m *machine) ClearState(ctx context.Context, chatID int64) error {
	unlock, err := m.lock(ctx, chatID)
	if err != nil {
		return err
	}
	defer unlock()

	return m.storage.ClearState(ctx, chatID)
}

func (m *machine) saveState(ctx context.Context, chatID, userID int64, state State) error {
	conversationState := &ConversationState{
		ChatID:       chatID,
		UserID:       userID,
		CurrentState: state,
		UpdatedAt:    m.now().UTC(),
	}

	return m.storage.SetState(ctx, chatID, conversationState)
}

func (m *machine) lock(ctx context.Context, chatID int64) (func(), error) {
	if m.locker == nil {
		return func() {}, nil
	}

	mutex := m.locker.NewMutex(
		fmt.Sprintf(chatLockKeyPattern, chatID),
		redsync.WithExpiry(lockTTL),
		redsync.WithTries(1),
	)

	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			m.log.Warn("conversation lock already held", "chat_id", chatID)
			return nil, ErrStateLocked
		}

		m.log.Error("failed to acquire conversation lock", "chat_id", chatID, "error", err)
		return nil, err
	}

	return func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			m.log.Error("failed to release conversation lock", "chat_id", chatID, "error", err)
		}
	}, nil
}
