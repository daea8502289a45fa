package state

import (
	"context"
	"sort"
	"sync"
)

// MemoryStorage keeps conversation states in process memory. It is the default backend
// when Redis is disabled; states do not survive a restart.
type MemoryStorage struct {
	mu     sync.Mutex
	states map[int64]*ConversationState
}

// NewMemoryStorage initializes an empty in-memory Storage implementation.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{states: make(map[int64]*ConversationState)}
}

// GetState returns a copy of the stored state or ErrStateNotFound when absent.
func (s *MemoryStorage) GetState(_ context.Context, chatID int64) (*ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[chatID]
	if !ok {
		return nil, ErrStateNotFound
	}

	return cloneState(st), nil
}

// SetState stores a copy of state, replacing any previous one.
func (s *MemoryStorage) SetState(_ context.Context, chatID int64, state *ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[chatID] = cloneState(state)
	return nil
}

// TakeState returns and removes the stored state in a single critical section.
func (s *MemoryStorage) TakeState(_ context.Context, chatID int64) (*ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[chatID]
	if !ok {
		return nil, ErrStateNotFound
	}
	delete(s.states, chatID)

	return st, nil
}

// ClearState removes the state for the given chat.
func (s *MemoryStorage) ClearState(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, chatID)
	return nil
}

// GetAllStates returns copies of all stored states ordered by chat id.
func (s *MemoryStorage) GetAllStates(_ context.Context) ([]*ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*ConversationState, 0, len(s.states))
	for _, st := range s.states {
		result = append(result, cloneState(st))
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ChatID < result[j].ChatID })
	return result, nil
}

func cloneState(state *ConversationState) *ConversationState {
	if state == nil {
		return nil
	}

	copyState := *state
	if state.Context != nil {
		ctxCopy := make(map[string]interface{}, len(state.Context))
		for k, v := range state.Context {
			ctxCopy[k] = v
		}
		copyState.Context = ctxCopy
	}
	return &copyState
}
