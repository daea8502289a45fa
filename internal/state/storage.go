// Package state keeps the per-chat conversation state machine of the bot.
package state

import "context"

// Storage defines the persistence contract for pending conversation states.
type Storage interface {
	// GetState returns the current state for the specified chat.
	GetState(ctx context.Context, chatID int64) (*ConversationState, error)
	// SetState saves the provided state for the specified chat, replacing any previous one.
	SetState(ctx context.Context, chatID int64, state *ConversationState) error
	// TakeState atomically returns and removes the state for the specified chat.
	TakeState(ctx context.Context, chatID int64) (*ConversationState, error)
	// ClearState removes the state for the specified chat.
	ClearState(ctx context.Context, chatID int64) error
	// GetAllStates returns every stored state.
	GetAllStates(ctx context.Context) ([]*ConversationState, error)
}
