package state

import "time"

// State represents a conversation state. A chat without a stored state is idle.
type State string

const (
	// StateIdle indicates that the bot is waiting for the next command.
	StateIdle State = "idle"
	// StateAwaitingSubmission indicates that the next message of the chat is a joke submission.
	StateAwaitingSubmission State = "awaiting_submission"
)

// ConversationState is the pending continuation of one private chat.
type ConversationState struct {
	ChatID       int64                  `json:"chat_id"`
	UserID       int64                  `json:"user_id"`
	CurrentState State                  `json:"current_state"`
	Context      map[string]interface{} `json:"context,omitempty"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Expired reports whether the state is older than ttl at now. A non-positive ttl never expires.
func (s *ConversationState) Expired(ttl time.Duration, now time.Time) bool {
	if s == nil || ttl <= 0 || s.UpdatedAt.IsZero() {
		return false
	}
	return now.Sub(s.UpdatedAt) > ttl
}
