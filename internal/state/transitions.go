package state

import "github.com/samber/lo"

// enterableFrom lists, per target state, the states it may be entered from. Re-entering
// StateAwaitingSubmission replaces the pending prompt. Any state may return to StateIdle.
var enterableFrom = map[State][]State{
	StateAwaitingSubmission: {StateIdle, StateAwaitingSubmission},
}

// IsTransitionAllowed reports whether the conversation may move from one state to another.
func IsTransitionAllowed(from, to State) bool {
	return to == StateIdle || lo.Contains(enterableFrom[to], from)
}
