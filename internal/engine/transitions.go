package engine

import (
	"github.com/kode4food/remedy/pkg/api"
	"github.com/kode4food/remedy/pkg/util"
)

// StateTransitions maps states to their set of valid next states
type StateTransitions[T comparable] map[T]util.Set[T]

var stepTransitions = StateTransitions[api.StepStatus]{
	api.StepPending: util.SetOf(
		api.StepRunning,
	),
	api.StepRunning: util.SetOf(
		api.StepSuccess,
		api.StepFailed,
	),
	api.StepFailed: util.SetOf(
		api.StepRunning,
	),
	api.StepSuccess: {},
}

// CanTransition returns whether transition from one state to another is valid
func (t StateTransitions[T]) CanTransition(from, to T) bool {
	allowed, ok := t[from]
	if !ok {
		return false
	}
	return allowed.Contains(to)
}

// IsTerminal returns true if the state has no valid transitions
func (t StateTransitions[T]) IsTerminal(state T) bool {
	allowed, ok := t[state]
	return ok && len(allowed) == 0
}
