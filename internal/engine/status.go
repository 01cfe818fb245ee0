package engine

import (
	"fmt"

	"github.com/kode4food/remedy/pkg/api"
)

// StatusTracker maps each step index of a loaded plan to its lifecycle
// status. It is owned by the Engine; consumers only see snapshots
type StatusTracker struct {
	statuses []api.StepStatus
}

// NewStatusTracker creates a tracker with n steps, all Pending
func NewStatusTracker(n int) *StatusTracker {
	res := &StatusTracker{
		statuses: make([]api.StepStatus, n),
	}
	for i := range res.statuses {
		res.statuses[i] = api.StepPending
	}
	return res
}

// Len returns the number of tracked steps
func (s *StatusTracker) Len() int {
	return len(s.statuses)
}

// Get returns the status of the step at index i
func (s *StatusTracker) Get(i int) api.StepStatus {
	return s.statuses[i]
}

// Set moves the step at index i to the given status, rejecting any change
// the step transition table does not allow
func (s *StatusTracker) Set(i int, status api.StepStatus) error {
	if i < 0 || i >= len(s.statuses) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	from := s.statuses[i]
	if !stepTransitions.CanTransition(from, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
	}
	s.statuses[i] = status
	return nil
}

// Snapshot returns a copy of all step statuses in index order
func (s *StatusTracker) Snapshot() []api.StepStatus {
	res := make([]api.StepStatus, len(s.statuses))
	copy(res, s.statuses)
	return res
}

// Count returns the number of steps currently in the given status
func (s *StatusTracker) Count(status api.StepStatus) int {
	var res int
	for _, st := range s.statuses {
		if st == status {
			res++
		}
	}
	return res
}

// Progress returns the percentage of steps that have reached Success
func (s *StatusTracker) Progress() float64 {
	if len(s.statuses) == 0 {
		return 0
	}
	return float64(s.Count(api.StepSuccess)) / float64(len(s.statuses)) * 100
}

// Running returns the index of the step that is currently Running
func (s *StatusTracker) Running() (int, bool) {
	for i, st := range s.statuses {
		if st == api.StepRunning {
			return i, true
		}
	}
	return -1, false
}

// NextUnsucceeded returns the first index at or after from whose status is
// not Success, or -1 when there is none
func (s *StatusTracker) NextUnsucceeded(from int) int {
	for i := max(from, 0); i < len(s.statuses); i++ {
		if s.statuses[i] != api.StepSuccess {
			return i
		}
	}
	return -1
}

// AllSucceeded reports whether every step is Success
func (s *StatusTracker) AllSucceeded() bool {
	return s.NextUnsucceeded(0) == -1
}
