package assert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/remedy/internal/config"
	"github.com/kode4food/remedy/pkg/api"
)

type (
	// StateGetter is anything that can report a workflow snapshot
	StateGetter interface {
		State() *api.WorkflowState
	}

	// Wrapper wraps testify assertions with remedy-specific helpers
	Wrapper struct {
		*testing.T
		*assert.Assertions
		Require *require.Assertions
	}
)

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 10 * time.Millisecond

// New creates a new test assertion wrapper with both assert and require from
// testify plus remedy-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    require.New(t),
	}
}

// PlanValid asserts that a plan passes validation
func (w *Wrapper) PlanValid(p *api.WorkflowPlan) {
	w.Helper()
	w.NoError(p.Validate())
	if p != nil {
		w.NotEmpty(p.Steps)
	}
}

// PlanInvalid asserts that a plan fails validation with the expected cause
func (w *Wrapper) PlanInvalid(p *api.WorkflowPlan, expected error) error {
	w.Helper()
	err := p.Validate()
	w.Error(err)
	if expected != nil {
		w.ErrorIs(err, expected)
	}
	return err
}

// Statuses asserts the per-step statuses of a workflow, in index order
func (w *Wrapper) Statuses(get StateGetter, expected ...api.StepStatus) {
	w.Helper()
	w.Equal(expected, get.State().Statuses)
}

// WorkflowStatus asserts the derived whole-workflow status
func (w *Wrapper) WorkflowStatus(
	get StateGetter, expected api.WorkflowStatus,
) {
	w.Helper()
	w.Equal(expected, get.State().Status)
}

// Progress asserts the completion percentage of a workflow
func (w *Wrapper) Progress(get StateGetter, expected float64) {
	w.Helper()
	w.InDelta(expected, get.State().Progress, 0.01)
}

// LogCount asserts how many log entries have the given level
func (w *Wrapper) LogCount(
	entries []api.LogEntry, level api.LogLevel, expected int,
) {
	w.Helper()
	var count int
	for _, e := range entries {
		if e.Level == level {
			count++
		}
	}
	w.Equal(expected, count, "log entries with level %s", level)
}

// NoLogForStep asserts that no log entry concerns the given step order
func (w *Wrapper) NoLogForStep(entries []api.LogEntry, order int) {
	w.Helper()
	for _, e := range entries {
		w.NotEqual(order, e.Step, "unexpected entry for step %d: %s",
			order, e.Message)
	}
}

// LogOrdered asserts that log ids strictly increase and timestamps never
// decrease
func (w *Wrapper) LogOrdered(entries []api.LogEntry) {
	w.Helper()
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		w.Greater(cur.ID, prev.ID, "log id at %d", i)
		w.False(cur.Timestamp.Before(prev.Timestamp),
			"log timestamp at %d goes backwards", i)
	}
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= 65535)
	w.True(cfg.StepTimeout > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if err != nil && contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}

// Never asserts that a condition stays false for the whole duration
func (w *Wrapper) Never(
	condition func() bool, duration time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if condition() {
			w.Fail(msg, args...)
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
}
