package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/remedy/pkg/api"
)

// run is everything that lives and dies with one loaded plan
type run struct {
	ctx       context.Context
	cancel    context.CancelFunc
	plan      *api.WorkflowPlan
	statuses  *StatusTracker
	log       *ExecutionLog
	chain     *time.Timer
	id        api.RunID
	chainGen  uint64
	current   int
	inFlight  int
	auto      bool
	paused    bool
	halted    bool
	completed bool
}

func newRun(
	parent context.Context, plan *api.WorkflowPlan, seq *logSequence,
) *run {
	ctx, cancel := context.WithCancel(parent)
	return &run{
		ctx:      ctx,
		cancel:   cancel,
		plan:     plan,
		statuses: NewStatusTracker(len(plan.Steps)),
		log:      newExecutionLog(seq),
		id:       api.RunID(uuid.New().String()),
		inFlight: -1,
	}
}

func (r *run) close() {
	r.auto = false
	r.cancelChain()
	r.cancel()
}

func (r *run) chainPending() bool {
	return r.chain != nil
}

// cancelChain stops any pending auto step. Bumping chainGen also voids a
// timer that has already fired but not yet taken the engine lock
func (r *run) cancelChain() {
	r.chainGen++
	if r.chain != nil {
		r.chain.Stop()
		r.chain = nil
	}
}

func (r *run) status() api.WorkflowStatus {
	switch {
	case r.completed:
		return api.WorkflowCompleted
	case r.paused:
		return api.WorkflowPaused
	case r.inFlight >= 0 || r.chainPending():
		return api.WorkflowRunning
	case r.halted:
		return api.WorkflowHalted
	case r.statuses.Count(api.StepPending) == r.statuses.Len():
		return api.WorkflowLoaded
	default:
		return api.WorkflowPaused
	}
}

func (r *run) snapshot() *api.WorkflowState {
	return &api.WorkflowState{
		Plan:     r.plan.Clone(),
		RunID:    r.id,
		Status:   r.status(),
		Statuses: r.statuses.Snapshot(),
		Log:      r.log.Entries(),
		Current:  r.current,
		Progress: r.statuses.Progress(),
		AutoMode: r.auto,
	}
}
