package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kode4food/remedy/pkg/api"
	"github.com/kode4food/remedy/pkg/log"
)

// attempt is one accepted execution of one step
type attempt struct {
	run    *run
	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool
	req    *api.StepRequest
	index  int
}

var errChainCancelled = errors.New("auto chain cancelled")

// ExecuteStep runs the step at index and waits for its outcome. Guard
// violations are returned before anything is mutated; a failed step is not
// an error, it is reported through the returned Outcome
func (e *Engine) ExecuteStep(
	ctx context.Context, index int,
) (api.Outcome, error) {
	a, err := e.accept(ctx, index)
	if err != nil {
		return api.Outcome{}, err
	}
	return e.perform(a), nil
}

// StartStep accepts the step at index and runs it in the background
func (e *Engine) StartStep(index int) error {
	a, err := e.accept(e.ctx, index)
	if err != nil {
		return err
	}
	go e.perform(a)
	return nil
}

// ExecuteAll turns auto mode on and starts the chain at the first step that
// has not succeeded, leaving the current-step pointer untouched. It returns
// once that step is running
func (e *Engine) ExecuteAll() error {
	var a *attempt
	err := e.transact(func(t *tx) error {
		r, err := e.activeRun()
		if err != nil {
			return err
		}
		if r.completed {
			return ErrWorkflowCompleted
		}
		from := r.statuses.NextUnsucceeded(0)
		if err := e.checkStart(r, from); err != nil {
			return err
		}

		r.cancelChain()
		r.auto = true
		step := r.plan.Steps[from]
		t.log(r, api.LogInfo, 0,
			fmt.Sprintf("Auto execution started at step %d", step.Order))
		t.raise(r.id, api.EventTypeWorkflowStarted, api.WorkflowStartedEvent{
			From: from,
		})
		a = e.start(t, r, e.ctx, from)
		return nil
	})
	if err != nil {
		return err
	}
	go e.perform(a)
	return nil
}

func (e *Engine) accept(ctx context.Context, index int) (*attempt, error) {
	var a *attempt
	err := e.transact(func(t *tx) error {
		r, err := e.activeRun()
		if err != nil {
			return err
		}
		if err := e.checkStart(r, index); err != nil {
			return err
		}
		a = e.start(t, r, ctx, index)
		return nil
	})
	return a, err
}

// checkStart enforces every precondition of running the step at index
// without mutating anything
func (e *Engine) checkStart(r *run, index int) error {
	if index < 0 || index >= len(r.plan.Steps) {
		return fmt.Errorf("%w: %d not in [0, %d)",
			ErrOutOfRange, index, len(r.plan.Steps))
	}
	if r.inFlight >= 0 {
		return fmt.Errorf("%w: step %d",
			ErrReentrancy, r.plan.Steps[r.inFlight].Order)
	}
	if e.calls > 0 {
		return fmt.Errorf("%w: abandoned executor call has not returned",
			ErrReentrancy)
	}
	if r.completed {
		return ErrWorkflowCompleted
	}
	if r.statuses.Get(index) == api.StepSuccess {
		return fmt.Errorf("%w: step %d",
			ErrStepSucceeded, r.plan.Steps[index].Order)
	}
	return nil
}

func (e *Engine) start(
	t *tx, r *run, parent context.Context, index int,
) *attempt {
	step := r.plan.Steps[index]
	if err := r.statuses.Set(index, api.StepRunning); err != nil {
		// checkStart has already ruled this out
		panic(err)
	}
	r.inFlight = index
	r.paused = false
	r.halted = false

	t.log(r, api.LogInfo, step.Order,
		fmt.Sprintf("Executing step %d: %s", step.Order, step.Description))
	t.raise(r.id, api.EventTypeStepStarted, api.StepStartedEvent{
		Type:  step.Type,
		Index: index,
		Order: step.Order,
		Auto:  r.auto,
	})

	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(r.ctx, cancel)
	e.wg.Add(1)
	e.calls++

	s := *step
	return &attempt{
		run:    r,
		ctx:    ctx,
		cancel: cancel,
		stop:   stop,
		index:  index,
		req: &api.StepRequest{
			Step:            &s,
			RunID:           r.id,
			ProblemSummary:  r.plan.ProblemSummary,
			ProblemCategory: r.plan.ProblemCategory,
			Urgency:         r.plan.Urgency,
		},
	}
}

func (e *Engine) perform(a *attempt) api.Outcome {
	defer e.wg.Done()
	defer a.cancel()
	defer a.stop()

	slog.Debug("Executing step",
		log.RunID(a.run.id),
		log.StepOrder(a.req.Step.Order),
		log.StepType(a.req.Step.Type))

	out := e.invoke(a.ctx, a.req, e.stepTimeout(a.req.Step))
	e.resolve(a, out)
	return out
}

// resolve applies an outcome to the run that produced it, unless that run
// has since been replaced
func (e *Engine) resolve(a *attempt, out api.Outcome) {
	_ = e.transact(func(t *tx) error {
		r := e.run
		if r != a.run {
			slog.Warn("Discarding stale step outcome",
				log.RunID(a.run.id),
				log.StepOrder(a.req.Step.Order),
				slog.Bool("success", out.Success))
			return nil
		}
		r.inFlight = -1
		if out.Success {
			e.succeed(t, r, a.index, out)
		} else {
			e.fail(t, r, a.index, out)
		}
		return nil
	})
}

func (e *Engine) succeed(t *tx, r *run, index int, out api.Outcome) {
	step := r.plan.Steps[index]
	_ = r.statuses.Set(index, api.StepSuccess)

	expected := step.ExpectedOutcome
	if expected == "" {
		expected = out.ResultText
	}
	t.log(r, api.LogSuccess, step.Order,
		fmt.Sprintf("Step %d completed: %s", step.Order, expected))
	t.raise(r.id, api.EventTypeStepSucceeded, api.StepSucceededEvent{
		Result:   out.ResultText,
		Index:    index,
		Order:    step.Order,
		Progress: r.statuses.Progress(),
	})
	r.current = max(r.current, index+1)

	// The last step may run ahead of a failed one; completion then waits
	// for that step to be retried to Success
	if r.statuses.AllSucceeded() {
		e.finish(t, r)
		return
	}
	if r.auto {
		e.chain(r, r.statuses.NextUnsucceeded(index+1))
	}
}

func (e *Engine) fail(t *tx, r *run, index int, out api.Outcome) {
	step := r.plan.Steps[index]
	_ = r.statuses.Set(index, api.StepFailed)
	r.auto = false
	r.paused = false
	r.halted = true

	result := out.ResultText
	if result == "" {
		result = "step reported failure"
	}
	fallback := step.FallbackAction
	if fallback == "" {
		fallback = r.plan.FailureEscalation
	}

	t.log(r, api.LogError, step.Order,
		fmt.Sprintf("Step %d failed: %s", step.Order, result))
	t.log(r, api.LogWarning, step.Order, "Fallback: "+fallback)
	t.raise(r.id, api.EventTypeStepFailed, api.StepFailedEvent{
		Result:         result,
		FallbackAction: fallback,
		Index:          index,
		Order:          step.Order,
	})

	slog.Info("Step failed",
		log.RunID(r.id),
		log.StepOrder(step.Order),
		log.StepType(step.Type),
		slog.String("result", result))
}

func (e *Engine) finish(t *tx, r *run) {
	r.completed = true
	r.auto = false
	r.paused = false

	msg := r.plan.SuccessMessage
	if msg == "" {
		msg = "Workflow completed successfully"
	}
	res := api.CompletionResult{
		Plan:        r.plan.Clone(),
		RunID:       r.id,
		CompletedAt: e.clock(),
		Success:     true,
	}
	t.log(r, api.LogInfo, 0, msg)
	t.raise(r.id, api.EventTypeWorkflowCompleted, api.WorkflowCompletedEvent{
		Result: res,
	})
	t.completion = &res

	slog.Info("Workflow completed",
		log.RunID(r.id),
		slog.Int("steps", len(r.plan.Steps)))
}

// chain schedules the next automatic step after the configured delay
func (e *Engine) chain(r *run, index int) {
	if index < 0 {
		return
	}
	r.cancelChain()
	id, gen := r.id, r.chainGen
	r.chain = time.AfterFunc(e.config.AutoAdvanceDelay, func() {
		e.advance(id, gen, index)
	})
}

func (e *Engine) advance(id api.RunID, gen uint64, index int) {
	var a *attempt
	err := e.transact(func(t *tx) error {
		r := e.run
		if e.closed || r == nil || r.id != id {
			return errChainCancelled
		}
		if r.chainGen != gen || !r.auto {
			return errChainCancelled
		}
		r.chain = nil
		if err := e.checkStart(r, index); err != nil {
			return err
		}
		a = e.start(t, r, e.ctx, index)
		return nil
	})
	if err != nil {
		if !errors.Is(err, errChainCancelled) {
			slog.Warn("Auto chain halted",
				log.RunID(id),
				log.Error(err))
		}
		return
	}
	e.perform(a)
}
