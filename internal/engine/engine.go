package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kode4food/remedy/internal/config"
	"github.com/kode4food/remedy/internal/executor"
	"github.com/kode4food/remedy/pkg/api"
	"github.com/kode4food/remedy/pkg/log"
)

type (
	// Engine drives a loaded WorkflowPlan one step at a time
	Engine struct {
		exec       executor.StepExecutor
		config     *config.Config
		hub        *EventHub
		clock      Clock
		onComplete CompletionFunc
		ctx        context.Context
		cancel     context.CancelFunc
		seq        *logSequence
		run        *run
		calls      int
		wg         sync.WaitGroup
		mu         sync.Mutex
		pubMu      sync.Mutex
		closed     bool
	}

	// Dependencies are the collaborators an Engine is built with. Only
	// Executor is required
	Dependencies struct {
		Executor   executor.StepExecutor
		OnComplete CompletionFunc
		Clock      Clock
		Hub        *EventHub
	}

	// CompletionFunc is invoked once per plan, when the last step succeeds and
	// every other step has too
	CompletionFunc func(api.CompletionResult)
)

var (
	ErrValidation        = errors.New("invalid workflow plan")
	ErrOutOfRange        = errors.New("step index out of range")
	ErrReentrancy        = errors.New("a step is already running")
	ErrNoPlan            = errors.New("no workflow plan loaded")
	ErrStepSucceeded     = errors.New("step already succeeded")
	ErrWorkflowCompleted = errors.New("workflow already completed")
	ErrInvalidTransition = errors.New("invalid step status transition")
	ErrEngineShutdown    = errors.New("engine is shut down")
	ErrShutdownTimeout   = errors.New("shutdown timeout exceeded")
	ErrExecutorRequired  = errors.New("step executor required")
)

// New creates an Engine with no plan loaded
func New(cfg *config.Config, deps Dependencies) (*Engine, error) {
	if deps.Executor == nil {
		return nil, ErrExecutorRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	hub := deps.Hub
	if hub == nil {
		hub = NewEventHub()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		exec:       deps.Executor,
		config:     cfg,
		hub:        hub,
		clock:      clock,
		onComplete: deps.OnComplete,
		ctx:        ctx,
		cancel:     cancel,
		seq:        newLogSequence(clock),
	}, nil
}

// Hub returns the EventHub the engine publishes to
func (e *Engine) Hub() *EventHub {
	return e.hub
}

// Subscribe returns a consumer of the engine's events. Callers must Close it
func (e *Engine) Subscribe() EventConsumer {
	return e.hub.NewConsumer()
}

// LoadPlan validates the plan and, if it is well formed, replaces any
// previous plan, clearing statuses, the log, and auto mode. A rejected plan
// leaves the engine untouched
func (e *Engine) LoadPlan(plan *api.WorkflowPlan) (api.RunID, error) {
	p := plan.Clone()
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var id api.RunID
	err := e.transact(func(t *tx) error {
		if e.closed {
			return ErrEngineShutdown
		}
		if prev := e.run; prev != nil {
			prev.close()
		}
		r := newRun(e.ctx, p, e.seq)
		e.run = r
		id = r.id
		t.raise(r.id, api.EventTypePlanLoaded, api.PlanLoadedEvent{
			Plan: p.Clone(),
		})
		return nil
	})
	if err != nil {
		return "", err
	}

	slog.Info("Workflow plan loaded",
		log.RunID(id),
		slog.Int("steps", len(p.Steps)),
		slog.String("category", p.ProblemCategory))
	return id, nil
}

// Reset discards the loaded plan together with its statuses and log. An
// in-flight step is cancelled and its outcome ignored
func (e *Engine) Reset() {
	var id api.RunID
	_ = e.transact(func(t *tx) error {
		r := e.run
		if r == nil {
			return nil
		}
		r.close()
		e.run = nil
		id = r.id
		t.raise(r.id, api.EventTypeWorkflowReset, nil)
		return nil
	})
	if id != "" {
		slog.Info("Workflow reset", log.RunID(id))
	}
}

// Stop turns auto mode off. A step already in flight still resolves and is
// recorded normally; only the next automatic step is suppressed
func (e *Engine) Stop() error {
	return e.transact(func(t *tx) error {
		r, err := e.activeRun()
		if err != nil {
			return err
		}
		inFlight := r.inFlight >= 0
		if !r.auto && !r.chainPending() && !inFlight {
			return nil
		}
		r.auto = false
		r.cancelChain()
		r.paused = true
		t.log(r, api.LogInfo, 0, "Auto execution stopped")
		t.raise(r.id, api.EventTypeWorkflowStopped, api.WorkflowStoppedEvent{
			InFlight: inFlight,
		})
		return nil
	})
}

// Shutdown cancels pending work and waits for in-flight steps to resolve,
// bounded by the configured shutdown timeout
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	e.closed = true
	if e.run != nil {
		e.run.auto = false
		e.run.cancelChain()
	}
	e.mu.Unlock()
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.pubMu.Lock()
		e.hub.Close()
		e.pubMu.Unlock()
		slog.Info("Engine stopped")
		return nil
	case <-time.After(e.config.ShutdownTimeout):
		return ErrShutdownTimeout
	}
}

// State returns a snapshot of the whole workflow
func (e *Engine) State() *api.WorkflowState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return &api.WorkflowState{
			Status:   api.WorkflowIdle,
			Statuses: []api.StepStatus{},
			Log:      []api.LogEntry{},
		}
	}
	return e.run.snapshot()
}

// Status returns the derived whole-workflow status
func (e *Engine) Status() api.WorkflowStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return api.WorkflowIdle
	}
	return e.run.status()
}

// Progress returns the percentage of steps that have succeeded, recomputed
// from the current statuses on every call
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return 0
	}
	return e.run.statuses.Progress()
}

// Statuses returns a snapshot of the step statuses in index order
func (e *Engine) Statuses() []api.StepStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return []api.StepStatus{}
	}
	return e.run.statuses.Snapshot()
}

// Log returns a snapshot of the execution log
func (e *Engine) Log() []api.LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return []api.LogEntry{}
	}
	return e.run.log.Entries()
}

// Plan returns a copy of the loaded plan, or nil when idle
func (e *Engine) Plan() *api.WorkflowPlan {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return nil
	}
	return e.run.plan.Clone()
}

func (e *Engine) activeRun() (*run, error) {
	if e.closed {
		return nil, ErrEngineShutdown
	}
	if e.run == nil {
		return nil, ErrNoPlan
	}
	return e.run, nil
}
