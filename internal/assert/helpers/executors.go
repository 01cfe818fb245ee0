package helpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kode4food/remedy/internal/executor"
	"github.com/kode4food/remedy/pkg/api"
)

type (
	// ScriptedExecutor returns a predetermined outcome per step order and
	// records every request it receives
	ScriptedExecutor struct {
		outcomes map[int][]api.Outcome
		errors   map[int]error
		invoked  []int
		mu       sync.Mutex
	}

	// GatedExecutor blocks each step until the test releases it
	GatedExecutor struct {
		gates   map[int]chan api.Outcome
		started chan int
		mu      sync.Mutex
	}
)

var (
	_ executor.StepExecutor = (*ScriptedExecutor)(nil)
	_ executor.StepExecutor = (*GatedExecutor)(nil)
)

// AlwaysSucceed returns an executor whose every step succeeds immediately
func AlwaysSucceed() executor.StepExecutor {
	return executor.Func(
		func(_ context.Context, req *api.StepRequest) (api.Outcome, error) {
			return api.Succeeded(
				fmt.Sprintf("step %d ok", req.Step.Order),
			), nil
		},
	)
}

// AlwaysFail returns an executor whose every step fails immediately
func AlwaysFail() executor.StepExecutor {
	return executor.Func(
		func(_ context.Context, req *api.StepRequest) (api.Outcome, error) {
			return api.Failed(
				fmt.Sprintf("step %d failed", req.Step.Order),
			), nil
		},
	)
}

// Delayed wraps an executor so that each step first waits d, honoring
// cancellation
func Delayed(
	d time.Duration, next executor.StepExecutor,
) executor.StepExecutor {
	return executor.Func(
		func(ctx context.Context, req *api.StepRequest) (api.Outcome, error) {
			select {
			case <-ctx.Done():
				return api.Outcome{}, ctx.Err()
			case <-time.After(d):
				return next.Run(ctx, req)
			}
		},
	)
}

// Blocking returns an executor that never resolves on its own; it ignores
// its context so the engine's deadline is the only way out
func Blocking() executor.StepExecutor {
	return executor.Func(
		func(context.Context, *api.StepRequest) (api.Outcome, error) {
			select {}
		},
	)
}

// Panicking returns an executor that panics on every step
func Panicking() executor.StepExecutor {
	return executor.Func(
		func(context.Context, *api.StepRequest) (api.Outcome, error) {
			panic("executor exploded")
		},
	)
}

// NewScriptedExecutor creates an executor where every step succeeds unless
// scripted otherwise
func NewScriptedExecutor() *ScriptedExecutor {
	return &ScriptedExecutor{
		outcomes: map[int][]api.Outcome{},
		errors:   map[int]error{},
	}
}

// Fail scripts the next execution of the step with the given order to fail
func (s *ScriptedExecutor) Fail(order int) *ScriptedExecutor {
	return s.Then(order, api.Failed(fmt.Sprintf("step %d failed", order)))
}

// Then queues an outcome for the step with the given order. Queued outcomes
// are consumed one per execution; once exhausted the step succeeds
func (s *ScriptedExecutor) Then(
	order int, out api.Outcome,
) *ScriptedExecutor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[order] = append(s.outcomes[order], out)
	return s
}

// Error makes every execution of the step with the given order return err
func (s *ScriptedExecutor) Error(order int, err error) *ScriptedExecutor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[order] = err
	return s
}

// Run implements executor.StepExecutor
func (s *ScriptedExecutor) Run(
	_ context.Context, req *api.StepRequest,
) (api.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := req.Step.Order
	s.invoked = append(s.invoked, order)
	if err, ok := s.errors[order]; ok {
		return api.Outcome{}, err
	}
	if queued := s.outcomes[order]; len(queued) > 0 {
		s.outcomes[order] = queued[1:]
		return queued[0], nil
	}
	return api.Succeeded(fmt.Sprintf("step %d ok", order)), nil
}

// Invoked returns the step orders executed so far, in call order
func (s *ScriptedExecutor) Invoked() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]int, len(s.invoked))
	copy(res, s.invoked)
	return res
}

// NewGatedExecutor creates an executor that holds every step until Release
func NewGatedExecutor() *GatedExecutor {
	return &GatedExecutor{
		gates:   map[int]chan api.Outcome{},
		started: make(chan int, 64),
	}
}

// Started delivers the order of each step as it begins executing
func (g *GatedExecutor) Started() <-chan int {
	return g.started
}

// Release resolves the step with the given order with out
func (g *GatedExecutor) Release(order int, out api.Outcome) {
	g.gate(order) <- out
}

// Run implements executor.StepExecutor
func (g *GatedExecutor) Run(
	ctx context.Context, req *api.StepRequest,
) (api.Outcome, error) {
	gate := g.gate(req.Step.Order)
	g.started <- req.Step.Order
	select {
	case out := <-gate:
		return out, nil
	case <-ctx.Done():
		return api.Outcome{}, ctx.Err()
	}
}

func (g *GatedExecutor) gate(order int) chan api.Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ch, ok := g.gates[order]; ok {
		return ch
	}
	ch := make(chan api.Outcome, 1)
	g.gates[order] = ch
	return ch
}
