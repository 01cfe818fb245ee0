package executor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/kode4food/remedy/pkg/api"
)

// SimulatedExecutor stands in for real remediation systems. It waits a fixed
// delay and then succeeds with the configured probability
type SimulatedExecutor struct {
	rng         *rand.Rand
	delay       time.Duration
	successRate int
	mu          sync.Mutex
}

var _ StepExecutor = (*SimulatedExecutor)(nil)

// NewSimulatedExecutor creates a simulated executor. successRate is a
// percentage in [0, 100]
func NewSimulatedExecutor(
	successRate int, delay time.Duration,
) *SimulatedExecutor {
	now := uint64(time.Now().UnixNano())
	return NewSeededSimulatedExecutor(successRate, delay, now)
}

// NewSeededSimulatedExecutor creates a simulated executor whose outcomes are
// reproducible for a given seed
func NewSeededSimulatedExecutor(
	successRate int, delay time.Duration, seed uint64,
) *SimulatedExecutor {
	return &SimulatedExecutor{
		rng:         rand.New(rand.NewPCG(seed, seed>>1)),
		delay:       delay,
		successRate: min(max(successRate, 0), 100),
	}
}

// Run waits out the simulated delay, honoring cancellation, and then rolls
// for the outcome
func (e *SimulatedExecutor) Run(
	ctx context.Context, req *api.StepRequest,
) (api.Outcome, error) {
	if req == nil || req.Step == nil {
		return api.Outcome{}, ErrMissingStep
	}

	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return api.Outcome{}, ctx.Err()
		case <-timer.C:
		}
	}

	if e.roll() {
		return api.Succeeded(successText(req.Step)), nil
	}
	return api.Failed(failureText(req.Step)), nil
}

func (e *SimulatedExecutor) roll() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.IntN(100) < e.successRate
}

func successText(step *api.Step) string {
	if step.ExpectedOutcome != "" {
		return fmt.Sprintf("Step %d completed: %s",
			step.Order, step.ExpectedOutcome)
	}
	return fmt.Sprintf("Step %d completed successfully", step.Order)
}

func failureText(step *api.Step) string {
	return fmt.Sprintf("Step %d failed: %s did not complete",
		step.Order, step.Type)
}
