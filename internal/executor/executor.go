package executor

import (
	"context"
	"time"

	"github.com/kode4food/remedy/internal/config"
	"github.com/kode4food/remedy/pkg/api"
)

type (
	// StepExecutor performs the real-world action for one step and reports
	// its outcome. A returned error is treated by the engine as a failed
	// outcome carrying the error text
	StepExecutor interface {
		Run(context.Context, *api.StepRequest) (api.Outcome, error)
	}

	// Func adapts an ordinary function to the StepExecutor interface
	Func func(context.Context, *api.StepRequest) (api.Outcome, error)
)

var _ StepExecutor = Func(nil)

// Run calls f(ctx, req)
func (f Func) Run(
	ctx context.Context, req *api.StepRequest,
) (api.Outcome, error) {
	return f(ctx, req)
}

// New builds the executor selected by cfg. requestTimeout bounds individual
// gateway requests in http mode
func New(
	cfg *config.ExecutorConfig, requestTimeout time.Duration,
) (StepExecutor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case config.ExecutorModeHTTP:
		return NewHTTPExecutor(cfg.BaseURL, requestTimeout), nil
	default:
		return NewSimulatedExecutor(cfg.SuccessRate, cfg.Delay), nil
	}
}
