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

// stepTimeout returns the deadline for a step: its own timeout_seconds when
// positive, otherwise the configured default
func (e *Engine) stepTimeout(step *api.Step) time.Duration {
	if step.TimeoutSeconds > 0 {
		return time.Duration(step.TimeoutSeconds) * time.Second
	}
	return e.config.StepTimeout
}

// invoke calls the executor under a deadline. Errors, panics, cancellation
// and expiry all come back as a failed Outcome; a result that arrives after
// the deadline is discarded. An abandoned call still counts against the
// engine's single in-flight call until the executor actually returns
func (e *Engine) invoke(
	ctx context.Context, req *api.StepRequest, timeout time.Duration,
) api.Outcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := make(chan api.Outcome, 1)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		out := e.call(ctx, req)
		e.mu.Lock()
		e.calls--
		e.mu.Unlock()
		res <- out
	}()

	select {
	case out := <-res:
		return out
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Warn("Step timed out",
				log.RunID(req.RunID),
				log.StepOrder(req.Step.Order),
				slog.Duration("timeout", timeout))
			return api.Failed(fmt.Sprintf("step timed out after %s", timeout))
		}
		return api.Failed(fmt.Sprintf("step cancelled: %s", ctx.Err()))
	}
}

func (e *Engine) call(
	ctx context.Context, req *api.StepRequest,
) (out api.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Step executor panic",
				log.RunID(req.RunID),
				log.StepOrder(req.Step.Order),
				slog.Any("panic", r))
			out = api.Failed(fmt.Sprintf("step executor panic: %v", r))
		}
	}()
	out, err := e.exec.Run(ctx, req)
	if err != nil {
		return api.Failed(err.Error())
	}
	return out
}
