package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kode4food/remedy/pkg/api"
)

// Router dispatches each step to the executor registered for its type,
// falling back to a default executor
type Router struct {
	routes   map[api.StepType]StepExecutor
	fallback StepExecutor
	mu       sync.RWMutex
}

var ErrNoRoute = errors.New("no executor registered for step type")

var _ StepExecutor = (*Router)(nil)

// NewRouter creates a Router. fallback may be nil, in which case unrouted
// step types fail with ErrNoRoute
func NewRouter(fallback StepExecutor) *Router {
	return &Router{
		routes:   map[api.StepType]StepExecutor{},
		fallback: fallback,
	}
}

// Handle registers exec for the given step types, replacing any previous
// registration
func (r *Router) Handle(exec StepExecutor, types ...api.StepType) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, typ := range types {
		r.routes[typ] = exec
	}
	return r
}

// Route returns the executor that would handle the given step type
func (r *Router) Route(typ api.StepType) (StepExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if exec, ok := r.routes[typ]; ok {
		return exec, true
	}
	return r.fallback, r.fallback != nil
}

func (r *Router) Run(
	ctx context.Context, req *api.StepRequest,
) (api.Outcome, error) {
	if req == nil || req.Step == nil {
		return api.Outcome{}, ErrMissingStep
	}
	exec, ok := r.Route(req.Step.Type)
	if !ok {
		return api.Outcome{}, fmt.Errorf("%w: %s", ErrNoRoute, req.Step.Type)
	}
	return exec.Run(ctx, req)
}
