package helpers

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kode4food/remedy/internal/config"
	"github.com/kode4food/remedy/internal/engine"
	"github.com/kode4food/remedy/internal/executor"
	"github.com/kode4food/remedy/pkg/api"
)

type (
	// TestEnv holds an engine wired for testing
	TestEnv struct {
		Engine      *engine.Engine
		Config      *config.Config
		Completions *CompletionRecorder
		Consumer    engine.EventConsumer
	}

	// CompletionRecorder captures completion callbacks
	CompletionRecorder struct {
		results []api.CompletionResult
		signal  chan struct{}
		mu      sync.Mutex
	}
)

// NewTestEnv creates an engine around exec using NewTestConfig. The engine
// is shut down when the test ends
func NewTestEnv(t *testing.T, exec executor.StepExecutor) *TestEnv {
	t.Helper()
	return NewTestEnvWithConfig(t, exec, NewTestConfig())
}

// NewTestEnvWithConfig creates an engine around exec using cfg
func NewTestEnvWithConfig(
	t *testing.T, exec executor.StepExecutor, cfg *config.Config,
) *TestEnv {
	t.Helper()

	rec := NewCompletionRecorder()
	eng, err := engine.New(cfg, engine.Dependencies{
		Executor:   exec,
		OnComplete: rec.Record,
	})
	require.NoError(t, err)

	consumer := eng.Subscribe()
	t.Cleanup(func() {
		consumer.Close()
		_ = eng.Shutdown()
	})

	return &TestEnv{
		Engine:      eng,
		Config:      cfg,
		Completions: rec,
		Consumer:    consumer,
	}
}

// NewCompletionRecorder creates an empty recorder
func NewCompletionRecorder() *CompletionRecorder {
	return &CompletionRecorder{
		signal: make(chan struct{}, 16),
	}
}

// Record is an engine.CompletionFunc
func (r *CompletionRecorder) Record(res api.CompletionResult) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

// Count returns the number of completions recorded
func (r *CompletionRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

// Results returns a copy of the recorded completions
func (r *CompletionRecorder) Results() []api.CompletionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]api.CompletionResult, len(r.results))
	copy(res, r.results)
	return res
}

// Wait blocks until a completion is recorded or the timeout passes
func (r *CompletionRecorder) Wait(timeout time.Duration) bool {
	select {
	case <-r.signal:
		return true
	case <-time.After(timeout):
		return false
	}
}
