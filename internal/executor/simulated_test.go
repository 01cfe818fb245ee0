package executor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/remedy/internal/executor"
	"github.com/kode4food/remedy/pkg/api"
)

func TestSimulatedAlwaysSucceeds(t *testing.T) {
	exec := executor.NewSeededSimulatedExecutor(100, 0, 42)
	req := &api.StepRequest{
		Step: &api.Step{
			Order:           2,
			Type:            api.StepPingTest,
			ExpectedOutcome: "Device responds",
		},
	}

	for range 20 {
		out, err := exec.Run(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.Contains(t, out.ResultText, "Device responds")
	}
}

func TestSimulatedAlwaysFails(t *testing.T) {
	exec := executor.NewSeededSimulatedExecutor(0, 0, 42)
	req := &api.StepRequest{
		Step: &api.Step{Order: 3, Type: api.StepRemoteCommand},
	}

	for range 20 {
		out, err := exec.Run(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Contains(t, out.ResultText, "remote_command")
	}
}

func TestSimulatedSeedIsReproducible(t *testing.T) {
	req := &api.StepRequest{Step: &api.Step{Order: 1, Type: api.StepWait}}
	run := func() []bool {
		exec := executor.NewSeededSimulatedExecutor(50, 0, 7)
		var res []bool
		for range 32 {
			out, err := exec.Run(context.Background(), req)
			require.NoError(t, err)
			res = append(res, out.Success)
		}
		return res
	}

	assert.Equal(t, run(), run())
}

func TestSimulatedHonorsCancellation(t *testing.T) {
	exec := executor.NewSimulatedExecutor(100, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := exec.Run(ctx, &api.StepRequest{
		Step: &api.Step{Order: 1, Type: api.StepWait},
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSimulatedDelay(t *testing.T) {
	exec := executor.NewSimulatedExecutor(100, 30*time.Millisecond)

	start := time.Now()
	out, err := exec.Run(context.Background(), &api.StepRequest{
		Step: &api.Step{Order: 1, Type: api.StepDiagnostics},
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
