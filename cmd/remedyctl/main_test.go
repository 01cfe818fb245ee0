package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/remedy/internal/assert/helpers"
	"github.com/kode4food/remedy/internal/config"
	"github.com/kode4food/remedy/internal/executor"
	"github.com/kode4food/remedy/internal/server"
	"github.com/kode4food/remedy/pkg/api"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func writePlan(t *testing.T, plan *api.WorkflowPlan) string {
	t.Helper()
	data, err := json.Marshal(plan)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "remedyctl version")
}

func TestValidate(t *testing.T) {
	path := writePlan(t, helpers.NewTestPlan(3))

	out, err := execute(t, "", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Remediation step 2")
	assert.Contains(t, out, "Plan is valid (3 steps)")

	out, err = execute(t, "", "validate", "-q", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "Remediation step 2")
}

func TestValidateStdin(t *testing.T) {
	yaml := `
problem_summary: Router offline
steps:
  - type: ping-test
    description: Ping the router
  - type: remote_command
    description: Reboot the router
`
	out, err := execute(t, yaml, "validate", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan is valid (2 steps)")
}

func TestValidateRejects(t *testing.T) {
	plan := helpers.NewTestPlan(2)
	plan.Steps[1].Type = "teleport"
	path := writePlan(t, plan)

	_, err := execute(t, "", "validate", path)
	assert.ErrorIs(t, err, api.ErrInvalidStepType)

	_, err = execute(t, "", "validate", filepath.Join(t.TempDir(), "none"))
	assert.Error(t, err)
}

func TestRunLocalCompletes(t *testing.T) {
	path := writePlan(t, helpers.NewTestPlan(3))

	out, err := execute(t, "", "run", path,
		"--success-rate", "100", "--delay", "0s", "--auto-delay", "1ms",
		"--timeout", "10s")
	require.NoError(t, err)
	assert.Contains(t, out, "Step 3 completed: Outcome 3 achieved")
	assert.Contains(t, out, "Connectivity restored")
}

func TestRunLocalHalts(t *testing.T) {
	path := writePlan(t, helpers.NewTestPlan(3))

	out, err := execute(t, "", "run", path,
		"--success-rate", "0", "--delay", "0s", "--timeout", "10s")
	assert.ErrorIs(t, err, ErrWorkflowHalted)
	assert.Contains(t, out, "Fallback: Manual action 1")
	assert.NotContains(t, out, "Executing step 2")
}

func TestBuildExecutor(t *testing.T) {
	cfg := config.NewDefaultConfig()

	exec, err := buildExecutor(cfg, &runOptions{seed: 7})
	require.NoError(t, err)
	assert.IsType(t, &executor.SimulatedExecutor{}, exec)

	_, err = buildExecutor(cfg, &runOptions{
		gatewayTypes: []string{"ping_test"},
	})
	assert.ErrorIs(t, err, ErrGatewayTypes)

	exec, err = buildExecutor(cfg, &runOptions{gateway: "http://gw"})
	require.NoError(t, err)
	assert.IsType(t, &executor.HTTPExecutor{}, exec)

	exec, err = buildExecutor(cfg, &runOptions{
		gateway:      "http://gw",
		gatewayTypes: []string{"Ping-Test"},
	})
	require.NoError(t, err)
	router, ok := exec.(*executor.Router)
	require.True(t, ok)

	routed, ok := router.Route(api.StepPingTest)
	require.True(t, ok)
	assert.IsType(t, &executor.HTTPExecutor{}, routed)

	routed, ok = router.Route(api.StepSendSMS)
	require.True(t, ok)
	assert.IsType(t, &executor.SimulatedExecutor{}, routed)
}

func TestRemoteCommands(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := helpers.NewTestEnv(t, helpers.AlwaysSucceed())
	ts := httptest.NewServer(server.NewServer(env.Engine).SetupRoutes())
	t.Cleanup(ts.Close)

	path := writePlan(t, helpers.NewTestPlan(2))
	remote := func(args ...string) (string, error) {
		return execute(t, "", append(args, "--server", ts.URL)...)
	}

	out, err := remote("status")
	require.NoError(t, err)
	assert.Contains(t, out, "idle")

	out, err = remote("load", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded plan with 2 steps")

	_, err = remote("step", "5")
	assert.Error(t, err)

	out, err = remote("run-remote")
	require.NoError(t, err)
	assert.Contains(t, out, "Auto execution started")
	assert.True(t, env.Completions.Wait(5*time.Second))

	out, err = remote("status")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "100%")

	out, err = remote("log")
	require.NoError(t, err)
	assert.Contains(t, out, "Connectivity restored")

	_, err = remote("stop")
	require.NoError(t, err)

	out, err = remote("reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Workflow reset")
	assert.Equal(t, api.WorkflowIdle, env.Engine.Status())
}
