package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/remedy/internal/assert/helpers"
	"github.com/kode4food/remedy/internal/assert/wait"
	"github.com/kode4food/remedy/internal/executor"
	"github.com/kode4food/remedy/internal/server"
	"github.com/kode4food/remedy/pkg/api"
	"github.com/kode4food/remedy/pkg/client"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testClient(
	t *testing.T, exec executor.StepExecutor,
) (*client.Client, *helpers.TestEnv) {
	t.Helper()
	env := helpers.NewTestEnv(t, exec)
	srv := server.NewServer(env.Engine)
	ts := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(ts.Close)
	return client.NewClient(ts.URL+"/", 5*time.Second), env
}

func TestHealth(t *testing.T) {
	c, _ := testClient(t, helpers.AlwaysSucceed())

	res, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", res.Status)
	assert.Equal(t, api.WorkflowIdle, res.Engine)
}

func TestWorkflowRoundTrip(t *testing.T) {
	c, env := testClient(t, helpers.AlwaysSucceed())
	ctx := context.Background()

	loaded, err := c.LoadPlan(ctx, helpers.NewTestPlan(3))
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Steps)

	res, err := c.ExecuteStep(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, loaded.RunID, res.RunID)
	wait.On(t, env.Consumer).ForEvent(wait.StepSucceeded(1))

	require.NoError(t, c.Run(ctx))
	wait.On(t, env.Consumer).ForEvent(wait.WorkflowCompleted())

	st, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.WorkflowCompleted, st.Status)
	assert.Equal(t, loaded.RunID, st.RunID)

	prog, err := c.Progress(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, prog.Progress, 0.01)

	all, err := c.Log(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, len(st.Log), all.Count)

	last := all.Entries[all.Count-1].ID
	tail, err := c.Log(ctx, last)
	require.NoError(t, err)
	assert.Zero(t, tail.Count)

	require.NoError(t, c.Reset(ctx))
	st, err = c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.WorkflowIdle, st.Status)
}

func TestLoadPlanText(t *testing.T) {
	c, _ := testClient(t, helpers.AlwaysSucceed())

	text := []byte(`
urgency: low
steps:
  - order: 1
    type: send-sms
    description: Notify the customer
  - order: 2
    type: close_ticket
    description: Close the ticket
`)
	res, err := c.LoadPlanText(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, api.StepSendSMS, res.Plan.Steps[0].Type)
}

func TestStatusErrors(t *testing.T) {
	c, _ := testClient(t, helpers.Delayed(time.Hour, helpers.AlwaysSucceed()))
	ctx := context.Background()

	err := c.Stop(ctx)
	assert.ErrorIs(t, err, client.ErrStop)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))

	_, err = c.LoadPlan(ctx, &api.WorkflowPlan{})
	assert.ErrorIs(t, err, client.ErrLoadPlan)
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))

	_, err = c.LoadPlan(ctx, helpers.NewTestPlan(2))
	require.NoError(t, err)
	require.NoError(t, c.Run(ctx))

	_, err = c.ExecuteStep(ctx, 1)
	assert.ErrorIs(t, err, client.ErrExecuteStep)
	assert.True(t, client.IsStatus(err, http.StatusConflict))

	var se *client.StatusError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Message, "already running")
}

func TestNonJSONErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gateway down", http.StatusBadGateway)
		},
	))
	defer ts.Close()

	c := client.NewClient(ts.URL, time.Second)
	err := c.Reset(context.Background())
	assert.ErrorIs(t, err, client.ErrReset)

	var se *client.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Status)
	assert.Equal(t, "gateway down", se.Message)
}

func TestTransportError(t *testing.T) {
	c := client.NewClient("http://127.0.0.1:1", 100*time.Millisecond)

	_, err := c.State(context.Background())
	assert.ErrorIs(t, err, client.ErrGetState)
	assert.False(t, client.IsStatus(err, http.StatusOK))
}
