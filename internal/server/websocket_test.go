package server_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/remedy/internal/assert/helpers"
	"github.com/kode4food/remedy/internal/server"
	"github.com/kode4food/remedy/pkg/api"
)

type wsEvent struct {
	Type  api.EventType `json:"type"`
	RunID api.RunID     `json:"run_id"`
}

func dialWebSocket(t *testing.T, env *testServerEnv) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(env.Router)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/workflow/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func subscribe(
	t *testing.T, conn *websocket.Conn, sub api.ClientSubscription,
) *api.WorkflowState {
	t.Helper()
	err := conn.WriteJSON(api.SubscribeRequest{
		Type: "subscribe",
		Data: sub,
	})
	require.NoError(t, err)

	var res api.SubscribedResult
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, "subscribed", res.Type)
	return res.State
}

func readEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	var ev wsEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWebSocketStreamsFilteredEvents(t *testing.T) {
	env := testServer(t, helpers.AlwaysSucceed())
	conn := dialWebSocket(t, env)

	st := subscribe(t, conn, api.ClientSubscription{
		EventTypes: []api.EventType{
			api.EventTypePlanLoaded, api.EventTypeStepSucceeded,
		},
	})
	require.NotNil(t, st)
	assert.Equal(t, api.WorkflowIdle, st.Status)

	id := env.loadPlan(t, 2)
	ev := readEvent(t, conn)
	assert.Equal(t, api.EventTypePlanLoaded, ev.Type)
	assert.Equal(t, id, ev.RunID)

	_, err := env.Engine.ExecuteStep(t.Context(), 0)
	require.NoError(t, err)

	ev = readEvent(t, conn)
	assert.Equal(t, api.EventTypeStepSucceeded, ev.Type)
}

func TestWebSocketSubscribeReturnsState(t *testing.T) {
	env := testServer(t, helpers.AlwaysSucceed())
	id := env.loadPlan(t, 3)
	conn := dialWebSocket(t, env)

	st := subscribe(t, conn, api.ClientSubscription{RunID: id})
	require.NotNil(t, st)
	assert.Equal(t, id, st.RunID)
	assert.Equal(t, api.WorkflowLoaded, st.Status)
	assert.Len(t, st.Statuses, 3)
}

func TestCloseWebSockets(t *testing.T) {
	env := testServer(t, helpers.AlwaysSucceed())
	conn := dialWebSocket(t, env)
	subscribe(t, conn, api.ClientSubscription{})

	env.Server.CloseWebSockets()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestBuildFilter(t *testing.T) {
	started := &api.Event{Type: api.EventTypeStepStarted, RunID: "a"}
	failed := &api.Event{Type: api.EventTypeStepFailed, RunID: "b"}

	tests := []struct {
		name    string
		sub     api.ClientSubscription
		started bool
		failed  bool
	}{
		{
			name:    "empty matches all",
			started: true,
			failed:  true,
		},
		{
			name:    "by run",
			sub:     api.ClientSubscription{RunID: "a"},
			started: true,
		},
		{
			name: "by type",
			sub: api.ClientSubscription{
				EventTypes: []api.EventType{api.EventTypeStepFailed},
			},
			failed: true,
		},
		{
			name: "run and type",
			sub: api.ClientSubscription{
				RunID:      "a",
				EventTypes: []api.EventType{api.EventTypeStepFailed},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := server.BuildFilter(&tt.sub)
			assert.Equal(t, tt.started, filter(started))
			assert.Equal(t, tt.failed, filter(failed))
		})
	}
}
