package api

import "time"

type (
	// EventType names an engine notification
	EventType string

	// Event is the envelope published on the engine's event hub
	Event struct {
		Timestamp time.Time `json:"timestamp"`
		Data      any       `json:"data,omitempty"`
		Type      EventType `json:"type"`
		RunID     RunID     `json:"run_id,omitempty"`
	}

	// PlanLoadedEvent is emitted when a plan replaces the engine's state
	PlanLoadedEvent struct {
		Plan *WorkflowPlan `json:"plan"`
	}

	// StepStartedEvent is emitted when a step is marked Running
	StepStartedEvent struct {
		Type  StepType `json:"type"`
		Index int      `json:"index"`
		Order int      `json:"order"`
		Auto  bool     `json:"auto"`
	}

	// StepSucceededEvent is emitted when a step reaches Success
	StepSucceededEvent struct {
		Result   string  `json:"result"`
		Index    int     `json:"index"`
		Order    int     `json:"order"`
		Progress float64 `json:"progress"`
	}

	// StepFailedEvent is emitted when a step reaches Failed
	StepFailedEvent struct {
		Result         string `json:"result"`
		FallbackAction string `json:"fallback_action"`
		Index          int    `json:"index"`
		Order          int    `json:"order"`
	}

	// WorkflowStartedEvent is emitted when auto execution begins
	WorkflowStartedEvent struct {
		From int `json:"from"`
	}

	// WorkflowStoppedEvent is emitted when auto mode is turned off
	WorkflowStoppedEvent struct {
		InFlight bool `json:"in_flight"`
	}

	// WorkflowCompletedEvent is emitted once per plan on full success
	WorkflowCompletedEvent struct {
		Result CompletionResult `json:"result"`
	}
)

const (
	EventTypePlanLoaded        EventType = "plan_loaded"
	EventTypeStepStarted       EventType = "step_started"
	EventTypeStepSucceeded     EventType = "step_succeeded"
	EventTypeStepFailed        EventType = "step_failed"
	EventTypeLogAppended       EventType = "log_appended"
	EventTypeWorkflowStarted   EventType = "workflow_started"
	EventTypeWorkflowStopped   EventType = "workflow_stopped"
	EventTypeWorkflowCompleted EventType = "workflow_completed"
	EventTypeWorkflowReset     EventType = "workflow_reset"
)
