package api

type (
	// ExecuteStepResponse is returned when a step execution is accepted
	ExecuteStepResponse struct {
		Message string `json:"message"`
		RunID   RunID  `json:"run_id"`
		Index   int    `json:"index"`
	}

	// PlanLoadedResponse is returned when a plan is loaded
	PlanLoadedResponse struct {
		Plan    *WorkflowPlan `json:"plan"`
		Message string        `json:"message"`
		RunID   RunID         `json:"run_id"`
		Steps   int           `json:"steps"`
	}

	// ProgressResponse reports the current completion percentage
	ProgressResponse struct {
		Status   WorkflowStatus `json:"status"`
		Progress float64        `json:"progress"`
		Current  int            `json:"current"`
	}

	// LogResponse contains the execution log snapshot
	LogResponse struct {
		Entries []LogEntry `json:"entries"`
		Count   int        `json:"count"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string         `json:"service"`
		Version string         `json:"version"`
		Status  string         `json:"status"`
		Engine  WorkflowStatus `json:"engine"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// SubscribeRequest is sent by WebSocket clients to narrow the events
	// they receive
	SubscribeRequest struct {
		Type string             `json:"type"`
		Data ClientSubscription `json:"data"`
	}

	// ClientSubscription selects events by type and run. Empty fields match
	// everything
	ClientSubscription struct {
		EventTypes []EventType `json:"event_types,omitempty"`
		RunID      RunID       `json:"run_id,omitempty"`
	}

	// SubscribedResult acknowledges a subscription with the current state
	SubscribedResult struct {
		State *WorkflowState `json:"state"`
		Type  string         `json:"type"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)
