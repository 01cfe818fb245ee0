package api

import "time"

type (
	// RunID identifies one loaded plan for the lifetime of its episode
	RunID string

	// StepStatus represents the lifecycle position of a single step
	StepStatus string

	// WorkflowStatus is the derived whole-workflow state
	WorkflowStatus string

	// LogLevel classifies an execution log entry
	LogLevel string

	// LogEntry is one append-only record of engine activity
	LogEntry struct {
		Timestamp time.Time `json:"timestamp"`
		Level     LogLevel  `json:"level"`
		Message   string    `json:"message"`
		ID        int64     `json:"id"`
		Step      int       `json:"step,omitempty"`
	}

	// Outcome is what a step executor reports for one step
	Outcome struct {
		ResultText string `json:"result_text"`
		Success    bool   `json:"success"`
	}

	// CompletionResult is delivered to the completion callback when the last
	// step of a plan succeeds
	CompletionResult struct {
		Plan        *WorkflowPlan `json:"plan"`
		RunID       RunID         `json:"run_id"`
		CompletedAt time.Time     `json:"completed_at"`
		Success     bool          `json:"success"`
	}

	// WorkflowState is a read-only snapshot of the engine for presentation
	WorkflowState struct {
		Plan     *WorkflowPlan  `json:"plan,omitempty"`
		RunID    RunID          `json:"run_id,omitempty"`
		Status   WorkflowStatus `json:"status"`
		Statuses []StepStatus   `json:"statuses"`
		Log      []LogEntry     `json:"log"`
		Current  int            `json:"current"`
		Progress float64        `json:"progress"`
		AutoMode bool           `json:"auto_mode"`
	}
)

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepSuccess StepStatus = "success"
	StepFailed  StepStatus = "failed"
)

const (
	WorkflowIdle      WorkflowStatus = "idle"
	WorkflowLoaded    WorkflowStatus = "loaded"
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowPaused    WorkflowStatus = "paused"
	WorkflowHalted    WorkflowStatus = "halted"
	WorkflowCompleted WorkflowStatus = "completed"
)

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// Succeeded builds a successful Outcome
func Succeeded(text string) Outcome {
	return Outcome{Success: true, ResultText: text}
}

// Failed builds a failed Outcome
func Failed(text string) Outcome {
	return Outcome{Success: false, ResultText: text}
}

// IsTerminal reports whether the workflow can make no further progress
// without a new plan
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowCompleted
}
