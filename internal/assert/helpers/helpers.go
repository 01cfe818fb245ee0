package helpers

import (
	"fmt"
	"time"

	"github.com/kode4food/remedy/internal/config"
	"github.com/kode4food/remedy/pkg/api"
)

var planStepTypes = []api.StepType{
	api.StepCheckDevice,
	api.StepDiagnostics,
	api.StepPingTest,
	api.StepRemoteCommand,
	api.StepCreateTicket,
	api.StepCloseTicket,
}

// NewTestConfig creates a default configuration tuned for fast tests
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.StepTimeout = 5 * time.Second
	cfg.AutoAdvanceDelay = 5 * time.Millisecond
	cfg.ShutdownTimeout = 2 * time.Second
	cfg.Executor.Delay = 0
	return cfg
}

// NewTestPlan creates a valid plan with n steps ordered 1..n
func NewTestPlan(n int) *api.WorkflowPlan {
	plan := &api.WorkflowPlan{
		ProblemSummary:          "Customer reports no connectivity",
		ProblemCategory:         "connectivity",
		Urgency:                 api.UrgencyMedium,
		EstimatedResolutionTime: "15 minutes",
		SuccessMessage:          "Connectivity restored",
		FailureEscalation:       "Escalate to field engineering",
	}
	for i := range n {
		plan.Steps = append(plan.Steps, NewTestStep(i+1))
	}
	return plan
}

// NewTestStep creates a valid step with the given order
func NewTestStep(order int) *api.Step {
	return &api.Step{
		Order:           order,
		Type:            planStepTypes[(order-1)%len(planStepTypes)],
		Description:     fmt.Sprintf("Remediation step %d", order),
		ExpectedOutcome: fmt.Sprintf("Outcome %d achieved", order),
		FallbackAction:  fmt.Sprintf("Manual action %d", order),
		IsAuto:          true,
	}
}
