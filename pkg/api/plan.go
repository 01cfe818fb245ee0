package api

import (
	"errors"
	"fmt"

	"github.com/kode4food/remedy/pkg/util"
)

type (
	// StepType names one entry of the fixed remediation step catalog
	StepType string

	// Urgency classifies how quickly a reported problem must be resolved
	Urgency string

	// WorkflowPlan is the ordered description of a remediation episode, as
	// produced by an external planner
	WorkflowPlan struct {
		ProblemSummary          string  `json:"problem_summary" yaml:"problem_summary"`
		ProblemCategory         string  `json:"problem_category" yaml:"problem_category"`
		Urgency                 Urgency `json:"urgency" yaml:"urgency"`
		EstimatedResolutionTime string  `json:"estimated_resolution_time" yaml:"estimated_resolution_time"`
		SuccessMessage          string  `json:"success_message" yaml:"success_message"`
		FailureEscalation       string  `json:"failure_escalation" yaml:"failure_escalation"`
		Steps                   []*Step `json:"steps" yaml:"steps"`
	}

	// Step is one unit of remediation work within a plan
	Step struct {
		Type            StepType `json:"type" yaml:"type"`
		Description     string   `json:"description" yaml:"description"`
		ExpectedOutcome string   `json:"expected_outcome" yaml:"expected_outcome"`
		FallbackAction  string   `json:"fallback_action" yaml:"fallback_action"`
		Order           int      `json:"order" yaml:"order"`
		TimeoutSeconds  int      `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
		IsAuto          bool     `json:"is_auto" yaml:"is_auto"`
	}
)

const (
	StepCheckDevice   StepType = "check_device"
	StepCheckSIM      StepType = "check_sim"
	StepDiagnostics   StepType = "diagnostics"
	StepPingTest      StepType = "ping_test"
	StepRemoteCommand StepType = "remote_command"
	StepCreateTicket  StepType = "create_ticket"
	StepEscalation    StepType = "escalation"
	StepSendSMS       StepType = "send_sms"
	StepSendEmail     StepType = "send_email"
	StepNotifyTeam    StepType = "notify_team"
	StepCloseTicket   StepType = "close_ticket"
	StepWait          StepType = "wait"
)

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

var (
	ErrPlanNil            = errors.New("plan is nil")
	ErrPlanEmpty          = errors.New("plan has no steps")
	ErrInvalidUrgency     = errors.New("invalid urgency")
	ErrStepNil            = errors.New("step is nil")
	ErrInvalidStepType    = errors.New("invalid step type")
	ErrInvalidStepOrder   = errors.New("step order must start at 1")
	ErrStepOrderNotSorted = errors.New("step order not strictly increasing")
	ErrNegativeTimeout    = errors.New("timeout_seconds cannot be negative")
)

var (
	// StepCatalog contains every step type a plan may reference
	StepCatalog = util.SetOf(
		StepCheckDevice,
		StepCheckSIM,
		StepDiagnostics,
		StepPingTest,
		StepRemoteCommand,
		StepCreateTicket,
		StepEscalation,
		StepSendSMS,
		StepSendEmail,
		StepNotifyTeam,
		StepCloseTicket,
		StepWait,
	)

	validUrgencies = util.SetOf(
		UrgencyLow,
		UrgencyMedium,
		UrgencyHigh,
	)
)

// Validate checks that the plan has at least one step, that every step is
// well formed, and that step order values start at 1 and strictly increase
func (p *WorkflowPlan) Validate() error {
	if p == nil {
		return ErrPlanNil
	}
	if len(p.Steps) == 0 {
		return ErrPlanEmpty
	}
	if p.Urgency != "" && !validUrgencies.Contains(p.Urgency) {
		return fmt.Errorf("%w: %s", ErrInvalidUrgency, p.Urgency)
	}

	prev := 0
	for i, step := range p.Steps {
		if step == nil {
			return fmt.Errorf("%w: index %d", ErrStepNil, i)
		}
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", step.Order, err)
		}
		if i == 0 && step.Order != 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidStepOrder, step.Order)
		}
		if i > 0 && step.Order <= prev {
			return fmt.Errorf("%w: %d follows %d",
				ErrStepOrderNotSorted, step.Order, prev)
		}
		prev = step.Order
	}
	return nil
}

// Clone returns a deep copy of the plan so callers cannot mutate a plan
// while it is loaded
func (p *WorkflowPlan) Clone() *WorkflowPlan {
	if p == nil {
		return nil
	}
	res := *p
	res.Steps = make([]*Step, len(p.Steps))
	for i, step := range p.Steps {
		if step == nil {
			continue
		}
		s := *step
		res.Steps[i] = &s
	}
	return &res
}

// Validate checks the step against the catalog and its numeric bounds
func (s *Step) Validate() error {
	if s == nil {
		return ErrStepNil
	}
	if !StepCatalog.Contains(s.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidStepType, s.Type)
	}
	if s.TimeoutSeconds < 0 {
		return ErrNegativeTimeout
	}
	return nil
}
