package api_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/remedy/pkg/api"
)

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		plan    *api.WorkflowPlan
		wantErr error
	}{
		{
			name:    "nil_plan",
			plan:    nil,
			wantErr: api.ErrPlanNil,
		},
		{
			name:    "empty_steps",
			plan:    &api.WorkflowPlan{},
			wantErr: api.ErrPlanEmpty,
		},
		{
			name: "bad_urgency",
			plan: &api.WorkflowPlan{
				Urgency: "critical",
				Steps:   []*api.Step{step(1, api.StepPingTest)},
			},
			wantErr: api.ErrInvalidUrgency,
		},
		{
			name: "nil_step",
			plan: &api.WorkflowPlan{
				Steps: []*api.Step{step(1, api.StepPingTest), nil},
			},
			wantErr: api.ErrStepNil,
		},
		{
			name: "unknown_type",
			plan: &api.WorkflowPlan{
				Steps: []*api.Step{step(1, "reboot_universe")},
			},
			wantErr: api.ErrInvalidStepType,
		},
		{
			name: "starts_at_zero",
			plan: &api.WorkflowPlan{
				Steps: []*api.Step{step(0, api.StepPingTest)},
			},
			wantErr: api.ErrInvalidStepOrder,
		},
		{
			name: "duplicate_order",
			plan: &api.WorkflowPlan{
				Steps: []*api.Step{
					step(1, api.StepPingTest),
					step(2, api.StepDiagnostics),
					step(2, api.StepEscalation),
				},
			},
			wantErr: api.ErrStepOrderNotSorted,
		},
		{
			name: "descending_order",
			plan: &api.WorkflowPlan{
				Steps: []*api.Step{
					step(1, api.StepPingTest),
					step(3, api.StepDiagnostics),
					step(2, api.StepEscalation),
				},
			},
			wantErr: api.ErrStepOrderNotSorted,
		},
		{
			name: "negative_timeout",
			plan: &api.WorkflowPlan{
				Steps: []*api.Step{{
					Order:          1,
					Type:           api.StepWait,
					TimeoutSeconds: -1,
				}},
			},
			wantErr: api.ErrNegativeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlanValidateAccepts(t *testing.T) {
	plan := &api.WorkflowPlan{
		ProblemSummary: "Customer router offline",
		Urgency:        api.UrgencyHigh,
		Steps: []*api.Step{
			step(1, api.StepCheckDevice),
			step(2, api.StepPingTest),
			step(4, api.StepEscalation),
		},
	}
	assert.NoError(t, plan.Validate())
}

func TestPlanClone(t *testing.T) {
	plan := &api.WorkflowPlan{
		ProblemSummary: "SIM not registering",
		Steps:          []*api.Step{step(1, api.StepCheckSIM)},
	}

	cl := plan.Clone()
	cl.Steps[0].Description = "changed"
	cl.ProblemSummary = "changed"

	assert.Equal(t, "SIM not registering", plan.ProblemSummary)
	assert.Equal(t, "step 1", plan.Steps[0].Description)
	assert.Nil(t, (*api.WorkflowPlan)(nil).Clone())
}

func TestStepCatalog(t *testing.T) {
	assert.Equal(t, 12, len(api.StepCatalog))
	for _, typ := range []api.StepType{
		api.StepCheckDevice, api.StepCheckSIM, api.StepDiagnostics,
		api.StepPingTest, api.StepRemoteCommand, api.StepCreateTicket,
		api.StepEscalation, api.StepSendSMS, api.StepSendEmail,
		api.StepNotifyTeam, api.StepCloseTicket, api.StepWait,
	} {
		assert.True(t, api.StepCatalog.Contains(typ), typ)
	}
}

func step(order int, typ api.StepType) *api.Step {
	return &api.Step{
		Order:       order,
		Type:        typ,
		Description: fmt.Sprintf("step %d", order),
	}
}
