package api

type (
	// StepRequest is the body sent to a remote remediation gateway for one
	// step
	StepRequest struct {
		Step            *Step   `json:"step"`
		RunID           RunID   `json:"run_id"`
		ProblemSummary  string  `json:"problem_summary,omitempty"`
		ProblemCategory string  `json:"problem_category,omitempty"`
		Urgency         Urgency `json:"urgency,omitempty"`
	}

	// StepResult is the gateway's response to a StepRequest
	StepResult struct {
		Result  string `json:"result,omitempty"`
		Error   string `json:"error,omitempty"`
		Success bool   `json:"success"`
	}
)

// Outcome converts the gateway result into an engine Outcome
func (r *StepResult) Outcome() Outcome {
	if r.Success {
		return Succeeded(r.Result)
	}
	if r.Error != "" {
		return Failed(r.Error)
	}
	return Failed(r.Result)
}
