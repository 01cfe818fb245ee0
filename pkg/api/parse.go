package api

import (
	"bytes"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

var (
	ErrPlanUnparseable = errors.New("no plan found in input")
	ErrPlanNoSteps     = errors.New("plan input has no steps array")
)

var (
	planWrappers = []string{"plan", "workflow", "workflow_plan", "workflowPlan"}

	stepTypeReplacer = strings.NewReplacer("-", "_", " ", "_")
)

// ParsePlan extracts a WorkflowPlan from planner output. The input may be a
// bare JSON object, a JSON object embedded in surrounding model text (code
// fences included), or a YAML document. Keys are accepted in snake_case or
// camelCase. The result is not validated
func ParsePlan(data []byte) (*WorkflowPlan, error) {
	if obj, ok := extractJSONObject(data); ok {
		return planFromJSON(unwrapPlan(gjson.ParseBytes(obj)))
	}
	return parseYAMLPlan(data)
}

func extractJSONObject(data []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(data)
	if gjson.ValidBytes(trimmed) && gjson.ParseBytes(trimmed).IsObject() {
		return trimmed, true
	}

	start := bytes.IndexByte(trimmed, '{')
	end := bytes.LastIndexByte(trimmed, '}')
	if start < 0 || end <= start {
		return nil, false
	}
	candidate := trimmed[start : end+1]
	if !gjson.ValidBytes(candidate) {
		return nil, false
	}
	return candidate, true
}

func unwrapPlan(root gjson.Result) gjson.Result {
	if root.Get("steps").Exists() {
		return root
	}
	for _, key := range planWrappers {
		if inner := root.Get(key); inner.IsObject() {
			return inner
		}
	}
	return root
}

func planFromJSON(res gjson.Result) (*WorkflowPlan, error) {
	steps := res.Get("steps")
	if !steps.IsArray() {
		return nil, ErrPlanNoSteps
	}

	plan := &WorkflowPlan{
		ProblemSummary: firstString(res,
			"problem_summary", "problemSummary", "summary"),
		ProblemCategory: firstString(res,
			"problem_category", "problemCategory", "category"),
		Urgency: Urgency(strings.ToLower(firstString(res,
			"urgency", "priority"))),
		EstimatedResolutionTime: firstString(res,
			"estimated_resolution_time", "estimatedResolutionTime"),
		SuccessMessage: firstString(res,
			"success_message", "successMessage"),
		FailureEscalation: firstString(res,
			"failure_escalation", "failureEscalation"),
	}

	for i, s := range steps.Array() {
		plan.Steps = append(plan.Steps, stepFromJSON(s, i+1))
	}
	return plan, nil
}

func stepFromJSON(res gjson.Result, defOrder int) *Step {
	step := &Step{
		Order: defOrder,
		Type: NormalizeStepType(firstString(res,
			"type", "step_type", "stepType", "action")),
		Description: firstString(res, "description", "title"),
		ExpectedOutcome: firstString(res,
			"expected_outcome", "expectedOutcome"),
		FallbackAction: firstString(res,
			"fallback_action", "fallbackAction", "fallback"),
	}
	order := first(res, "order", "step_number", "stepNumber")
	if order.Exists() {
		step.Order = int(order.Int())
	}
	if auto := first(res, "is_auto", "isAuto", "auto"); auto.Exists() {
		step.IsAuto = auto.Bool()
	}
	timeout := first(res, "timeout_seconds", "timeoutSeconds", "timeout")
	if timeout.Exists() {
		step.TimeoutSeconds = int(timeout.Int())
	}
	return step
}

// NormalizeStepType lowercases a step type and converts separators to the
// underscore form used by the catalog
func NormalizeStepType(s string) StepType {
	lower := strings.ToLower(strings.TrimSpace(s))
	return StepType(stepTypeReplacer.Replace(lower))
}

func parseYAMLPlan(data []byte) (*WorkflowPlan, error) {
	var plan WorkflowPlan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, errors.Join(ErrPlanUnparseable, err)
	}
	if plan.Steps == nil {
		return nil, ErrPlanUnparseable
	}
	for i, step := range plan.Steps {
		if step == nil {
			continue
		}
		if step.Order == 0 {
			step.Order = i + 1
		}
		step.Type = NormalizeStepType(string(step.Type))
	}
	plan.Urgency = Urgency(strings.ToLower(string(plan.Urgency)))
	return &plan, nil
}

func first(res gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if v := res.Get(key); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func firstString(res gjson.Result, keys ...string) string {
	return strings.TrimSpace(first(res, keys...).String())
}
