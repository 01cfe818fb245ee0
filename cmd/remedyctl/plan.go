package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kode4food/remedy/pkg/api"
)

const stdinPath = "-"

// readPlan loads and validates a plan from a file, or from stdin when path
// is "-". JSON, YAML, and raw planner output are accepted
func readPlan(path string, stdin io.Reader) (*api.WorkflowPlan, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}

	plan, err := api.ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plan, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == stdinPath {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func printPlan(w io.Writer, plan *api.WorkflowPlan) {
	_, _ = fmt.Fprintf(w, "Problem:  %s\n", plan.ProblemSummary)
	if plan.ProblemCategory != "" {
		_, _ = fmt.Fprintf(w, "Category: %s\n", plan.ProblemCategory)
	}
	if plan.Urgency != "" {
		_, _ = fmt.Fprintf(w, "Urgency:  %s\n", plan.Urgency)
	}
	for _, step := range plan.Steps {
		_, _ = fmt.Fprintf(w, "  %2d. [%s] %s\n",
			step.Order, step.Type, step.Description)
	}
}

func printEntry(w io.Writer, e api.LogEntry) {
	_, _ = fmt.Fprintf(w, "%s %-7s %s\n",
		e.Timestamp.Format("15:04:05.000"), e.Level, e.Message)
}
