package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse and validate a plan file",
		Long: `Parse a plan from JSON, YAML, or raw planner output and check it
against the step catalog. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := readPlan(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !quiet {
				printPlan(out, plan)
			}
			_, _ = fmt.Fprintf(out, "Plan is valid (%d steps)\n",
				len(plan.Steps))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false,
		"only report whether the plan is valid")
	return cmd
}
