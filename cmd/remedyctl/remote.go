package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kode4food/remedy/pkg/api"
	"github.com/kode4food/remedy/pkg/client"
)

type remoteOptions struct {
	server  string
	timeout time.Duration
}

const (
	defaultServer = "http://localhost:8080"
	serverEnv     = "REMEDY_SERVER"
)

func addRemoteCommands(root *cobra.Command) {
	opts := &remoteOptions{}

	server := os.Getenv(serverEnv)
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server,
		"remedy engine base URL (env "+serverEnv+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "request-timeout",
		client.DefaultTimeout, "HTTP request timeout")

	root.AddCommand(
		newLoadCmd(opts),
		newRunRemoteCmd(opts),
		newStepCmd(opts),
		newStatusCmd(opts),
		newStopCmd(opts),
		newResetCmd(opts),
		newLogCmd(opts),
	)
}

func (o *remoteOptions) client() *client.Client {
	return client.NewClient(o.server, o.timeout)
}

func newLoadCmd(opts *remoteOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Load a plan into a remote engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res *api.PlanLoadedResponse
			var err error
			if raw {
				data, rerr := readInput(args[0], cmd.InOrStdin())
				if rerr != nil {
					return rerr
				}
				res, err = opts.client().LoadPlanText(cmd.Context(), data)
			} else {
				plan, perr := readPlan(args[0], cmd.InOrStdin())
				if perr != nil {
					return perr
				}
				res, err = opts.client().LoadPlan(cmd.Context(), plan)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"Loaded plan with %d steps (run %s)\n", res.Steps, res.RunID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "text", false,
		"send the file as raw planner output and let the engine parse it")
	return cmd
}

func newRunRemoteCmd(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run-remote",
		Short: "Start auto execution on a remote engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().Run(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Auto execution started")
			return nil
		},
	}
}

func newStepCmd(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "step <index>",
		Short: "Execute a single step (zero-based index) on a remote engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step index %q: %w", args[0], err)
			}
			res, err := opts.client().ExecuteStep(cmd.Context(), index)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"Step %d started (run %s)\n", res.Index, res.RunID)
			return nil
		},
	}
}

func newStatusCmd(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the remote engine's workflow status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.client().State(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Status:   %s\n", st.Status)
			if st.Plan == nil {
				return nil
			}
			_, _ = fmt.Fprintf(out, "Run:      %s\n", st.RunID)
			_, _ = fmt.Fprintf(out, "Progress: %.0f%%\n", st.Progress)
			_, _ = fmt.Fprintf(out, "Auto:     %t\n", st.AutoMode)
			for i, step := range st.Plan.Steps {
				_, _ = fmt.Fprintf(out, "  %2d. %-8s %s\n",
					step.Order, st.Statuses[i], step.Description)
			}
			return nil
		},
	}
}

func newStopCmd(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Turn off auto execution on a remote engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().Stop(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Auto execution stopped")
			return nil
		},
	}
}

func newResetCmd(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the remote engine's plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().Reset(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Workflow reset")
			return nil
		},
	}
}

func newLogCmd(opts *remoteOptions) *cobra.Command {
	var since int64

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the remote engine's execution log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client().Log(cmd.Context(), since)
			if err != nil {
				return err
			}
			for _, e := range res.Entries {
				printEntry(cmd.OutOrStdout(), e)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&since, "since", 0,
		"only print entries with a greater id")
	return cmd
}
