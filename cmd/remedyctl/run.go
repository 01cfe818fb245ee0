package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	app "github.com/kode4food/remedy"
	"github.com/kode4food/remedy/internal/config"
	"github.com/kode4food/remedy/internal/engine"
	"github.com/kode4food/remedy/internal/executor"
	"github.com/kode4food/remedy/pkg/api"
	"github.com/kode4food/remedy/pkg/log"
)

type runOptions struct {
	successRate  int
	delay        time.Duration
	autoDelay    time.Duration
	stepTimeout  time.Duration
	timeout      time.Duration
	seed         uint64
	gateway      string
	gatewayTypes []string
	verbose      bool
}

var (
	ErrWorkflowHalted  = errors.New("workflow halted")
	ErrRunTimeout      = errors.New("workflow did not finish in time")
	ErrGatewayTypes    = errors.New("--gateway-type requires --gateway")
	ErrEventStreamDone = errors.New("engine event stream closed")
)

const defaultRunTimeout = 10 * time.Minute

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a plan locally in auto mode",
		Long: `Load a plan into an in-process engine and execute every step in auto
mode, printing the execution log as it grows. Steps are simulated unless a
gateway is given. The command fails if the workflow halts on a failed step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := readPlan(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runLocal(cmd.Context(), cmd.OutOrStdout(), plan, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.successRate, "success-rate", config.DefaultSuccessRate,
		"percentage of simulated steps that succeed")
	f.DurationVar(&opts.delay, "delay", config.DefaultSimulatedDelay,
		"how long each simulated step takes")
	f.DurationVar(&opts.autoDelay, "auto-delay",
		config.DefaultAutoAdvanceDelay, "pause between automatic steps")
	f.DurationVar(&opts.stepTimeout, "step-timeout",
		config.DefaultStepTimeout, "deadline for a single step")
	f.DurationVar(&opts.timeout, "timeout", defaultRunTimeout,
		"give up if the workflow has not finished by then")
	f.Uint64Var(&opts.seed, "seed", 0,
		"seed for simulated outcomes (0 picks a random seed)")
	f.StringVar(&opts.gateway, "gateway", "",
		"remediation gateway base URL")
	f.StringSliceVar(&opts.gatewayTypes, "gateway-type", nil,
		"step types sent to the gateway (default all when --gateway is set)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log engine activity")
	return cmd
}

func runLocal(
	ctx context.Context, out io.Writer, plan *api.WorkflowPlan,
	opts *runOptions,
) error {
	setupLogging(opts.verbose)

	cfg := config.NewDefaultConfig()
	cfg.AutoAdvanceDelay = opts.autoDelay
	cfg.StepTimeout = opts.stepTimeout
	cfg.Executor.SuccessRate = opts.successRate
	cfg.Executor.Delay = opts.delay
	if err := cfg.Validate(); err != nil {
		return err
	}

	exec, err := buildExecutor(cfg, opts)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg, engine.Dependencies{Executor: exec})
	if err != nil {
		return err
	}
	defer func() { _ = eng.Shutdown() }()

	consumer := eng.Subscribe()
	defer consumer.Close()

	if _, err := eng.LoadPlan(plan); err != nil {
		return err
	}
	printPlan(out, plan)
	if err := eng.ExecuteAll(); err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	return follow(ctx, out, consumer)
}

func buildExecutor(
	cfg *config.Config, opts *runOptions,
) (executor.StepExecutor, error) {
	var sim executor.StepExecutor
	if opts.seed != 0 {
		sim = executor.NewSeededSimulatedExecutor(
			cfg.Executor.SuccessRate, cfg.Executor.Delay, opts.seed,
		)
	} else {
		sim = executor.NewSimulatedExecutor(
			cfg.Executor.SuccessRate, cfg.Executor.Delay,
		)
	}

	switch {
	case opts.gateway == "" && len(opts.gatewayTypes) > 0:
		return nil, ErrGatewayTypes
	case opts.gateway == "":
		return sim, nil
	}

	gw := executor.NewHTTPExecutor(opts.gateway, cfg.StepTimeout)
	if len(opts.gatewayTypes) == 0 {
		return gw, nil
	}

	router := executor.NewRouter(sim)
	for _, typ := range opts.gatewayTypes {
		router.Handle(gw, api.NormalizeStepType(typ))
	}
	return router, nil
}

// follow prints log entries until the workflow completes or halts
func follow(
	ctx context.Context, out io.Writer, consumer engine.EventConsumer,
) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrRunTimeout, ctx.Err())
		case ev, ok := <-consumer.Receive():
			if !ok {
				return ErrEventStreamDone
			}
			switch ev.Type {
			case api.EventTypeLogAppended:
				if entry, ok := ev.Data.(api.LogEntry); ok {
					printEntry(out, entry)
				}
			case api.EventTypeStepFailed:
				if data, ok := ev.Data.(api.StepFailedEvent); ok {
					return fmt.Errorf("%w at step %d: %s",
						ErrWorkflowHalted, data.Order, data.Result)
				}
				return ErrWorkflowHalted
			case api.EventTypeWorkflowCompleted:
				return nil
			}
		}
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := log.NewWithFormat(
		log.FormatText, "remedyctl", "", app.Version, level,
	)
	slog.SetDefault(logger)
}
