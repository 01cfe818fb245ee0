package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	app "github.com/kode4food/remedy"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "remedyctl",
		Short: "Validate, run, and drive remediation workflow plans",
		Long: `remedyctl works with remediation workflow plans. It can validate plan
files, run a plan locally against a simulated or HTTP gateway executor, and
drive a running remedy engine over its HTTP API.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"remedyctl version %s\n", app.Version)
		},
	})

	rootCmd.AddCommand(newValidateCmd(), newRunCmd())
	addRemoteCommands(rootCmd)
	return rootCmd
}
