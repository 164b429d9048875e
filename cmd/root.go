package cmd

import (
	"kdeploy/internal/cleanup"

	"github.com/spf13/cobra"
)

// registry collects the temporary directories created during a run; main
// flushes it on the way out.
var registry = cleanup.New()

var rootCmd = &cobra.Command{
	Use:   "kdeploy",
	Short: "kdeploy builds a kernel and pushes it onto a test host",
	// SilenceErrors is used to prevent cobra from printing the error,
	// as we handle it ourselves in the Execute function.
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Print the help message if no subcommand is provided
		return cmd.Help()
	},
}

// Execute runs the CLI with the given cleanup registry and returns the
// first error, leaving the exit decision to main so deferred cleanup still
// runs.
func Execute(reg *cleanup.Registry) error {
	if reg != nil {
		registry = reg
	}
	return rootCmd.Execute()
}
