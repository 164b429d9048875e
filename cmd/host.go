package cmd

import (
	"github.com/spf13/cobra"
)

// hostCmd groups the deploy-target management commands.
var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Manage deploy targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(hostCmd)
}
