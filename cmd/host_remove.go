package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/hosts"
)

// hostRemoveCmd represents the remove command
var hostRemoveCmd = &cobra.Command{
	Use:               "remove <host-name>",
	Short:             "Removes a registered deploy target",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: HostNameCompleter,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := config.New()
		if err != nil {
			return err
		}

		if _, err := hosts.Load(cfg, name); err != nil {
			return fmt.Errorf("host '%s' is not registered", name)
		}

		if err := hosts.Delete(cfg, name); err != nil {
			return fmt.Errorf("failed to remove host '%s': %w", name, err)
		}

		color.Green("✔ Host '%s' removed.", name)
		return nil
	},
}

func init() {
	hostCmd.AddCommand(hostRemoveCmd)
}
