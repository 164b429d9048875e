package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/hosts"
)

// hostListCmd represents the list command
var hostListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists all registered deploy targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		all, err := hosts.GetAll(cfg)
		if err != nil {
			return fmt.Errorf("error getting host list: %w", err)
		}

		if len(all) == 0 {
			color.Yellow("No hosts have been registered yet.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"NAME", "ADDRESS", "USER", "PORT", "ARCH", "BOOT DIR", "DEFAULT"})

		// Sort host names for consistent output
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			h := all[name]
			address := h.Address
			if h.Local() {
				address = "(local)"
			}
			def := ""
			if h.Default {
				def = color.GreenString("yes")
			}
			table.Append([]string{
				name,
				address,
				h.SSHUser(),
				fmt.Sprintf("%d", h.SSHPort()),
				h.Arch,
				h.BootDirectory(),
				def,
			})
		}

		table.Render()
		return nil
	},
}

func init() {
	hostCmd.AddCommand(hostListCmd)
}
