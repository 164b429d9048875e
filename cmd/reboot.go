package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/errors"
	"kdeploy/internal/waiter"
)

var (
	rebootHostName string
	rebootWait     time.Duration

	rebootCmd = &cobra.Command{
		Use:   "reboot",
		Short: "Reboots a deploy target",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return errors.E("reboot", err)
			}
			h, err := resolveHost(cfg, rebootHostName)
			if err != nil {
				return errors.E("reboot", err)
			}

			if err := rebootHost(cfg, h); err != nil {
				return errors.E("reboot", err)
			}
			if rebootWait > 0 && !h.Local() {
				if err := waiter.ForPort(h.Address, h.SSHPort(), rebootWait); err != nil {
					return errors.E("reboot", err)
				}
			}
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(rebootCmd)
	rebootCmd.Flags().StringVar(&rebootHostName, "host", "", "Deploy target (default from host metadata)")
	rebootCmd.Flags().DurationVar(&rebootWait, "wait", 0, "Wait for the target's ssh port to come back (e.g. 5m)")
}
