package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/logbook"
)

var (
	logFollow bool

	logCmd = &cobra.Command{
		Use:   "log",
		Short: "Shows the deploy log",
		Long: `Shows the deploy log. With --follow the log is tailed, which is handy in
a second terminal while a long deploy runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			logPath := logbook.Path(cfg)

			if !logFollow {
				data, err := os.ReadFile(logPath)
				if err != nil {
					if os.IsNotExist(err) {
						fmt.Fprintln(cmd.OutOrStdout(), "No deploys logged yet.")
						return nil
					}
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))
				return nil
			}

			t, err := tail.TailFile(logPath, tail.Config{
				Follow:   true,
				ReOpen:   true,
				Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
				Logger:   tail.DiscardingLogger,
			})
			if err != nil {
				return fmt.Errorf("error tailing deploy log: %w", err)
			}
			defer t.Stop()

			for line := range t.Lines {
				if line.Err != nil {
					return fmt.Errorf("error reading deploy log: %w", line.Err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line.Text)
			}
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().BoolVarP(&logFollow, "follow", "f", false, "Keep the log open and print new lines as they appear")
}
