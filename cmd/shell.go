package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kdeploy/internal/config"
	"kdeploy/internal/remote"
	"kdeploy/internal/runner"
)

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:               "shell [host-name] [command]",
	Short:             "Connects to a deploy target via SSH or executes a command",
	ValidArgsFunction: HostNameCompleter,
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) > 0 {
			name = args[0]
		}

		cfg, err := config.New()
		if err != nil {
			return err
		}
		h, err := resolveHost(cfg, name)
		if err != nil {
			return err
		}
		if h.Local() {
			return &remote.LocalUnsupportedError{Op: "opening a shell"}
		}

		if len(args) > 1 {
			command := remote.SSHCommand(cfg, h, args[1])
			_, err := runner.Run(runner.Request{Command: command}, runner.Options{})
			return err
		}

		color.Cyan("i Connecting to '%s' via SSH", h.Name)
		forceTTY := term.IsTerminal(int(os.Stdin.Fd()))
		command := remote.InteractiveSSHCommand(cfg, h, forceTTY)
		_, err = runner.Run(runner.Request{Command: command}, runner.Options{})
		return err
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
