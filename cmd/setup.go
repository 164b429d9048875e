package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/errors"
	"kdeploy/internal/remote"
	"kdeploy/internal/sshkey"
)

// setupCmd represents the setup command
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Creates the app directory structure and the ssh key pair",
	Long: `Creates the ~/.kdeploy/ directory structure and generates the SSH key
pair used to reach the test host. Add the public key to the test host's
authorized_keys for the root user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		color.Cyan("i Setting up kdeploy...")

		cfg, err := config.New()
		if err != nil {
			return errors.E("setup", err)
		}
		appDir := cfg.GetAppDir()

		if err := createDirectories(appDir); err != nil {
			return errors.E("setup", err)
		}

		keyPath := remote.KeyPath(cfg)
		if err := sshkey.Generate(keyPath); err != nil {
			return errors.E("setup", err)
		}

		color.Green("✔ Setup completed successfully.")
		color.Cyan("i Add %s.pub to the test host's authorized_keys.", keyPath)
		return nil
	},
}

func createDirectories(appDir string) error {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = " Creating directory structure..."
	s.Start()
	defer s.Stop()

	dirs := []string{
		filepath.Join(appDir, "hosts"),
		filepath.Join(appDir, "logs"),
		filepath.Join(appDir, "ssh"),
		filepath.Join(appDir, "staging"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			s.FinalMSG = color.RedString("✖ Failed to create directory structure.\n")
			return err
		}
	}
	s.FinalMSG = color.GreenString("✔ Directory structure created successfully.\n")
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
