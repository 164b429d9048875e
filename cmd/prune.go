package cmd

import (
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/errors"
	"kdeploy/internal/hosts"
	"kdeploy/internal/kernel"
	"kdeploy/internal/logbook"
	"kdeploy/internal/remote"
	"kdeploy/internal/runner"
)

var (
	pruneHost string
	pruneKeep int

	pruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Deletes old installed kernels from a deploy target",
		Long: `Deletes old installed kernels from a deploy target, keeping the running
release and the newest releases.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return errors.E("prune", err)
			}
			settings, err := config.LoadSettings(cfg)
			if err != nil {
				return errors.E("prune", err)
			}
			keep := pruneKeep
			if keep < 0 {
				keep = settings.KeepKernels
			}

			h, err := resolveHost(cfg, pruneHost)
			if err != nil {
				return errors.E("prune", err)
			}

			if err := pruneKernels(cfg, h, "", keep); err != nil {
				return errors.E("prune", err)
			}
			return nil
		},
	}
)

// pruneKernels removes the old kernels on h, sparing the running release,
// the incoming release (when given) and the newest keep releases.
func pruneKernels(cfg *config.Config, h *hosts.Host, incoming string, keep int) error {
	if h.Local() {
		return &remote.LocalUnsupportedError{Op: "pruning kernels"}
	}

	installed, err := installedReleases(cfg, h)
	if err != nil {
		return err
	}
	running, err := runningRelease(cfg, h)
	if err != nil {
		return err
	}

	candidates := kernel.PruneCandidates(installed, running, incoming, keep)
	if len(candidates) == 0 {
		color.Cyan("i No kernels to prune on '%s'.", h.Name)
		return nil
	}

	for _, release := range candidates {
		image, systemMap, conf := kernel.InstalledNames(release)
		bootDir := h.BootDirectory()
		removals := []string{
			"rm -f " + filepath.Join(bootDir, image),
			"rm -f " + filepath.Join(bootDir, systemMap),
			"rm -f " + filepath.Join(bootDir, conf),
			"rm -f " + filepath.Join(bootDir, "initramfs-"+release+".img"),
			"rm -rf " + filepath.Join(h.ModulesDirectory(), release),
		}
		command := remote.SSHCommand(cfg, h, strings.Join(removals, " && "))
		if _, err := runner.Run(runner.Request{Command: command}, runner.Options{}); err != nil {
			return err
		}
		color.Green("✔ Pruned kernel %s from '%s'.", release, h.Name)
		logWarn(logbook.Append(cfg, "pruned %s from %s", release, h.Name))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().StringVar(&pruneHost, "host", "", "Deploy target (default from host metadata)")
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", -1, "Old releases to keep besides the running one (default from config.yaml)")
}
