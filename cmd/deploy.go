package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/errors"
	"kdeploy/internal/fsutil"
	"kdeploy/internal/hosts"
	"kdeploy/internal/kernel"
	"kdeploy/internal/logbook"
	"kdeploy/internal/remote"
	"kdeploy/internal/runner"
	"kdeploy/internal/waiter"
)

var (
	deployHost         string
	deploySkipBuild    bool
	deployNoModules    bool
	deployNoImage      bool
	deployPrune        bool
	deployKeep         int
	deployNoInitramfs  bool
	deployNoBootloader bool
	deployReboot       bool
	deployWait         time.Duration

	deployCmd = &cobra.Command{
		Use:   "deploy",
		Short: "Builds the kernel and installs it on a deploy target",
		Long: `Builds the kernel in the current source tree and installs it on a deploy
target: modules first, then the boot image, symbol map and configuration,
then the initramfs and bootloader regeneration, and finally an optional
reboot. Each step is gated by its own flag and the sequence stops at the
first failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return errors.E("deploy", err)
			}
			settings, err := config.LoadSettings(cfg)
			if err != nil {
				return errors.E("deploy", err)
			}
			keep := deployKeep
			if keep < 0 {
				keep = settings.KeepKernels
			}

			root, err := kernelRoot(cfg)
			if err != nil {
				return errors.E("deploy", err)
			}
			h, err := resolveHost(cfg, deployHost)
			if err != nil {
				return errors.E("deploy", err)
			}

			color.Cyan("i Deploying from %s to '%s'", root, h.Name)
			logWarn(logbook.Append(cfg, "deploy to %s started", h.Name))

			if !deploySkipBuild {
				if err := buildKernel(cfg, settings, root, nil); err != nil {
					return errors.E("deploy", err)
				}
			}

			release, err := kernel.Resolve(root)
			if err != nil {
				return errors.E("deploy", err)
			}
			arts, err := kernel.BuiltArtifacts(root, h.Arch)
			if err != nil {
				return errors.E("deploy", err)
			}

			if !deployNoModules {
				if err := installModules(cfg, settings, h, root, release); err != nil {
					return errors.E("deploy", err)
				}
			}
			if deployPrune {
				if err := pruneKernels(cfg, h, release, keep); err != nil {
					return errors.E("deploy", err)
				}
			}
			if !deployNoImage {
				if err := installImage(cfg, settings, h, arts, release); err != nil {
					return errors.E("deploy", err)
				}
			}
			if !deployNoInitramfs {
				if err := regenerateInitramfs(cfg, h, release); err != nil {
					return errors.E("deploy", err)
				}
			}
			if !deployNoBootloader {
				if err := regenerateBootloader(cfg, h, release); err != nil {
					return errors.E("deploy", err)
				}
			}
			if deployReboot {
				if err := rebootHost(cfg, h); err != nil {
					return errors.E("deploy", err)
				}
				if deployWait > 0 && !h.Local() {
					if err := waiter.ForPort(h.Address, h.SSHPort(), deployWait); err != nil {
						return errors.E("deploy", err)
					}
				}
			}

			logWarn(logbook.Append(cfg, "deploy of %s to %s finished", release, h.Name))
			color.Green("✔ Kernel %s deployed to '%s'.", release, h.Name)
			return nil
		},
	}
)

// installModules installs the built modules: straight into the modules
// directory on the local host, through a staging directory and rsync for a
// remote one. The staging directory is registered for cleanup at exit.
func installModules(cfg *config.Config, settings *config.Settings, h *hosts.Host, root, release string) error {
	color.Cyan("i Installing modules for %s...", release)

	if h.Local() {
		command := fmt.Sprintf("make -C %s modules_install", root)
		if _, err := runner.Run(runner.Request{Command: command}, runner.Options{}); err != nil {
			return err
		}
		logWarn(logbook.Append(cfg, "installed modules %s locally", release))
		return nil
	}

	staging, err := registry.TempDir(filepath.Join(cfg.GetAppDir(), "staging"), "modules")
	if err != nil {
		return err
	}
	command := fmt.Sprintf("make -C %s INSTALL_MOD_PATH=%s modules_install", root, staging)
	if _, err := runner.Run(runner.Request{Command: command}, runner.Options{}); err != nil {
		return err
	}

	src := filepath.Join(staging, "lib", "modules", release)
	command = remote.RsyncCommand(cfg, h, settings.RsyncFlags, []string{src}, h.ModulesDirectory())
	if _, err := runner.Run(runner.Request{Command: command}, runner.Options{}); err != nil {
		return err
	}
	logWarn(logbook.Append(cfg, "installed modules %s on %s", release, h.Name))
	return nil
}

// installImage copies the image, symbol map and configuration into the
// target's boot directory under their versioned names. The local copy runs
// as a function payload through the runner, so it shares the privilege and
// error contract of the shell steps.
func installImage(cfg *config.Config, settings *config.Settings, h *hosts.Host, arts *kernel.Artifacts, release string) error {
	color.Cyan("i Installing kernel image %s...", release)

	image, systemMap, conf := kernel.InstalledNames(release)

	stageInto := func(dir string) func() error {
		return func() error {
			if err := fsutil.CopyFile(arts.Image, filepath.Join(dir, image), 0644); err != nil {
				return err
			}
			if err := fsutil.CopyFile(arts.SystemMap, filepath.Join(dir, systemMap), 0644); err != nil {
				return err
			}
			return fsutil.CopyFile(arts.Config, filepath.Join(dir, conf), 0644)
		}
	}

	if h.Local() {
		if _, err := runner.Run(runner.Request{Func: stageInto(h.BootDirectory())}, runner.Options{}); err != nil {
			return err
		}
		logWarn(logbook.Append(cfg, "installed image %s locally", release))
		return nil
	}

	staging, err := registry.TempDir(filepath.Join(cfg.GetAppDir(), "staging"), "boot")
	if err != nil {
		return err
	}
	if _, err := runner.Run(runner.Request{Func: stageInto(staging)}, runner.Options{}); err != nil {
		return err
	}

	sources := []string{
		filepath.Join(staging, image),
		filepath.Join(staging, systemMap),
		filepath.Join(staging, conf),
	}
	command := remote.RsyncCommand(cfg, h, settings.RsyncFlags, sources, h.BootDirectory())
	if _, err := runner.Run(runner.Request{Command: command}, runner.Options{}); err != nil {
		return err
	}
	logWarn(logbook.Append(cfg, "installed image %s on %s", release, h.Name))
	return nil
}

func regenerateInitramfs(cfg *config.Config, h *hosts.Host, release string) error {
	if h.Local() {
		return &remote.LocalUnsupportedError{Op: "regenerating the initramfs"}
	}
	color.Cyan("i Regenerating initramfs for %s...", release)
	command := remote.SSHCommand(cfg, h, h.InitramfsCommand(release))
	if _, err := runner.Run(runner.Request{Command: command}, runner.Options{}); err != nil {
		return err
	}
	logWarn(logbook.Append(cfg, "regenerated initramfs for %s on %s", release, h.Name))
	return nil
}

func regenerateBootloader(cfg *config.Config, h *hosts.Host, release string) error {
	if h.Local() {
		return &remote.LocalUnsupportedError{Op: "regenerating the bootloader configuration"}
	}
	color.Cyan("i Regenerating bootloader configuration...")
	command := remote.SSHCommand(cfg, h, h.BootloaderCommand(release))
	if _, err := runner.Run(runner.Request{Command: command}, runner.Options{}); err != nil {
		return err
	}
	logWarn(logbook.Append(cfg, "regenerated bootloader configuration on %s", h.Name))
	return nil
}

func rebootHost(cfg *config.Config, h *hosts.Host) error {
	if h.Local() {
		return &remote.LocalUnsupportedError{Op: "rebooting"}
	}
	color.Cyan("i Rebooting '%s'...", h.Name)
	command := remote.SSHCommand(cfg, h, "reboot")
	_, err := runner.Run(runner.Request{Command: command}, runner.Options{})
	if execErr, ok := err.(*runner.ExecutionError); ok && execErr.ExitCode == 255 {
		// ssh exits 255 when the connection drops as the host goes down
		err = nil
	}
	if err != nil {
		return err
	}
	logWarn(logbook.Append(cfg, "rebooted %s", h.Name))
	return nil
}

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().StringVar(&deployHost, "host", "", "Deploy target (default from host metadata)")
	deployCmd.Flags().BoolVar(&deploySkipBuild, "skip-build", false, "Install the artifacts already present in the tree")
	deployCmd.Flags().BoolVar(&deployNoModules, "no-modules", false, "Skip installing modules")
	deployCmd.Flags().BoolVar(&deployNoImage, "no-image", false, "Skip installing the kernel image")
	deployCmd.Flags().BoolVar(&deployPrune, "prune", false, "Delete old installed kernels before installing")
	deployCmd.Flags().IntVar(&deployKeep, "keep", -1, "Old releases to keep when pruning (default from config.yaml)")
	deployCmd.Flags().BoolVar(&deployNoInitramfs, "no-initramfs", false, "Skip regenerating the initramfs")
	deployCmd.Flags().BoolVar(&deployNoBootloader, "no-bootloader", false, "Skip regenerating the bootloader configuration")
	deployCmd.Flags().BoolVar(&deployReboot, "reboot", false, "Reboot the target after installing")
	deployCmd.Flags().DurationVar(&deployWait, "wait", 0, "Wait for the target's ssh port after the reboot (e.g. 5m)")
}
