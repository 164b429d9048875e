package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/errors"
	"kdeploy/internal/kernel"
	"kdeploy/internal/logbook"
	"kdeploy/internal/runner"
)

var (
	buildJobs int

	buildCmd = &cobra.Command{
		Use:   "build [make-target...]",
		Short: "Builds the kernel in the current source tree",
		Long: `Builds the kernel in the source tree containing the current directory.
The build runs as the invoking user even under sudo, so the tree is not
littered with root-owned objects. Extra arguments are passed to make as
targets.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return errors.E("build", err)
			}
			settings, err := config.LoadSettings(cfg)
			if err != nil {
				return errors.E("build", err)
			}

			root, err := kernelRoot(cfg)
			if err != nil {
				return errors.E("build", err)
			}
			color.Cyan("i Building kernel in %s", root)

			if err := buildKernel(cfg, settings, root, args); err != nil {
				return errors.E("build", err)
			}

			release, err := kernel.Resolve(root)
			if err != nil {
				return errors.E("build", err)
			}
			color.Green("✔ Kernel %s built successfully.", release)
			return nil
		},
	}
)

// kernelRoot locates the top of the kernel source tree from the current
// directory.
func kernelRoot(cfg *config.Config) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := cfg.FindKernelRoot(wd)
	if err != nil {
		return "", fmt.Errorf("not inside a kernel source tree (no Makefile with Kbuild found above %s)", wd)
	}
	return root, nil
}

// buildKernel invokes make with live output; the runner gives elevated
// privileges back to the invoking user for the duration of the build.
func buildKernel(cfg *config.Config, settings *config.Settings, root string, targets []string) error {
	makeArgs := append([]string{}, settings.MakeArgs...)
	makeArgs = append(makeArgs, targets...)

	jobs := buildJobs
	if jobs <= 0 {
		jobs = settings.MakeJobs
	}

	command := fmt.Sprintf("make -C %s -j%d", root, jobs)
	if len(makeArgs) > 0 {
		command += " " + strings.Join(makeArgs, " ")
	}

	if _, err := runner.Run(runner.Request{Command: command}, runner.DefaultOptions()); err != nil {
		logWarn(logbook.Append(cfg, "build failed: %v", err))
		return err
	}
	logWarn(logbook.Append(cfg, "build finished in %s", root))
	return nil
}

// logWarn reports a logbook write failure without failing the command.
func logWarn(err error) {
	if err != nil {
		color.Yellow("! Warning: could not write deploy log: %v", err)
	}
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 0, "Parallel make jobs (default from config.yaml, then CPU count)")
}
