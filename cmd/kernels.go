package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/hosts"
	"kdeploy/internal/kernel"
	"kdeploy/internal/remote"
	"kdeploy/internal/runner"
)

var (
	kernelsHost string

	kernelsCmd = &cobra.Command{
		Use:   "kernels",
		Short: "Lists the kernels installed on a deploy target",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			h, err := resolveHost(cfg, kernelsHost)
			if err != nil {
				return err
			}

			installed, err := installedReleases(cfg, h)
			if err != nil {
				return err
			}
			if len(installed) == 0 {
				color.Yellow("No installed kernels found in %s.", h.BootDirectory())
				return nil
			}

			running, err := runningRelease(cfg, h)
			if err != nil {
				color.Yellow("! Warning: could not determine the running kernel: %v", err)
			}

			sort.Slice(installed, func(i, j int) bool {
				return kernel.CompareReleases(installed[i], installed[j]) > 0
			})

			table := tablewriter.NewWriter(os.Stdout)
			table.Header([]string{"RELEASE", "IMAGE", "STATUS"})
			for _, release := range installed {
				image, _, _ := kernel.InstalledNames(release)
				status := ""
				if release == running {
					status = color.GreenString("running")
				}
				table.Append([]string{release, image, status})
			}
			table.Render()
			return nil
		},
	}
)

// resolveHost loads the named host, falling back to the default_host
// setting and then to the host metadata marked default.
func resolveHost(cfg *config.Config, name string) (*hosts.Host, error) {
	if name == "" {
		if settings, err := config.LoadSettings(cfg); err == nil {
			name = settings.DefaultHost
		}
	}
	if name == "" {
		return hosts.FindDefault(cfg)
	}
	h, err := hosts.Load(cfg, name)
	if err != nil {
		return nil, fmt.Errorf("host '%s' is not registered; run 'kdeploy host add'", name)
	}
	return h, nil
}

// installedReleases enumerates the kernel releases present in the target's
// boot directory.
func installedReleases(cfg *config.Config, h *hosts.Host) ([]string, error) {
	var names []string
	if h.Local() {
		entries, err := os.ReadDir(h.BootDirectory())
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			names = append(names, e.Name())
		}
	} else {
		command := remote.SSHCommand(cfg, h, "ls -1 "+h.BootDirectory())
		res, err := runner.Run(runner.Request{Command: command}, runner.Options{CaptureOutput: true})
		if err != nil {
			return nil, err
		}
		names = strings.Fields(res.Stdout)
	}

	var releases []string
	for _, name := range names {
		if release, ok := kernel.ReleaseFromImage(name); ok {
			releases = append(releases, release)
		}
	}
	return releases, nil
}

// runningRelease reports the release the target is currently running.
func runningRelease(cfg *config.Config, h *hosts.Host) (string, error) {
	command := "uname -r"
	if !h.Local() {
		command = remote.SSHCommand(cfg, h, command)
	}
	res, err := runner.Run(runner.Request{Command: command}, runner.Options{CaptureOutput: true})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func init() {
	rootCmd.AddCommand(kernelsCmd)
	kernelsCmd.Flags().StringVar(&kernelsHost, "host", "", "Deploy target (default from host metadata)")
}
