package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/errors"
	"kdeploy/internal/hosts"
)

var (
	hostAddress       string
	hostUser          string
	hostPort          int
	hostArch          string
	hostBootDir       string
	hostModulesDir    string
	hostInitramfsCmd  string
	hostBootloaderCmd string
	hostDefault       bool

	hostAddCmd = &cobra.Command{
		Use:   "add <host-name>",
		Short: "Registers a deploy target",
		Long: `Registers a deploy target. Leave --address empty for the build machine
itself. The initramfs and bootloader commands may use the {release} token,
replaced with the installed kernel release at deploy time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if hostArch != "x86_64" && hostArch != "aarch64" && hostArch != "riscv64" {
				return errors.E("host-add", fmt.Errorf("--arch must be one of 'x86_64', 'aarch64' or 'riscv64'"))
			}

			cfg, err := config.New()
			if err != nil {
				return errors.E("host-add", err)
			}

			h := &hosts.Host{
				Name:          name,
				Address:       hostAddress,
				User:          hostUser,
				Port:          hostPort,
				Arch:          hostArch,
				BootDir:       hostBootDir,
				ModulesDir:    hostModulesDir,
				InitramfsCmd:  hostInitramfsCmd,
				BootloaderCmd: hostBootloaderCmd,
				Default:       hostDefault,
			}
			if err := hosts.Save(cfg, h); err != nil {
				return errors.E("host-add", err)
			}

			color.Green("✔ Host '%s' registered.", name)
			return nil
		},
	}
)

func init() {
	hostCmd.AddCommand(hostAddCmd)
	hostAddCmd.Flags().StringVar(&hostAddress, "address", "", "Address of the test host (empty for the build machine)")
	hostAddCmd.Flags().StringVar(&hostUser, "user", "root", "SSH user on the test host")
	hostAddCmd.Flags().IntVar(&hostPort, "port", 22, "SSH port on the test host")
	hostAddCmd.Flags().StringVar(&hostArch, "arch", "x86_64", "Kernel architecture of the test host")
	hostAddCmd.Flags().StringVar(&hostBootDir, "boot-dir", "", "Boot directory on the test host (default /boot)")
	hostAddCmd.Flags().StringVar(&hostModulesDir, "modules-dir", "", "Modules directory on the test host (default /lib/modules)")
	hostAddCmd.Flags().StringVar(&hostInitramfsCmd, "initramfs-cmd", "", "Command regenerating the initramfs")
	hostAddCmd.Flags().StringVar(&hostBootloaderCmd, "bootloader-cmd", "", "Command regenerating the bootloader configuration")
	hostAddCmd.Flags().BoolVar(&hostDefault, "default", false, "Use this host when --host is not given")
}
