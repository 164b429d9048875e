package hosts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kdeploy/internal/config"
)

// Host describes one deploy target. An empty Address means the build
// machine itself.
type Host struct {
	Name          string `json:"name"`
	Address       string `json:"address,omitempty"`
	User          string `json:"user,omitempty"`
	Port          int    `json:"port,omitempty"`
	Arch          string `json:"arch,omitempty"`
	BootDir       string `json:"boot_dir,omitempty"`
	ModulesDir    string `json:"modules_dir,omitempty"`
	InitramfsCmd  string `json:"initramfs_cmd,omitempty"`
	BootloaderCmd string `json:"bootloader_cmd,omitempty"`
	Default       bool   `json:"default,omitempty"`
}

// Local reports whether the host is the build machine itself.
func (h *Host) Local() bool {
	return h.Address == ""
}

// SSHUser returns the remote login user, defaulting to root since kernel
// installation needs it anyway.
func (h *Host) SSHUser() string {
	if h.User != "" {
		return h.User
	}
	return "root"
}

// SSHPort returns the remote ssh port.
func (h *Host) SSHPort() int {
	if h.Port != 0 {
		return h.Port
	}
	return 22
}

func (h *Host) BootDirectory() string {
	if h.BootDir != "" {
		return h.BootDir
	}
	return "/boot"
}

func (h *Host) ModulesDirectory() string {
	if h.ModulesDir != "" {
		return h.ModulesDir
	}
	return "/lib/modules"
}

// InitramfsCommand returns the command regenerating the initramfs for the
// given release on this host.
func (h *Host) InitramfsCommand(release string) string {
	cmd := h.InitramfsCmd
	if cmd == "" {
		cmd = "dracut --force " + filepath.Join(h.BootDirectory(), "initramfs-{release}.img") + " {release}"
	}
	return expandRelease(cmd, release)
}

// BootloaderCommand returns the command regenerating the bootloader
// configuration on this host.
func (h *Host) BootloaderCommand(release string) string {
	cmd := h.BootloaderCmd
	if cmd == "" {
		cmd = "grub2-mkconfig -o " + filepath.Join(h.BootDirectory(), "grub2", "grub.cfg")
	}
	return expandRelease(cmd, release)
}

// expandRelease substitutes the {release} token in a stored command
// template.
func expandRelease(cmd, release string) string {
	return strings.ReplaceAll(cmd, "{release}", release)
}

func getHostsDir(cfg *config.Config) string {
	return filepath.Join(cfg.GetAppDir(), "hosts")
}

// Save writes the host's metadata to a file.
var Save = func(cfg *config.Config, h *Host) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal host metadata: %w", err)
	}

	hostsDir := getHostsDir(cfg)
	if err := os.MkdirAll(hostsDir, 0755); err != nil {
		return fmt.Errorf("failed to create hosts directory: %w", err)
	}

	metaPath := filepath.Join(hostsDir, h.Name+".json")
	return os.WriteFile(metaPath, data, 0644)
}

var Load = func(cfg *config.Config, name string) (*Host, error) {
	metaPath := filepath.Join(getHostsDir(cfg), name+".json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var h Host
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal host metadata for %s: %w", name, err)
	}
	return &h, nil
}

var Delete = func(cfg *config.Config, name string) error {
	metaPath := filepath.Join(getHostsDir(cfg), name+".json")
	if _, err := os.Stat(metaPath); err == nil {
		return os.Remove(metaPath)
	}
	return nil
}

var GetAll = func(cfg *config.Config) (map[string]*Host, error) {
	hostsDir := getHostsDir(cfg)

	all := make(map[string]*Host)

	files, err := os.ReadDir(hostsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return all, nil // No directory means no hosts
		}
		return nil, err
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) == ".json" {
			name := file.Name()[:len(file.Name())-len(".json")]
			h, err := Load(cfg, name)
			if err != nil {
				// Ignore malformed metadata files
				continue
			}
			all[name] = h
		}
	}

	return all, nil
}

// FindDefault returns the host marked default, or the only host when
// exactly one exists.
var FindDefault = func(cfg *config.Config) (*Host, error) {
	all, err := GetAll(cfg)
	if err != nil {
		return nil, err
	}
	for _, h := range all {
		if h.Default {
			return h, nil
		}
	}
	if len(all) == 1 {
		for _, h := range all {
			return h, nil
		}
	}
	return nil, fmt.Errorf("no default host configured; pass --host or run 'kdeploy host add --default'")
}
