// Package remote assembles the rsync and ssh command strings the deploy
// steps hand to the runner. Local and remote targets share one call
// surface; the operations the tool cannot yet perform on the build machine
// itself report a typed error instead of guessing.
package remote

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"kdeploy/internal/config"
	"kdeploy/internal/hosts"
)

// LocalUnsupportedError marks a deploy step that is only implemented for
// remote targets so far.
type LocalUnsupportedError struct {
	Op string
}

func (e *LocalUnsupportedError) Error() string {
	return fmt.Sprintf("%s on the local host is not implemented yet; point kdeploy at a remote host", e.Op)
}

// KeyPath returns the private key used for the test host.
func KeyPath(cfg *config.Config) string {
	return filepath.Join(cfg.GetAppDir(), "ssh", "kdeploy_rsa")
}

// sshArgs are the connection arguments shared by ssh and rsync transport.
func sshArgs(cfg *config.Config, h *hosts.Host) []string {
	return []string{
		"-i", KeyPath(cfg),
		"-o", "StrictHostKeyChecking=no",
		"-o", "UserKnownHostsFile=/dev/null",
		"-p", strconv.Itoa(h.SSHPort()),
	}
}

// Target returns the user@address spec for h.
func Target(h *hosts.Host) string {
	return h.SSHUser() + "@" + h.Address
}

// SSHCommand builds the shell command that runs remoteCmd on h.
func SSHCommand(cfg *config.Config, h *hosts.Host, remoteCmd string) string {
	parts := append([]string{"ssh"}, sshArgs(cfg, h)...)
	parts = append(parts, Target(h), Quote(remoteCmd))
	return strings.Join(parts, " ")
}

// InteractiveSSHCommand builds the command for an interactive session,
// forcing a TTY when requested.
func InteractiveSSHCommand(cfg *config.Config, h *hosts.Host, forceTTY bool) string {
	parts := append([]string{"ssh"}, sshArgs(cfg, h)...)
	if forceTTY {
		parts = append(parts, "-t")
	}
	parts = append(parts, Target(h))
	return strings.Join(parts, " ")
}

// RsyncCommand builds the shell command copying sources into destDir on h.
func RsyncCommand(cfg *config.Config, h *hosts.Host, flags, sources []string, destDir string) string {
	transport := append([]string{"ssh"}, sshArgs(cfg, h)...)
	parts := []string{"rsync"}
	parts = append(parts, flags...)
	parts = append(parts, "-e", Quote(strings.Join(transport, " ")))
	parts = append(parts, sources...)
	parts = append(parts, Target(h)+":"+destDir+"/")
	return strings.Join(parts, " ")
}

// Quote wraps s in single quotes for safe embedding in a shell command.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
