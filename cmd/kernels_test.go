package cmd

import (
	"strings"
	"testing"

	"kdeploy/internal/hosts"
	"kdeploy/internal/runner"
)

func TestKernelsCommand(t *testing.T) {
	setupMocks(t)
	saveHost(t, &hosts.Host{Name: "vm1", Address: "192.168.64.10", Arch: "x86_64", Default: true})
	results := map[string]*runner.Result{
		"ls -1":    {Stdout: "vmlinuz-6.9.0\nvmlinuz-6.10.0\nSystem.map-6.9.0\nconfig-6.9.0\ngrub2\n"},
		"uname -r": {Stdout: "6.10.0\n"},
	}
	recordCommands(t, results, "")

	output, err := executeCommand(rootCmd, "kernels")
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}

	for _, expected := range []string{"6.9.0", "6.10.0", "vmlinuz-6.9.0", "running"} {
		if !strings.Contains(output, expected) {
			t.Errorf("expected output to contain '%s', but got '%s'", expected, output)
		}
	}
	// Only boot images count as installed kernels.
	if strings.Contains(output, "grub2") {
		t.Errorf("expected non-image entries to be filtered out, got '%s'", output)
	}
}

func TestKernelsCommandEmptyBootDir(t *testing.T) {
	setupMocks(t)
	saveHost(t, &hosts.Host{Name: "vm1", Address: "192.168.64.10", Default: true})
	recordCommands(t, map[string]*runner.Result{"ls -1": {}}, "")

	output, err := executeCommand(rootCmd, "kernels")
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if !strings.Contains(output, "No installed kernels found") {
		t.Errorf("expected the empty notice, got '%s'", output)
	}
}

func TestKernelsCommandNoDefaultHost(t *testing.T) {
	setupMocks(t)
	recordCommands(t, nil, "")

	_, err := executeCommand(rootCmd, "kernels")
	if err == nil {
		t.Fatal("expected an error when no host is configured")
	}
	if !strings.Contains(err.Error(), "no default host configured") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestKernelsCommandDefaultHostSetting(t *testing.T) {
	setupMocks(t)
	saveHost(t, &hosts.Host{Name: "vm1", Address: "192.168.64.10"})
	saveHost(t, &hosts.Host{Name: "vm2", Address: "192.168.64.11"})
	writeSettings(t, "default_host: vm2\n")
	results := map[string]*runner.Result{
		"ls -1":    {Stdout: "vmlinuz-6.9.0\n"},
		"uname -r": {Stdout: "6.9.0\n"},
	}
	commands := recordCommands(t, results, "")

	if _, err := executeCommand(rootCmd, "kernels"); err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if len(*commands) == 0 || !strings.Contains((*commands)[0], "192.168.64.11") {
		t.Errorf("expected default_host vm2 to be queried, got %v", *commands)
	}
}
