package cmd

import (
	"strings"
	"testing"

	"kdeploy/internal/config"
	"kdeploy/internal/hosts"
)

func TestHostRemoveCommand(t *testing.T) {
	setupMocks(t)
	saveHost(t, &hosts.Host{Name: "vm1", Address: "192.168.64.10"})

	output, err := executeCommand(rootCmd, "host", "remove", "vm1")
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if !strings.Contains(output, "Host 'vm1' removed.") {
		t.Errorf("expected confirmation message, got '%s'", output)
	}

	cfg, _ := config.New()
	if _, err := hosts.Load(cfg, "vm1"); err == nil {
		t.Error("expected host metadata to be gone after removal")
	}
}

func TestHostRemoveCommandUnknownHost(t *testing.T) {
	setupMocks(t)

	_, err := executeCommand(rootCmd, "host", "remove", "ghost")
	if err == nil {
		t.Fatal("expected an error for an unregistered host")
	}
	if !strings.Contains(err.Error(), "not registered") {
		t.Errorf("unexpected error: %v", err)
	}
}
