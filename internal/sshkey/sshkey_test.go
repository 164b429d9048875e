package sshkey

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateCreatesKeyPair(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "ssh", "kdeploy_rsa")

	if err := Generate(keyPath); err != nil {
		t.Fatalf("Generate() returned an error: %v", err)
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("private key missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("private key mode = %v, want 0600", info.Mode().Perm())
	}

	pub, err := os.ReadFile(keyPath + ".pub")
	if err != nil {
		t.Fatalf("public key missing: %v", err)
	}
	if !strings.HasPrefix(string(pub), "ssh-rsa ") {
		t.Errorf("public key %q is not in authorized_keys format", pub[:20])
	}
}

func TestGenerateLeavesExistingKeyAlone(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "kdeploy_rsa")
	if err := os.WriteFile(keyPath, []byte("existing"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := Generate(keyPath); err != nil {
		t.Fatalf("Generate() returned an error: %v", err)
	}

	data, err := os.ReadFile(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "existing" {
		t.Error("Generate() overwrote an existing key")
	}
}
