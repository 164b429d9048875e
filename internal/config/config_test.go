package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewHonorsHomeOverride(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("KDEPLOY_HOME", tempDir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() returned an error: %v", err)
	}

	want := filepath.Join(tempDir, "."+AppName)
	if got := cfg.GetAppDir(); got != want {
		t.Errorf("GetAppDir() = %q, want %q", got, want)
	}
}

func TestFindKernelRoot(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"Makefile", "Kbuild"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte{}, 0644); err != nil {
			t.Fatal(err)
		}
	}
	nested := filepath.Join(root, "drivers", "net")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	got, err := cfg.FindKernelRoot(nested)
	if err != nil {
		t.Fatalf("FindKernelRoot() returned an error: %v", err)
	}
	if got != root {
		t.Errorf("FindKernelRoot() = %q, want %q", got, root)
	}
}

func TestFindKernelRootRequiresKbuild(t *testing.T) {
	dir := t.TempDir()
	// A Makefile alone, as in any random project, must not match.
	if err := os.WriteFile(filepath.Join(dir, "Makefile"), []byte{}, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	if _, err := cfg.FindKernelRoot(dir); err == nil {
		t.Error("FindKernelRoot() found a kernel root in a plain project directory")
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("KDEPLOY_HOME", t.TempDir())
	cfg, err := New()
	if err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(cfg)
	if err != nil {
		t.Fatalf("LoadSettings() returned an error: %v", err)
	}
	if s.MakeJobs <= 0 {
		t.Errorf("default MakeJobs = %d, want a positive value", s.MakeJobs)
	}
	if s.KeepKernels != 2 {
		t.Errorf("default KeepKernels = %d, want 2", s.KeepKernels)
	}
	if len(s.RsyncFlags) == 0 {
		t.Error("default RsyncFlags is empty")
	}
}

func TestLoadSettingsFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("KDEPLOY_HOME", home)
	cfg, err := New()
	if err != nil {
		t.Fatal(err)
	}

	appDir := cfg.GetAppDir()
	if err := os.MkdirAll(appDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "default_host: testvm\nmake_jobs: 4\nkeep_kernels: 5\nrsync_flags: [\"-a\"]\n"
	if err := os.WriteFile(filepath.Join(appDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(cfg)
	if err != nil {
		t.Fatalf("LoadSettings() returned an error: %v", err)
	}
	if s.DefaultHost != "testvm" {
		t.Errorf("DefaultHost = %q, want %q", s.DefaultHost, "testvm")
	}
	if s.MakeJobs != 4 {
		t.Errorf("MakeJobs = %d, want 4", s.MakeJobs)
	}
	if s.KeepKernels != 5 {
		t.Errorf("KeepKernels = %d, want 5", s.KeepKernels)
	}
}

func TestLoadSettingsRejectsMalformedYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("KDEPLOY_HOME", home)
	cfg, err := New()
	if err != nil {
		t.Fatal(err)
	}

	appDir := cfg.GetAppDir()
	if err := os.MkdirAll(appDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(appDir, "config.yaml"), []byte("{not yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSettings(cfg); err == nil {
		t.Error("LoadSettings() accepted malformed YAML")
	}
}
