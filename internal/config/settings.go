package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Settings are the operator-tunable defaults, read from config.yaml in the
// app directory. A missing file means stock defaults.
type Settings struct {
	DefaultHost string   `yaml:"default_host"`
	MakeJobs    int      `yaml:"make_jobs"`
	MakeArgs    []string `yaml:"make_args"`
	RsyncFlags  []string `yaml:"rsync_flags"`
	KeepKernels int      `yaml:"keep_kernels"`
}

func DefaultSettings() *Settings {
	return &Settings{
		MakeJobs:    runtime.NumCPU(),
		RsyncFlags:  []string{"-a", "--info=progress2"},
		KeepKernels: 2,
	}
}

// LoadSettings reads config.yaml from the app directory, filling in
// defaults for anything left unset.
var LoadSettings = func(cfg *Config) (*Settings, error) {
	s := DefaultSettings()

	path := filepath.Join(cfg.GetAppDir(), "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if s.MakeJobs <= 0 {
		s.MakeJobs = runtime.NumCPU()
	}
	if len(s.RsyncFlags) == 0 {
		s.RsyncFlags = DefaultSettings().RsyncFlags
	}
	if s.KeepKernels <= 0 {
		s.KeepKernels = DefaultSettings().KeepKernels
	}
	return s, nil
}
