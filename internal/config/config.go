package config

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the name of the application
	AppName = "kdeploy"
)

// Config holds the application's configuration.
type Config struct {
	homeDir string
}

// New creates a new Config instance.
var New = func() (*Config, error) {
	var home string
	var err error

	// Check for the override environment variable first.
	// This is useful for testing.
	homeOverride := os.Getenv("KDEPLOY_HOME")
	if homeOverride != "" {
		home = homeOverride
	} else {
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, err
		}
	}

	return &Config{homeDir: home}, nil
}

// GetAppDir returns the path to the application's hidden directory.
func (c *Config) GetAppDir() string {
	return filepath.Join(c.homeDir, "."+AppName)
}

// SetHomeDir sets the application's home directory.
func (c *Config) SetHomeDir(dir string) {
	c.homeDir = dir
}

// FindKernelRoot walks up from wd looking for the top of a kernel source
// tree, identified by a Makefile next to a Kbuild file.
func (c *Config) FindKernelRoot(wd string) (string, error) {
	for {
		_, errMake := os.Stat(filepath.Join(wd, "Makefile"))
		_, errKbuild := os.Stat(filepath.Join(wd, "Kbuild"))
		if errMake == nil && errKbuild == nil {
			return wd, nil
		}
		if wd == "/" {
			break
		}
		wd = filepath.Dir(wd)
	}
	return "", os.ErrNotExist
}
