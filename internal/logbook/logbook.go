// Package logbook appends one line per deploy step to a log file in the
// app directory, so a second terminal can follow a long deploy with
// 'kdeploy log --follow'.
package logbook

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kdeploy/internal/config"
)

// Path returns the location of the deploy log.
func Path(cfg *config.Config) string {
	return filepath.Join(cfg.GetAppDir(), "logs", "deploy.log")
}

// Append writes one timestamped line to the deploy log. Logging is best
// effort and must never fail a deploy, so errors are returned for the
// caller to warn about, not to abort on.
var Append = func(cfg *config.Config, format string, args ...interface{}) error {
	path := Path(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf(format, args...)
	_, err = fmt.Fprintf(f, "%s %s\n", time.Now().Format(time.RFC3339), line)
	return err
}
