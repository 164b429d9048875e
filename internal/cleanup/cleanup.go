// Package cleanup tracks temporary directories that must be removed when
// the program exits, whichever way it exits. Each entry remembers the
// process that registered it, so a forked child flushing the inherited
// list cannot delete directories the parent still needs.
package cleanup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Error reports a registered directory that could not be removed during
// the final flush. Leftover temporary directories are a resource leak, so
// these are surfaced, never swallowed.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to remove temporary directory %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// getpid is a variable to allow simulating a foreign owner in tests.
var getpid = os.Getpid

type entry struct {
	path string
	pid  int
}

// Registry is an ordered list of (path, owning pid) pairs. It is appended
// to from the main sequential flow only and flushed once at exit.
type Registry struct {
	entries []entry
}

func New() *Registry {
	return &Registry{}
}

// Register records path for removal at flush time, owned by the current
// process.
func (r *Registry) Register(path string) {
	r.entries = append(r.entries, entry{path: path, pid: getpid()})
}

// TempDir creates a uniquely named directory under parent and registers it
// for removal.
func (r *Registry) TempDir(parent, prefix string) (string, error) {
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", fmt.Errorf("failed to create parent directory %s: %w", parent, err)
	}
	path := filepath.Join(parent, prefix+"-"+uuid.NewString())
	if err := os.Mkdir(path, 0700); err != nil {
		return "", fmt.Errorf("failed to create temporary directory %s: %w", path, err)
	}
	r.Register(path)
	return path, nil
}

// Flush removes every registered directory owned by the calling process.
// Entries owned by a different process are left alone. Flushed entries are
// dropped from the registry, so a second flush is a no-op. A path that
// already vanished is tolerated; any other removal failure is reported.
func (r *Registry) Flush() error {
	pid := getpid()
	var kept []entry
	var errs []error
	for _, e := range r.entries {
		if e.pid != pid {
			kept = append(kept, e)
			continue
		}
		if err := os.RemoveAll(e.path); err != nil {
			errs = append(errs, &Error{Path: e.path, Err: err})
		}
	}
	r.entries = kept
	return errors.Join(errs...)
}
