package runner

import (
	"fmt"
	"strings"
	"syscall"
)

// InvalidRequestError reports a malformed invocation request. It is always
// returned before any process is created.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid invocation request: " + e.Reason
}

// ConfigurationError reports that the environment markers carrying the
// invoking (pre-sudo) identity are required but absent or unusable.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invoking identity unavailable: %s not set (run through sudo)", strings.Join(e.Missing, ", "))
}

// ExecutionError reports a child that ran but failed, either by exiting
// non-zero or by being killed by a signal. Subject is the verbatim command
// string, or "Function" for in-process payloads. Captured output, when
// capture was enabled, is carried verbatim for diagnosis.
type ExecutionError struct {
	Subject  string
	Identity string
	ExitCode int
	Signal   syscall.Signal
	Signaled bool
	Stdout   string
	Stderr   string
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	if e.Signaled {
		fmt.Fprintf(&b, "%s killed by signal %d (ran as %s)", e.Subject, int(e.Signal), e.Identity)
	} else {
		fmt.Fprintf(&b, "%s exited with code %d (ran as %s)", e.Subject, e.ExitCode, e.Identity)
	}
	if e.Stdout != "" {
		fmt.Fprintf(&b, "\nstdout:\n%s", e.Stdout)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, "\nstderr:\n%s", e.Stderr)
	}
	return b.String()
}
