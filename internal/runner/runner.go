// Package runner executes shell commands and in-process payloads on behalf
// of the rest of the tool. It is the single choke point for dropping
// elevated privileges back to the invoking (pre-sudo) user, for capturing
// child output, and for turning child failure into typed errors.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

const (
	// PlaceholderUser and PlaceholderGroup are the reserved tokens that
	// SubstituteInvokingIdentity replaces in a command string with the
	// resolved invoking user and group names.
	PlaceholderUser  = "@USER@"
	PlaceholderGroup = "@GROUP@"
)

// Request is the tagged choice between running a shell command and running
// an in-process operation. Exactly one of the two fields must be set.
type Request struct {
	Command string
	Func    func() error
}

// Options control how a request is executed.
type Options struct {
	// DropPrivileges runs the child as the invoking user when the process
	// is elevated relative to the working tree and the identity markers
	// are present. Missing markers are not an error by themselves.
	DropPrivileges bool
	// SubstituteInvokingIdentity replaces PlaceholderUser and
	// PlaceholderGroup in the command string with the invoking user and
	// group names. Missing identity markers are a hard error here.
	SubstituteInvokingIdentity bool
	// CaptureOutput redirects the child's stdout and stderr into buffers
	// returned on the Result instead of inheriting the parent's streams.
	CaptureOutput bool
}

// DefaultOptions matches the common case: give back elevated privileges,
// let output flow to the terminal.
func DefaultOptions() Options {
	return Options{DropPrivileges: true}
}

// Result carries the captured output of a successful run. Both fields are
// empty when capture was disabled.
type Result struct {
	Stdout string
	Stderr string
}

// execCommand is a variable to allow spying on process creation in tests.
var execCommand = exec.Command

// Run executes one request synchronously and classifies the outcome.
// The zero-exit case returns a Result; everything else returns one of
// InvalidRequestError, ConfigurationError or ExecutionError.
var Run = func(req Request, opts Options) (*Result, error) {
	switch {
	case req.Command == "" && req.Func == nil:
		return nil, &InvalidRequestError{Reason: "neither command nor function supplied"}
	case req.Command != "" && req.Func != nil:
		return nil, &InvalidRequestError{Reason: "both command and function supplied"}
	}

	inv, missing := invokingIdentity()

	command := req.Command
	if opts.SubstituteInvokingIdentity {
		if inv == nil {
			return nil, &ConfigurationError{Missing: missing}
		}
		command = strings.ReplaceAll(command, PlaceholderUser, inv.username)
		command = strings.ReplaceAll(command, PlaceholderGroup, inv.group)
	}

	drop := opts.DropPrivileges && inv != nil && elevated()

	if req.Func != nil {
		return runFunc(req.Func, inv, drop, opts.CaptureOutput)
	}
	return runCommand(command, inv, drop, opts.CaptureOutput)
}

func runCommand(command string, inv *invoker, drop, capture bool) (*Result, error) {
	identity := currentIdentity()

	cmd := execCommand("/bin/sh", "-c", command)
	if drop {
		// The kernel applies the credential gid before the uid, which is
		// the order a manual drop would need as well.
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Credential: &syscall.Credential{
				Uid: uint32(inv.uid),
				Gid: uint32(inv.gid),
			},
		}
		cmd.Env = normalizedEnv(inv)
		identity = inv.username
	}

	var stdout, stderr bytes.Buffer
	if capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	if err == nil {
		return &Result{Stdout: stdout.String(), Stderr: stderr.String()}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr := &ExecutionError{
			Subject:  command,
			Identity: identity,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			execErr.Signaled = true
			execErr.Signal = ws.Signal()
		} else {
			execErr.ExitCode = exitErr.ExitCode()
		}
		return nil, execErr
	}
	return nil, fmt.Errorf("failed to start %q: %w", command, err)
}

// runFunc executes an in-process payload through the same identity and
// capture contract as a shell command. Go cannot fork and keep running, so
// the drop swaps the effective gid/uid around the call and restores them
// before returning; the capture swaps the process stdout/stderr through a
// pipe for the duration of the call.
func runFunc(fn func() error, inv *invoker, drop, capture bool) (*Result, error) {
	identity := currentIdentity()

	if drop {
		restoreID, err := dropEffective(inv)
		if err != nil {
			return nil, err
		}
		defer restoreID()
		restoreEnv := normalizeProcessEnv(inv)
		defer restoreEnv()
		identity = inv.username
	}

	var fnErr error
	var stdout, stderr string
	if capture {
		var err error
		stdout, stderr, fnErr, err = captureStreams(fn)
		if err != nil {
			return nil, err
		}
	} else {
		fnErr = fn()
	}

	if fnErr != nil {
		return nil, &ExecutionError{
			Subject:  "Function",
			Identity: identity,
			ExitCode: 1,
			Stdout:   stdout,
			Stderr:   stderr,
		}
	}
	return &Result{Stdout: stdout, Stderr: stderr}, nil
}

// dropEffective lowers the effective group then user identity and returns
// the function that raises them back, in the reverse order.
func dropEffective(inv *invoker) (func(), error) {
	euid := syscall.Geteuid()
	egid := syscall.Getegid()
	// Group first: after the uid drop we would no longer be allowed to
	// change the gid.
	if err := syscall.Setegid(inv.gid); err != nil {
		return nil, fmt.Errorf("failed to drop effective group to %d: %w", inv.gid, err)
	}
	if err := syscall.Seteuid(inv.uid); err != nil {
		_ = syscall.Setegid(egid)
		return nil, fmt.Errorf("failed to drop effective user to %d: %w", inv.uid, err)
	}
	return func() {
		_ = syscall.Seteuid(euid)
		_ = syscall.Setegid(egid)
	}, nil
}

// normalizeProcessEnv applies the identity variables for the duration of a
// function payload and returns the restore function.
func normalizeProcessEnv(inv *invoker) func() {
	saved := map[string]string{}
	for name, value := range map[string]string{
		"USER":    inv.username,
		"LOGNAME": inv.username,
		"HOME":    inv.home,
	} {
		saved[name] = os.Getenv(name)
		os.Setenv(name, value)
	}
	return func() {
		for name, value := range saved {
			os.Setenv(name, value)
		}
	}
}

// captureStreams runs fn with os.Stdout and os.Stderr redirected into
// pipes and returns whatever the payload wrote to each.
func captureStreams(fn func() error) (stdout, stderr string, fnErr, err error) {
	outR, outW, err := os.Pipe()
	if err != nil {
		return "", "", nil, err
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return "", "", nil, err
	}

	oldStdout, oldStderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outW, errW

	outCh := make(chan string, 1)
	errCh := make(chan string, 1)
	go func() { outCh <- drain(outR) }()
	go func() { errCh <- drain(errR) }()

	fnErr = fn()

	os.Stdout, os.Stderr = oldStdout, oldStderr
	outW.Close()
	errW.Close()
	stdout = <-outCh
	stderr = <-errCh
	outR.Close()
	errR.Close()
	return stdout, stderr, fnErr, nil
}

func drain(r io.Reader) string {
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}
