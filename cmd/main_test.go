package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kdeploy/internal/config"
	"kdeploy/internal/hosts"
	"kdeploy/internal/kernel"
	"kdeploy/internal/runner"
	"kdeploy/internal/sshkey"
	"kdeploy/internal/waiter"
)

// chdir changes the working directory for the duration of the test,
// restoring the previous directory in a cleanup. It stands in for
// testing.T.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

// executeCommand is a helper function to execute a cobra command and capture its output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	// Capture Cobra's output
	cobraBuf := new(bytes.Buffer)
	root.SetOut(cobraBuf)
	root.SetErr(cobraBuf)
	root.SetArgs(args)

	// Redirect color library output to the same buffer
	originalColorOutput := color.Output
	color.Output = cobraBuf
	defer func() { color.Output = originalColorOutput }()

	// Capture direct stdout/stderr writes
	oldStdout := os.Stdout
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w

	_, err := root.ExecuteC()

	// Restore stdout/stderr and read from the pipe
	w.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr
	capturedBuf := new(bytes.Buffer)
	io.Copy(capturedBuf, r)

	return cobraBuf.String() + capturedBuf.String(), err
}

func TestMain(m *testing.M) {
	// Save original functions
	originalRunnerRun := runner.Run
	originalKernelResolve := kernel.Resolve
	originalSSHKeyGenerate := sshkey.Generate
	originalWaiterForPort := waiter.ForPort

	// Defer restoration of original functions
	defer func() {
		runner.Run = originalRunnerRun
		kernel.Resolve = originalKernelResolve
		sshkey.Generate = originalSSHKeyGenerate
		waiter.ForPort = originalWaiterForPort
	}()

	// Run tests
	os.Exit(m.Run())
}

// setupMocks points the app directory at a temporary home and resets all
// mocks to default successful behavior.
func setupMocks(t *testing.T) {
	t.Helper()

	t.Setenv("KDEPLOY_HOME", t.TempDir())
	resetFlags()

	runner.Run = func(req runner.Request, opts runner.Options) (*runner.Result, error) {
		return &runner.Result{}, nil
	}
	kernel.Resolve = func(srcRoot string) (string, error) {
		return "6.9.1-test", nil
	}
	sshkey.Generate = func(keyPath string) error {
		if err := os.MkdirAll(filepath.Dir(keyPath), 0755); err != nil {
			return err
		}
		return os.WriteFile(keyPath+".pub", []byte("ssh-rsa AAAA... test@example.com"), 0644)
	}
	waiter.ForPort = func(host string, port int, timeout time.Duration) error {
		return nil
	}
}

// resetFlags restores the package flag variables cobra leaves behind
// between executions.
func resetFlags() {
	buildJobs = 0

	deployHost = ""
	deploySkipBuild = false
	deployNoModules = false
	deployNoImage = false
	deployPrune = false
	deployKeep = -1
	deployNoInitramfs = false
	deployNoBootloader = false
	deployReboot = false
	deployWait = 0

	pruneHost = ""
	pruneKeep = -1
	kernelsHost = ""
	logFollow = false

	hostAddress = ""
	hostUser = "root"
	hostPort = 22
	hostArch = "x86_64"
	hostBootDir = ""
	hostModulesDir = ""
	hostInitramfsCmd = ""
	hostBootloaderCmd = ""
	hostDefault = false

	rebootHostName = ""
	rebootWait = 0
}

// makeKernelTree creates a directory that FindKernelRoot recognizes and
// chdirs into it for the duration of the test.
func makeKernelTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"Makefile", "Kbuild"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte{}, 0644); err != nil {
			t.Fatal(err)
		}
	}
	chdir(t, root)
	return root
}

// saveHost registers a deploy target in the temporary app directory.
func saveHost(t *testing.T, h *hosts.Host) {
	t.Helper()
	cfg, err := config.New()
	if err != nil {
		t.Fatal(err)
	}
	if err := hosts.Save(cfg, h); err != nil {
		t.Fatal(err)
	}
}

// writeSettings drops a config.yaml into the temporary app directory.
func writeSettings(t *testing.T, content string) {
	t.Helper()
	cfg, err := config.New()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(cfg.GetAppDir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.GetAppDir(), "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// recordCommands swaps the runner for one that records every request and
// returns canned results keyed by substring.
func recordCommands(t *testing.T, results map[string]*runner.Result, failOn string) *[]string {
	t.Helper()
	var commands []string
	runner.Run = func(req runner.Request, opts runner.Options) (*runner.Result, error) {
		subject := req.Command
		if req.Func != nil {
			subject = "Function"
		}
		commands = append(commands, subject)
		if failOn != "" && strings.Contains(subject, failOn) {
			return nil, &runner.ExecutionError{Subject: subject, Identity: "root", ExitCode: 2}
		}
		for key, res := range results {
			if strings.Contains(subject, key) {
				return res, nil
			}
		}
		return &runner.Result{}, nil
	}
	return &commands
}
