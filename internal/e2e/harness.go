// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It runs the synkron CLI in-process against an isolated per-user config
// directory and captures what the commands print.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"

	"github.com/klauern/synkron/internal/cli"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, temp directories, and output capture.
type Harness struct {
	t       *testing.T
	homeDir string
	env     map[string]string
}

// NewHarness creates a new E2E test harness. SYNKRON_HOME and
// XDG_CONFIG_HOME point inside a fresh temp dir, so neither the CLI config
// nor the per-user settings store leak between tests.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	homeDir := t.TempDir()

	h := &Harness{
		t:       t,
		homeDir: homeDir,
		env:     make(map[string]string),
	}

	// xdg caches its directories; reload after the env is restored.
	t.Cleanup(xdg.Reload)
	h.SetEnv("SYNKRON_HOME", filepath.Join(homeDir, ".synkron"))
	h.SetEnv("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config"))
	xdg.Reload()

	return h
}

// SetEnv sets an environment variable for CLI commands run through this harness.
// The environment will be restored after the test completes.
func (h *Harness) SetEnv(key, value string) {
	h.t.Helper()
	h.env[key] = value
	h.t.Setenv(key, value)
}

// HomeDir returns the isolated home directory for this test harness.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// UserStorePath returns the path of the per-user store file name.
func (h *Harness) UserStorePath(name string) string {
	return filepath.Join(h.env["XDG_CONFIG_HOME"], "synkron", name)
}

// Run executes a CLI command with the given arguments and captures the output.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	if len(args) == 0 || args[0] != "synkron" {
		args = append([]string{"synkron"}, args...)
	}

	oldStdout := os.Stdout
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = stdoutW

	// Drain concurrently so output larger than the pipe buffer cannot block
	// the command.
	var stdoutBuf bytes.Buffer
	var copyErr error
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, copyErr = io.Copy(&stdoutBuf, stdoutR)
	}()

	cmdErr := cli.Run(context.Background(), args)

	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	os.Stdout = oldStdout

	<-copyDone
	if copyErr != nil {
		h.t.Fatalf("failed to read captured stdout: %v", copyErr)
	}
	_ = stdoutR.Close()

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}

// MustRun runs args and fails the test when the command errors.
func (h *Harness) MustRun(args ...string) *Result {
	h.t.Helper()
	r := h.Run(args...)
	AssertSuccess(h.t, r)
	return r
}
