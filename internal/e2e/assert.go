package e2e

import (
	"os"
	"strings"
	"testing"
)

// AssertSuccess stops the test if the command failed.
func AssertSuccess(t *testing.T, r *Result) {
	t.Helper()
	if r.Err != nil {
		t.Fatalf("command failed: %v\nstdout:\n%s", r.Err, r.Stdout)
	}
}

// AssertError stops the test if the command succeeded.
func AssertError(t *testing.T, r *Result) {
	t.Helper()
	if r.Err == nil {
		t.Fatalf("command succeeded, want failure\nstdout:\n%s", r.Stdout)
	}
}

// AssertErrorContains stops the test unless the command failed with an
// error mentioning substr.
func AssertErrorContains(t *testing.T, r *Result, substr string) {
	t.Helper()
	AssertError(t, r)
	if !strings.Contains(r.Err.Error(), substr) {
		t.Errorf("error %q does not mention %q", r.Err, substr)
	}
}

// AssertExitCode checks the exit code main would have used.
func AssertExitCode(t *testing.T, r *Result, want int) {
	t.Helper()
	if r.ExitCode != want {
		t.Errorf("exit code = %d, want %d (error: %v)", r.ExitCode, want, r.Err)
	}
}

// AssertOutputContains checks stdout for substr.
func AssertOutputContains(t *testing.T, r *Result, substr string) {
	t.Helper()
	if !strings.Contains(r.Stdout, substr) {
		t.Errorf("stdout does not contain %q:\n%s", substr, r.Stdout)
	}
}

// AssertOutputNotContains checks stdout does not mention substr.
func AssertOutputNotContains(t *testing.T, r *Result, substr string) {
	t.Helper()
	if strings.Contains(r.Stdout, substr) {
		t.Errorf("stdout unexpectedly contains %q:\n%s", substr, r.Stdout)
	}
}

// AssertFileExists checks that path exists.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

// AssertFileNotExists checks that nothing exists at path.
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected %s to be absent", path)
	}
}

// AssertFileContains checks that the file at path mentions substr.
func AssertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	// #nosec G304 - path is provided by test code
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("%s does not contain %q:\n%s", path, substr, data)
	}
}
