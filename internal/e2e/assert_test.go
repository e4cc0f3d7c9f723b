package e2e

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAssertHelpers(t *testing.T) {
	r := &Result{Stdout: "Created sync 1", Err: nil, ExitCode: 0}

	AssertSuccess(t, r)
	AssertExitCode(t, r, 0)
	AssertOutputContains(t, r, "sync 1")
	AssertOutputNotContains(t, r, "sync 2")
}

func TestAssertErrorContains(t *testing.T) {
	r := &Result{Err: errors.New("sync not found: 4"), ExitCode: 1}

	AssertError(t, r)
	AssertExitCode(t, r, 1)
	AssertErrorContains(t, r, "not found")
}

func TestAssertFileContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Synkron 2.ini")
	if err := os.WriteFile(path, []byte("[general]\nlang = en\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	AssertFileExists(t, path)
	AssertFileContains(t, path, "lang = en")
	AssertFileNotExists(t, path+".bak")
}
