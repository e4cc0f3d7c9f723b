package e2e

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/synkron/internal/settings"
)

// Fixture provides helpers for creating test fixtures in E2E tests.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{
		t:       t,
		baseDir: baseDir,
	}
}

// WriteFile writes content to a file relative to the fixture base directory.
// It creates parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}

	return fullPath
}

// WriteStore writes a hand-authored store file with the fixed store file
// name for format, making the fixture directory a portable store location.
func (f *Fixture) WriteStore(format settings.Format, content string) string {
	f.t.Helper()
	return f.WriteFile(settings.StoreFileName(format), content)
}

// Path returns the full path for a relative path.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, relPath)
}

// Dir returns the fixture base directory.
func (f *Fixture) Dir() string {
	return f.baseDir
}

// Exists returns true if the file or directory exists.
func (f *Fixture) Exists(relPath string) bool {
	f.t.Helper()
	_, err := os.Stat(filepath.Join(f.baseDir, relPath))
	return err == nil
}

// PortableFixture creates a fixture for a directory that can be passed to
// --store as a portable store location.
func (h *Harness) PortableFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, h.t.TempDir())
}

// WriteConfig writes the CLI config file under SYNKRON_HOME.
func (h *Harness) WriteConfig(content string) string {
	h.t.Helper()
	return NewFixture(h.t, h.env["SYNKRON_HOME"]).WriteFile("config.yaml", content)
}
