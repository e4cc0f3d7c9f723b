package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/klauern/synkron/internal/logging"
	"github.com/klauern/synkron/internal/settings"
	"github.com/klauern/synkron/internal/util"
)

func TestVersionVariables(t *testing.T) {
	// Version should be set (even if to "dev")
	if Version == "" {
		t.Error("Version should not be empty")
	}

	// Commit and BuildDate should have defaults
	if Commit == "" {
		t.Error("Commit should not be empty")
	}
	if BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}
}

// isolateStore points the per-user store and config directories at a fresh
// temp dir for the duration of the test.
func isolateStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	// Registered first so it runs after the env is restored.
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("SYNKRON_HOME", filepath.Join(dir, "home"))
	xdg.Reload()
	return dir
}

// runCLI runs the CLI with args and returns what it wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	runErr := Run(context.Background(), append([]string{"synkron"}, args...))

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close pipe writer: %v", err)
	}
	os.Stdout = old
	output := <-done
	if err := r.Close(); err != nil {
		t.Fatalf("failed to close pipe reader: %v", err)
	}
	return output, runErr
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("synkron %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestConfigureLogging(t *testing.T) {
	tests := map[string]struct {
		args      []string
		wantDebug bool
		wantInfo  bool
	}{
		"no flags uses configured warn level": {
			args:      []string{"version"},
			wantDebug: false,
			wantInfo:  false,
		},
		"verbose flag enables info level": {
			args:      []string{"--verbose", "version"},
			wantDebug: false,
			wantInfo:  true,
		},
		"debug flag enables debug level": {
			args:      []string{"--debug", "version"},
			wantDebug: true,
			wantInfo:  true,
		},
		"debug wins over verbose": {
			args:      []string{"--verbose", "--debug", "version"},
			wantDebug: true,
			wantInfo:  true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			isolateStore(t)

			oldStderr := os.Stderr
			devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
			if err != nil {
				t.Fatalf("failed to open %s: %v", os.DevNull, err)
			}
			os.Stderr = devNull
			t.Cleanup(func() {
				os.Stderr = oldStderr
				_ = devNull.Close()
			})

			logging.SetDefault(logging.New(logging.DefaultOptions()))
			mustRun(t, tt.args...)

			ctx := context.Background()
			logger := slog.Default()
			util.AssertEqual(t, logger.Enabled(ctx, slog.LevelDebug), tt.wantDebug)
			util.AssertEqual(t, logger.Enabled(ctx, slog.LevelInfo), tt.wantInfo)
		})
	}
}

func TestConfigureLoggingInvalidLevel(t *testing.T) {
	isolateStore(t)
	t.Setenv("SYNKRON_LOGGING_LEVEL", "loud")

	if _, err := runCLI(t, "version"); err == nil {
		t.Fatal("expected an error for an unknown log level")
	}
}

func TestSyncCommands(t *testing.T) {
	isolateStore(t)

	out := mustRun(t, "sync", "add", "--name", "Docs", "--sync-hidden")
	if !strings.Contains(out, "Created sync 1 (Docs)") {
		t.Errorf("sync add output = %q", out)
	}
	mustRun(t, "sync", "add")
	mustRun(t, "sync", "rm", "1")

	out = mustRun(t, "sync", "add", "--period", "15")
	if !strings.Contains(out, "Created sync 3") {
		t.Errorf("expected the next id after the highest in use, got %q", out)
	}

	mustRun(t, "sync", "folder", "add", "--label", "left", "2", "1", "/data/a")
	mustRun(t, "sync", "folder", "add", "--disabled", "2", "2", "/data/b")
	out = mustRun(t, "sync", "folder", "append", "3", "/data/c")
	if !strings.Contains(out, "Sync 3 folder 1") {
		t.Errorf("append output = %q", out)
	}
	out = mustRun(t, "sync", "folder", "append", "2", "/data/d")
	if !strings.Contains(out, "Sync 2 folder 3") {
		t.Errorf("append output = %q", out)
	}

	var syncs []syncOutput
	if err := json.Unmarshal([]byte(mustRun(t, "-o", "json", "sync", "list")), &syncs); err != nil {
		t.Fatalf("failed to parse sync list: %v", err)
	}
	if len(syncs) != 2 {
		t.Fatalf("got %d syncs, want 2: %+v", len(syncs), syncs)
	}
	util.AssertEqual(t, syncs[0].ID, 2)
	util.AssertEqual(t, syncs[1].ID, 3)
	util.AssertEqual(t, len(syncs[0].Folders), 3)
	util.AssertEqual(t, len(syncs[1].Folders), 1)
	util.AssertEqual(t, syncs[0].Folders[0].Label, "left")
	util.AssertEqual(t, syncs[0].Folders[1].Enabled, false)
	util.AssertEqual(t, syncs[1].Options.Periodical, true)
	util.AssertEqual(t, syncs[1].Options.PeriodMinutes, 15)

	mustRun(t, "sync", "folder", "rm", "2", "1")
	out = mustRun(t, "sync", "show", "2")
	if strings.Contains(out, "/data/a") || !strings.Contains(out, "/data/b") {
		t.Errorf("sync show output = %q", out)
	}
}

func TestSyncCommandErrors(t *testing.T) {
	isolateStore(t)
	mustRun(t, "sync", "add")

	tests := map[string][]string{
		"remove unknown sync":      {"sync", "rm", "9"},
		"show unknown sync":        {"sync", "show", "9"},
		"non-numeric id":           {"sync", "show", "abc"},
		"zero id":                  {"sync", "show", "0"},
		"missing folder path":      {"sync", "folder", "add", "1", "1"},
		"folder on unknown sync":   {"sync", "folder", "add", "9", "1", "/x"},
		"append on unknown sync":   {"sync", "folder", "append", "9", "/x"},
		"use unknown bundle":       {"sync", "use", "1", "4"},
		"missing bundle argument":  {"sync", "use", "1"},
		"unsupported output style": {"-o", "xml", "sync", "list"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := runCLI(t, args...); err == nil {
				t.Errorf("synkron %s: expected error", strings.Join(args, " "))
			}
		})
	}
}

func TestSettingsCommands(t *testing.T) {
	isolateStore(t)

	mustRun(t, "settings", "set", "language", "en")
	mustRun(t, "settings", "set", "recent", "a", "b")

	util.AssertEqual(t, strings.TrimSpace(mustRun(t, "settings", "get", "language")), "en")

	var all map[string]any
	if err := json.Unmarshal([]byte(mustRun(t, "-o", "json", "settings", "list")), &all); err != nil {
		t.Fatalf("failed to parse settings list: %v", err)
	}
	util.AssertEqual(t, all["language"], any("en"))
	recent, ok := all["recent"].([]any)
	if !ok || len(recent) != 2 {
		t.Errorf("recent = %#v, want a two-element list", all["recent"])
	}

	if _, err := runCLI(t, "settings", "get", "missing"); err == nil {
		t.Error("expected error for an unset key")
	}
	mustRun(t, "settings", "set", "window/width", "800")
	util.AssertEqual(t, strings.TrimSpace(mustRun(t, "settings", "get", "window/width")), "800")
	mustRun(t, "settings", "set", "tags", "", "x", "x")
	if err := json.Unmarshal([]byte(mustRun(t, "-o", "json", "settings", "list")), &all); err != nil {
		t.Fatalf("failed to parse settings list: %v", err)
	}
	if tags, ok := all["tags"].([]any); !ok || len(tags) != 3 || tags[0] != "" {
		t.Errorf("tags = %#v, want [\"\" x x]", all["tags"])
	}

	rejected := map[string]string{
		"comment prefix": "#theme",
		"group of a key": "language/variant",
		"key over group": "window",
		"empty segment":  "a//b",
	}
	for name, key := range rejected {
		t.Run(name, func(t *testing.T) {
			if _, err := runCLI(t, "settings", "set", key, "x"); err == nil {
				t.Errorf("settings set %q: expected error", key)
			}
		})
	}
	if _, err := runCLI(t, "settings", "set", "lonely"); err == nil {
		t.Error("expected error when no value is given")
	}
}

func TestExceptionsCommands(t *testing.T) {
	isolateStore(t)
	mustRun(t, "sync", "add")

	out := mustRun(t, "exceptions", "add", "-f", "*.o", "-f", "*.tmp", "--folder", "bin", "build")
	if !strings.Contains(out, "Created exception bundle 1 (build)") {
		t.Errorf("exceptions add output = %q", out)
	}
	mustRun(t, "sync", "use", "1", "1")
	mustRun(t, "exceptions", "edit", "--name", "objects", "1")

	var bundles []struct {
		ID      int      `json:"id"`
		Name    string   `json:"name"`
		Filters []string `json:"filters"`
		Folders []string `json:"folders"`
	}
	if err := json.Unmarshal([]byte(mustRun(t, "-o", "json", "exc", "ls")), &bundles); err != nil {
		t.Fatalf("failed to parse bundle list: %v", err)
	}
	if len(bundles) != 1 {
		t.Fatalf("got %d bundles, want 1", len(bundles))
	}
	util.AssertEqual(t, bundles[0].Name, "objects")
	util.AssertEqual(t, strings.Join(bundles[0].Filters, ","), "*.o,*.tmp")
	util.AssertEqual(t, strings.Join(bundles[0].Folders, ","), "bin")

	var syncs []syncOutput
	if err := json.Unmarshal([]byte(mustRun(t, "-o", "json", "sync", "list")), &syncs); err != nil {
		t.Fatalf("failed to parse sync list: %v", err)
	}
	util.AssertEqual(t, joinInts(syncs[0].Bundles), "1")

	mustRun(t, "exceptions", "rm", "1")
	if err := json.Unmarshal([]byte(mustRun(t, "-o", "json", "sync", "list")), &syncs); err != nil {
		t.Fatalf("failed to parse sync list: %v", err)
	}
	util.AssertEqual(t, len(syncs[0].Bundles), 0)

	if _, err := runCLI(t, "exceptions", "edit", "1"); err == nil {
		t.Error("expected error when editing a removed bundle")
	}
	if _, err := runCLI(t, "exceptions", "add", "-f", "[a-", "broken"); err == nil {
		t.Error("expected error for a malformed filter")
	}
	if _, err := runCLI(t, "exceptions", "add", "--folder", "../outside", "escape"); err == nil {
		t.Error("expected error for a folder outside the sync folder")
	}
}

func TestBackupCommands(t *testing.T) {
	dir := isolateStore(t)
	location := filepath.Join(dir, "backups")

	mustRun(t, "backup", "set", "--enabled", "--location", location, "--max-backups", "1")

	var policy policyOutput
	if err := json.Unmarshal([]byte(mustRun(t, "-o", "json", "backup", "show")), &policy); err != nil {
		t.Fatalf("failed to parse policy: %v", err)
	}
	util.AssertEqual(t, policy.Enabled, true)
	util.AssertEqual(t, policy.Location, location)
	util.AssertEqual(t, policy.MaxBackups, 1)

	util.WriteFile(t, filepath.Join(location, "docs", "20260101-000000", "a.txt"), "old")
	util.WriteFile(t, filepath.Join(location, "docs", "20260201-000000", "a.txt"), "new")

	out := mustRun(t, "backup", "prune")
	if !strings.Contains(out, "docs/20260101-000000") || strings.Contains(out, "docs/20260201-000000") {
		t.Errorf("backup prune output = %q", out)
	}

	if _, err := runCLI(t, "backup", "set", "--max-backups=-2"); err == nil {
		t.Error("expected error for a negative backup count")
	}
}

func TestStoreConvert(t *testing.T) {
	dir := isolateStore(t)
	portable := filepath.Join(dir, "portable")
	if err := os.MkdirAll(portable, 0o750); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	mustRun(t, "sync", "add", "--name", "Docs")
	mustRun(t, "settings", "set", "language", "de")

	out := mustRun(t, "store", "convert", "--to", "yaml", portable)
	if !strings.Contains(out, settings.StoreFileName(settings.FormatYAML)) {
		t.Errorf("store convert output = %q", out)
	}

	if _, err := runCLI(t, "store", "convert", "--to", "yaml", portable); err == nil {
		t.Error("expected error when the target exists without --force")
	}
	mustRun(t, "store", "convert", "--to", "yaml", "--force", portable)

	var syncs []syncOutput
	listing := mustRun(t, "--store", portable, "--format", "yaml", "-o", "json", "sync", "list")
	if err := json.Unmarshal([]byte(listing), &syncs); err != nil {
		t.Fatalf("failed to parse sync list: %v", err)
	}
	if len(syncs) != 1 {
		t.Fatalf("got %d syncs in the portable store, want 1", len(syncs))
	}
	util.AssertEqual(t, syncs[0].Name, "Docs")

	inferred := filepath.Join(dir, "settings.toml")
	mustRun(t, "store", "convert", inferred)
	data, err := os.ReadFile(inferred)
	if err != nil {
		t.Fatalf("converted store missing: %v", err)
	}
	if !strings.Contains(string(data), "[general]") || !strings.Contains(string(data), `language = "de"`) {
		t.Errorf("expected a TOML store from the .toml extension, got:\n%s", data)
	}
	if _, err := runCLI(t, "store", "convert", filepath.Join(dir, "settings.bin")); err == nil {
		t.Error("expected error when the format cannot be inferred")
	}
	if _, err := runCLI(t, "store", "convert", portable); err == nil {
		t.Error("expected error for a directory target without --to")
	}

	got := mustRun(t, "--store", portable, "--format", "yaml", "settings", "get", "language")
	util.AssertEqual(t, strings.TrimSpace(got), "de")

	out = mustRun(t, "--store", portable, "--format", "yaml", "config")
	if !strings.Contains(out, "location: portable") {
		t.Errorf("config output = %q", out)
	}
}

func TestStorePushNotConfigured(t *testing.T) {
	isolateStore(t)
	mustRun(t, "sync", "add")

	if _, err := runCLI(t, "store", "push"); err == nil {
		t.Error("expected error without a configured remote")
	}
}

func TestIntArg(t *testing.T) {
	tests := map[string]struct {
		args    []string
		want    int
		wantErr bool
	}{
		"positive":  {args: []string{"7"}, want: 7},
		"missing":   {args: nil, wantErr: true},
		"zero":      {args: []string{"0"}, wantErr: true},
		"negative":  {args: []string{"-3"}, wantErr: true},
		"non-digit": {args: []string{"seven"}, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var got int
			var gotErr error
			cmd := intArgCommand(func(id int, err error) { got, gotErr = id, err })
			if err := cmd.Run(context.Background(), append([]string{"intarg", "--"}, tt.args...)); err != nil {
				t.Fatalf("command failed: %v", err)
			}
			if (gotErr != nil) != tt.wantErr {
				t.Fatalf("intArg() error = %v, wantErr %v", gotErr, tt.wantErr)
			}
			util.AssertEqual(t, got, tt.want)
		})
	}
}

// intArgCommand returns a command that reports intArg for its first argument.
func intArgCommand(report func(int, error)) *cli.Command {
	return &cli.Command{
		Name: "intarg",
		Action: func(_ context.Context, cmd *cli.Command) error {
			report(intArg(cmd, 0, "id"))
			return nil
		},
	}
}
