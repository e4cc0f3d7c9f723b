package logging_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/klauern/synkron/internal/logging"
)

func newBuffered(opts logging.Options) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	opts.Output = &buf
	return logging.New(opts), &buf
}

// restoreDefault puts the default logger back after a test replaces it.
func restoreDefault(t *testing.T) {
	t.Helper()
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })
}

func TestNewOutputFormats(t *testing.T) {
	tests := map[string]struct {
		json  bool
		check func(t *testing.T, out string)
	}{
		"text": {
			check: func(t *testing.T, out string) {
				for _, want := range []string{"msg=\"sync added\"", "sync_id=3", "format=ini"} {
					if !strings.Contains(out, want) {
						t.Errorf("expected %q in %q", want, out)
					}
				}
			},
		},
		"json": {
			json: true,
			check: func(t *testing.T, out string) {
				var entry map[string]any
				if err := json.Unmarshal([]byte(out), &entry); err != nil {
					t.Fatalf("failed to parse JSON output %q: %v", out, err)
				}
				if entry["msg"] != "sync added" {
					t.Errorf("msg = %v", entry["msg"])
				}
				if entry[logging.KeySyncID] != float64(3) {
					t.Errorf("sync_id = %v", entry[logging.KeySyncID])
				}
				if entry[logging.KeyFormat] != "ini" {
					t.Errorf("format = %v", entry[logging.KeyFormat])
				}
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			logger, buf := newBuffered(logging.Options{Level: logging.LevelInfo, JSON: tt.json})
			logger.Info("sync added", logging.SyncID(3), logging.Format("ini"))
			tt.check(t, buf.String())
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBuffered(logging.Options{Level: logging.LevelWarn})

	logger.Debug("store opened")
	logger.Info("settings saved")
	logger.Warn("skipping sync group with invalid id", logging.GroupName("syncs/abc"))

	out := buf.String()
	if strings.Contains(out, "store opened") || strings.Contains(out, "settings saved") {
		t.Errorf("records below warn leaked: %q", out)
	}
	if !strings.Contains(out, "group=syncs/abc") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestNewDefaults(t *testing.T) {
	opts := logging.DefaultOptions()
	if opts.Level != logging.LevelInfo || opts.JSON || opts.AddSource {
		t.Errorf("unexpected defaults: %+v", opts)
	}

	// A nil Output falls back to stderr rather than panicking.
	logging.New(logging.Options{Level: logging.LevelError}).Debug("dropped")
}

func TestAddSource(t *testing.T) {
	logger, buf := newBuffered(logging.Options{Level: logging.LevelDebug, AddSource: true})
	logger.Debug("with source")

	if !strings.Contains(buf.String(), "logger_test.go") {
		t.Errorf("expected source location in %q", buf.String())
	}
}

func TestAttributeHelpers(t *testing.T) {
	tests := map[string]struct {
		attr slog.Attr
		key  string
		want string
	}{
		"sync id":   {attr: logging.SyncID(7), key: logging.KeySyncID, want: "7"},
		"folder id": {attr: logging.FolderID(2), key: logging.KeyFolderID, want: "2"},
		"bundle id": {attr: logging.BundleID(5), key: logging.KeyBundleID, want: "5"},
		"group":     {attr: logging.GroupName("exceptions/5"), key: logging.KeyGroup, want: "exceptions/5"},
		"path":      {attr: logging.Path("/tmp/Synkron 2.ini"), key: logging.KeyPath, want: "/tmp/Synkron 2.ini"},
		"format":    {attr: logging.Format("toml"), key: logging.KeyFormat, want: "toml"},
		"operation": {attr: logging.Operation("synkron sync add"), key: logging.KeyOperation, want: "synkron sync add"},
		"count":     {attr: logging.Count(4), key: logging.KeyCount, want: "4"},
		"duration":  {attr: logging.Duration(1500 * time.Millisecond), key: logging.KeyDuration, want: "1.5s"},
		"error":     {attr: logging.Err(errors.New("disk full")), key: logging.KeyError, want: "disk full"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.key)
			}
			if got := tt.attr.Value.String(); got != tt.want {
				t.Errorf("value = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrNil(t *testing.T) {
	attr := logging.Err(nil)
	if !attr.Equal(slog.Attr{}) {
		t.Errorf("expected empty attr for nil error, got %v", attr)
	}

	// An empty attr is dropped by the handler.
	logger, buf := newBuffered(logging.Options{Level: logging.LevelInfo})
	logger.Info("saved", attr)
	if strings.Contains(buf.String(), logging.KeyError) {
		t.Errorf("nil error should not be logged: %q", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	restoreDefault(t)

	if logging.WithContext(logging.NewContext(context.Background(), nil)) == nil {
		t.Fatal("a nil context logger must fall back to the default")
	}

	fallback, fallbackBuf := newBuffered(logging.Options{Level: logging.LevelInfo})
	logging.SetDefault(fallback)
	logging.WithContext(context.Background()).Info("from default")
	if !strings.Contains(fallbackBuf.String(), "from default") {
		t.Errorf("expected the default logger without a context logger")
	}

	scoped, scopedBuf := newBuffered(logging.Options{Level: logging.LevelInfo})
	ctx := logging.NewContext(context.Background(), scoped)
	logging.WithContext(ctx).With(logging.Operation("synkron backup set")).Info("from context")

	if !strings.Contains(scopedBuf.String(), `operation="synkron backup set"`) {
		t.Errorf("expected the context logger, got %q", scopedBuf.String())
	}
	if strings.Contains(fallbackBuf.String(), "from context") {
		t.Error("context record reached the default logger")
	}
}

func TestPackageLevelLogging(t *testing.T) {
	restoreDefault(t)

	logger, buf := newBuffered(logging.Options{Level: logging.LevelDebug})
	logging.SetDefault(logger)

	logging.Debug("store located", logging.Path("/cfg/Synkron 2.ini"))
	logging.Info("store converted", logging.Format("yaml"))

	out := buf.String()
	for _, want := range []string{"store located", "store converted", "format=yaml"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
	if slog.Default() != logger {
		t.Error("SetDefault should also replace slog's default")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		"debug":        {in: "debug", want: slog.LevelDebug},
		"upper case":   {in: "INFO", want: slog.LevelInfo},
		"padded":       {in: " warn ", want: slog.LevelWarn},
		"error":        {in: "error", want: slog.LevelError},
		"offset level": {in: "info+2", want: slog.LevelInfo + 2},
		"unknown":      {in: "loud", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	logger := logging.Discard()
	for _, level := range []slog.Level{logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError} {
		if logger.Enabled(context.Background(), level) {
			t.Errorf("Discard logger enabled at %v", level)
		}
	}
}
