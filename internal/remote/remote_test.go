package remote

import (
	"errors"
	"testing"

	"github.com/klauern/synkron/internal/logging"
	"github.com/klauern/synkron/internal/util"
)

func TestConfigValidate(t *testing.T) {
	tests := map[string]struct {
		cfg     Config
		wantErr bool
	}{
		"complete":       {cfg: Config{Endpoint: "s3.example.com", Bucket: "prefs"}, wantErr: false},
		"missing bucket": {cfg: Config{Endpoint: "s3.example.com"}, wantErr: true},
		"empty":          {cfg: Config{}, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrNotConfigured) {
				t.Errorf("error %v is not ErrNotConfigured", err)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	util.AssertEqual(t, Config{}.ObjectName("/home/me/.config/synkron/Synkron 2.ini"), "Synkron 2.ini")
	util.AssertEqual(t, Config{Object: "team/prefs.ini"}.ObjectName("/x/Synkron 2.ini"), "team/prefs.ini")
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a/Synkron 2.yaml": "application/yaml",
		"a/Synkron 2.toml": "application/toml",
		"a/Synkron 2.db":   "application/vnd.sqlite3",
		"a/Synkron 2.ini":  "text/plain",
	}
	for path, want := range tests {
		util.AssertEqual(t, contentType(path), want)
	}
}

func TestNew(t *testing.T) {
	m, err := New(Config{Endpoint: "localhost:9000", Bucket: "prefs"}, logging.Discard())
	util.AssertNoError(t, err)
	if m.client == nil {
		t.Error("client not initialized")
	}

	if _, err := New(Config{Bucket: "prefs"}, nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("New without endpoint: error = %v", err)
	}
	if _, err := New(Config{Endpoint: "https://s3.example.com/path", Bucket: "prefs"}, nil); err == nil {
		t.Error("New accepted an endpoint with a scheme and path")
	}
}
