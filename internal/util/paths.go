package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// appDir is the directory name used under the XDG base directories.
const appDir = "synkron"

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// ConfigPath returns the synkron config directory. SYNKRON_HOME overrides it.
func ConfigPath() string {
	if v := os.Getenv("SYNKRON_HOME"); v != "" {
		return v
	}
	return filepath.Join(xdg.ConfigHome, appDir)
}

// DataPath returns the synkron data directory. SYNKRON_HOME overrides it.
func DataPath() string {
	if v := os.Getenv("SYNKRON_HOME"); v != "" {
		return filepath.Join(v, "data")
	}
	return filepath.Join(xdg.DataHome, appDir)
}

// BackupsPath returns the default directory for backups
func BackupsPath() string {
	return filepath.Join(DataPath(), "backups")
}

// ExpandPath expands a leading ~ to the home directory and resolves relative
// paths against baseDir. An empty path stays empty.
func ExpandPath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(HomeDir(), path[2:])
	}
	if filepath.IsAbs(path) || baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}
