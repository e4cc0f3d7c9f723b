package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// Organization names the vendor directory of the per-user default store.
	Organization = "synkron"
	// Application is the versioned base name of the store file.
	Application = "Synkron 2"
)

// Location is the resolved, immutable binding of a store to a file.
type Location struct {
	Path   string
	Format Format
	// Portable is true when the store sits next to the path hint rather
	// than in the per-user config directory.
	Portable bool
}

// StoreFileName returns the fixed store file name for a format, for example
// "Synkron 2.ini".
func StoreFileName(format Format) string {
	return Application + format.Ext()
}

// Locate resolves which store to bind to. If a store file with the fixed
// versioned name exists in the directory of pathHint (or in pathHint itself
// when it is a directory), that file is used. Otherwise the per-user store
// under the XDG config directory is used; its parent directory is created.
func Locate(pathHint string, format Format) (Location, error) {
	name := StoreFileName(format)

	if pathHint != "" {
		dir := filepath.Dir(pathHint)
		if info, err := os.Stat(pathHint); err == nil && info.IsDir() {
			dir = pathHint
		}
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				abs = candidate
			}
			return Location{Path: abs, Format: format, Portable: true}, nil
		}
	}

	path, err := xdg.ConfigFile(filepath.Join(Organization, name))
	if err != nil {
		return Location{}, fmt.Errorf("failed to resolve default store location: %w", err)
	}
	return Location{Path: path, Format: format}, nil
}
