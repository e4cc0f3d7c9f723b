// Package exceptions manages exception bundles: named groups of path
// exclusion rules shared by sync profiles.
package exceptions

import (
	"path"
	"slices"
	"strings"
)

// Bundle is a named group of exclusion rules.
type Bundle struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	// Filters are wildcard patterns matched against the base name of every
	// file and folder, for example "*.tmp" or "Thumbs.db".
	Filters []string `json:"filters" yaml:"filters"`
	// Folders are blacklisted folder paths relative to a sync folder.
	Folders []string `json:"folders" yaml:"folders"`
	// Files are blacklisted file paths relative to a sync folder.
	Files []string `json:"files" yaml:"files"`
}

// Clone returns a deep copy of the bundle.
func (b *Bundle) Clone() *Bundle {
	return &Bundle{
		ID:      b.ID,
		Name:    b.Name,
		Filters: slices.Clone(b.Filters),
		Folders: slices.Clone(b.Folders),
		Files:   slices.Clone(b.Files),
	}
}

// Match reports whether rel, a slash separated path relative to a sync
// folder, is excluded by the bundle.
func (b *Bundle) Match(rel string) bool {
	rel = cleanRel(rel)
	if rel == "" {
		return false
	}

	for _, f := range b.Files {
		if cleanRel(f) == rel {
			return true
		}
	}
	for _, d := range b.Folders {
		d = cleanRel(d)
		if d != "" && (rel == d || strings.HasPrefix(rel, d+"/")) {
			return true
		}
	}
	for _, seg := range strings.Split(rel, "/") {
		for _, pattern := range b.Filters {
			if ok, err := path.Match(pattern, seg); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func cleanRel(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}
