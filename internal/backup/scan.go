package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// idTimeLayout is the timestamp prefix of a backup name, e.g.
// "20260501-120000-3f2a9c1d".
const idTimeLayout = "20060102-150405"

// Scan lists the backups below location. Backups are laid out as
// <location>/<source>/<backup>; the backup name starts with its creation
// time, falling back to the modification time when it does not. A missing
// location yields no entries.
func Scan(location string) ([]Entry, error) {
	sources, err := os.ReadDir(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup location: %w", err)
	}

	var entries []Entry
	for _, source := range sources {
		if !source.IsDir() {
			continue
		}
		backups, err := os.ReadDir(filepath.Join(location, source.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read backups of %s: %w", source.Name(), err)
		}
		for _, b := range backups {
			created, ok := parseCreated(b.Name())
			if !ok {
				info, err := b.Info()
				if err != nil {
					continue
				}
				created = info.ModTime()
			}
			entries = append(entries, Entry{
				ID:         source.Name() + "/" + b.Name(),
				SourcePath: source.Name(),
				CreatedAt:  created,
			})
		}
	}
	return entries, nil
}

func parseCreated(name string) (time.Time, bool) {
	if len(name) < len(idTimeLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(idTimeLayout, name[:len(idTimeLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
