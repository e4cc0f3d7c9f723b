// Package profile implements sync profiles: one addressable set of folders
// kept in sync, with its options and the exception bundles it applies.
package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/klauern/synkron/internal/backup"
	"github.com/klauern/synkron/internal/exceptions"
	"github.com/klauern/synkron/internal/logging"
	"github.com/klauern/synkron/internal/settings"
)

// ErrFolderNotFound is returned for operations on an unknown folder id.
var ErrFolderNotFound = errors.New("folder not found")

// Folder is one synchronized directory of a profile.
type Folder struct {
	ID      int
	Path    string
	Label   string
	Enabled bool
}

// Options control how a profile synchronizes its folders.
type Options struct {
	SyncHidden      bool `json:"sync_hidden" yaml:"sync_hidden"`
	SyncNoSubdirs   bool `json:"sync_nosubdirs" yaml:"sync_nosubdirs"`
	IgnoreBlacklist bool `json:"ignore_blacklist" yaml:"ignore_blacklist"`
	BackupFolders   bool `json:"backup_folders" yaml:"backup_folders"`
	UpdateOnly      bool `json:"update_only" yaml:"update_only"`
	Periodical      bool `json:"periodical" yaml:"periodical"`
	PeriodMinutes   int  `json:"period_minutes" yaml:"period_minutes"`
}

// DefaultOptions returns the options of a freshly created profile.
func DefaultOptions() Options {
	return Options{
		BackupFolders: true,
		PeriodMinutes: 60,
	}
}

// Profile is a sync profile. It owns its folders and holds non-owning
// references to the exception bundles of the shared registry.
type Profile struct {
	id      int
	Name    string
	Options Options

	folders map[int]*Folder
	// bundles mirrors the registry; active selects the ones applied.
	bundles map[int]*exceptions.Bundle
	active  map[int]bool

	policy *backup.Policy
	logger *slog.Logger
}

// New creates profile id. It takes references to every bundle currently in
// registry so that bundles loaded earlier are visible immediately; the
// caller subscribes the profile for later changes.
func New(id int, registry *exceptions.Registry, policy *backup.Policy, logger *slog.Logger) *Profile {
	if logger == nil {
		logger = logging.Default()
	}
	p := &Profile{
		id:      id,
		Name:    fmt.Sprintf("Sync #%d", id),
		Options: DefaultOptions(),
		folders: make(map[int]*Folder),
		bundles: make(map[int]*exceptions.Bundle),
		active:  make(map[int]bool),
		policy:  policy,
		logger:  logger.With(logging.SyncID(id)),
	}
	if registry != nil {
		for _, b := range registry.Bundles() {
			p.bundles[b.ID] = b
		}
	}
	return p
}

// ID returns the profile id.
func (p *Profile) ID() int {
	return p.id
}

// Policy returns the backup policy the profile was created with.
func (p *Profile) Policy() *backup.Policy {
	return p.policy
}

// AddFolder creates folder id, or returns it if it already exists.
func (p *Profile) AddFolder(id int) *Folder {
	if f, ok := p.folders[id]; ok {
		return f
	}
	f := &Folder{ID: id, Enabled: true}
	p.folders[id] = f
	p.logger.Debug("folder added", logging.FolderID(id))
	return f
}

// CloseFolder removes folder id. Unknown ids are ignored.
func (p *Profile) CloseFolder(id int) {
	if _, ok := p.folders[id]; !ok {
		return
	}
	delete(p.folders, id)
	p.logger.Debug("folder closed", logging.FolderID(id))
}

// NextFolderID returns one more than the largest folder id, or 1.
func (p *Profile) NextFolderID() int {
	next := 1
	for id := range p.folders {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// Folder returns folder id.
func (p *Profile) Folder(id int) (*Folder, bool) {
	f, ok := p.folders[id]
	return f, ok
}

// Folders returns the folders ordered by id.
func (p *Profile) Folders() []*Folder {
	out := make([]*Folder, 0, len(p.folders))
	for _, id := range slices.Sorted(maps.Keys(p.folders)) {
		out = append(out, p.folders[id])
	}
	return out
}

// BundleAdded records a reference to a new bundle.
func (p *Profile) BundleAdded(b *exceptions.Bundle) {
	p.bundles[b.ID] = b
}

// BundleChanged refreshes the reference to a changed bundle.
func (p *Profile) BundleChanged(b *exceptions.Bundle) {
	p.bundles[b.ID] = b
	if p.active[b.ID] {
		p.logger.Debug("active exception bundle changed", logging.BundleID(b.ID))
	}
}

// BundleRemoved drops the reference to a removed bundle.
func (p *Profile) BundleRemoved(id int) {
	delete(p.bundles, id)
	delete(p.active, id)
}

// Bundles returns every referenced bundle ordered by id.
func (p *Profile) Bundles() []*exceptions.Bundle {
	out := make([]*exceptions.Bundle, 0, len(p.bundles))
	for _, id := range slices.Sorted(maps.Keys(p.bundles)) {
		out = append(out, p.bundles[id])
	}
	return out
}

// UseBundle turns application of bundle id on or off.
func (p *Profile) UseBundle(id int, on bool) error {
	if _, ok := p.bundles[id]; !ok {
		return fmt.Errorf("%w: %d", exceptions.ErrBundleNotFound, id)
	}
	if on {
		p.active[id] = true
	} else {
		delete(p.active, id)
	}
	return nil
}

// ActiveBundles returns the applied bundles ordered by id.
func (p *Profile) ActiveBundles() []*exceptions.Bundle {
	var out []*exceptions.Bundle
	for _, id := range slices.Sorted(maps.Keys(p.active)) {
		if b, ok := p.bundles[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Excluded reports whether rel, a path relative to one of the profile's
// folders, is left out of synchronization.
func (p *Profile) Excluded(rel string) bool {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if !p.Options.SyncHidden {
		for _, seg := range strings.Split(rel, "/") {
			if len(seg) > 1 && strings.HasPrefix(seg, ".") && seg != ".." {
				return true
			}
		}
	}
	if p.Options.IgnoreBlacklist {
		return false
	}
	for _, b := range p.ActiveBundles() {
		if b.Match(rel) {
			return true
		}
	}
	return false
}

// Close releases the profile's references.
func (p *Profile) Close() {
	clear(p.bundles)
	clear(p.active)
	clear(p.folders)
}

// Store keys within the profile group.
const (
	keyName            = "name"
	keyBundles         = "bundles"
	keyFolders         = "folders"
	keyPath            = "path"
	keyLabel           = "label"
	keyEnabled         = "enabled"
	keySyncHidden      = "options/sync_hidden"
	keySyncNoSubdirs   = "options/sync_nosubdirs"
	keyIgnoreBlacklist = "options/ignore_blacklist"
	keyBackupFolders   = "options/backup_folders"
	keyUpdateOnly      = "options/update_only"
	keyPeriodical      = "options/periodical"
	keyPeriodMinutes   = "options/period_minutes"
)

// Save writes the profile into a group named by its id, relative to the
// current group of store.
func (p *Profile) Save(store settings.Store) error {
	store.BeginGroup(strconv.Itoa(p.id))
	defer store.EndGroup()

	store.SetValue(keyName, p.Name)

	store.SetValue(keySyncHidden, p.Options.SyncHidden)
	store.SetValue(keySyncNoSubdirs, p.Options.SyncNoSubdirs)
	store.SetValue(keyIgnoreBlacklist, p.Options.IgnoreBlacklist)
	store.SetValue(keyBackupFolders, p.Options.BackupFolders)
	store.SetValue(keyUpdateOnly, p.Options.UpdateOnly)
	store.SetValue(keyPeriodical, p.Options.Periodical)
	store.SetValue(keyPeriodMinutes, p.Options.PeriodMinutes)

	active := make([]string, 0, len(p.active))
	for _, id := range slices.Sorted(maps.Keys(p.active)) {
		active = append(active, strconv.Itoa(id))
	}
	store.SetValue(keyBundles, active)

	store.Remove(keyFolders)
	store.BeginGroup(keyFolders)
	for _, f := range p.Folders() {
		store.BeginGroup(strconv.Itoa(f.ID))
		store.SetValue(keyPath, f.Path)
		store.SetValue(keyLabel, f.Label)
		store.SetValue(keyEnabled, f.Enabled)
		store.EndGroup()
	}
	store.EndGroup()
	return nil
}

// Load reads the profile from the group named by its id, relative to the
// current group of store.
func (p *Profile) Load(store settings.Store) error {
	store.BeginGroup(strconv.Itoa(p.id))
	defer store.EndGroup()

	if v, ok := store.Value(keyName); ok {
		p.Name = settings.String(v)
	}

	o := &p.Options
	loadBool(store, keySyncHidden, &o.SyncHidden)
	loadBool(store, keySyncNoSubdirs, &o.SyncNoSubdirs)
	loadBool(store, keyIgnoreBlacklist, &o.IgnoreBlacklist)
	loadBool(store, keyBackupFolders, &o.BackupFolders)
	loadBool(store, keyUpdateOnly, &o.UpdateOnly)
	loadBool(store, keyPeriodical, &o.Periodical)
	if v, ok := store.Value(keyPeriodMinutes); ok {
		o.PeriodMinutes = settings.Int(v, o.PeriodMinutes)
	}

	clear(p.active)
	if v, ok := store.Value(keyBundles); ok {
		for _, s := range settings.Strings(v) {
			id, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				p.logger.Warn("dropping invalid exception bundle reference", slog.String("value", s))
				continue
			}
			if _, known := p.bundles[id]; !known {
				p.logger.Warn("dropping reference to unknown exception bundle", logging.BundleID(id))
				continue
			}
			p.active[id] = true
		}
	}

	store.BeginGroup(keyFolders)
	defer store.EndGroup()
	for _, name := range store.ChildGroups() {
		id, ok := settings.ParseID(name)
		if !ok {
			p.logger.Warn("skipping folder with invalid id", logging.GroupName(store.Group()+"/"+name))
			continue
		}
		f := p.AddFolder(id)
		store.BeginGroup(name)
		if v, ok := store.Value(keyPath); ok {
			f.Path = settings.String(v)
		}
		if v, ok := store.Value(keyLabel); ok {
			f.Label = settings.String(v)
		}
		loadBool(store, keyEnabled, &f.Enabled)
		store.EndGroup()
	}
	return nil
}

func loadBool(store settings.Store, key string, dst *bool) {
	if v, ok := store.Value(key); ok {
		*dst = settings.Bool(v, *dst)
	}
}
