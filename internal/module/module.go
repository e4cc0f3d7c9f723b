// Package module implements the configuration orchestrator. A Module owns
// the generic settings map, the sync profiles, the exception registry and
// the backup policy, and round-trips all of them through a settings.Store.
package module

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/klauern/synkron/internal/backup"
	"github.com/klauern/synkron/internal/exceptions"
	"github.com/klauern/synkron/internal/logging"
	"github.com/klauern/synkron/internal/profile"
	"github.com/klauern/synkron/internal/settings"
)

// Store groups owned by the Module itself.
const (
	GroupGeneral = "general"
	GroupSyncs   = "syncs"
)

var (
	// ErrSyncNotFound is returned for operations on an unknown sync id.
	ErrSyncNotFound = errors.New("sync not found")
	// ErrDuplicateSync is returned when creating a sync under a taken id.
	ErrDuplicateSync = errors.New("sync already exists")
	// ErrInvalidSyncID is returned for ids that are not positive.
	ErrInvalidSyncID = errors.New("invalid sync id")
)

// Sync is the contract a sync configuration fulfils towards the Module.
// Every live Sync is subscribed to the exception registry.
type Sync interface {
	exceptions.Subscriber

	ID() int
	AddFolder(id int) *profile.Folder
	CloseFolder(id int)
	// Save and Load operate on a group named by the sync id, relative to
	// the current group of store.
	Save(store settings.Store) error
	Load(store settings.Store) error
	Close()
}

// SyncFactory creates the Sync for id. The registry already holds every
// loaded bundle when the factory runs.
type SyncFactory func(id int, registry *exceptions.Registry, policy *backup.Policy, logger *slog.Logger) Sync

func newProfile(id int, registry *exceptions.Registry, policy *backup.Policy, logger *slog.Logger) Sync {
	return profile.New(id, registry, policy, logger)
}

type options struct {
	logger  *slog.Logger
	factory SyncFactory
	format  settings.Format
}

// Option configures New and Open.
type Option func(*options)

// WithLogger sets the logger used by the Module and everything it creates.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSyncFactory replaces the constructor of sync configurations.
func WithSyncFactory(f SyncFactory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithFormat selects the store format Open looks for. The default is INI.
func WithFormat(f settings.Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// Module is the configuration orchestrator. It is not safe for concurrent
// use.
type Module struct {
	store    settings.Store
	location settings.Location

	general    map[string]any
	syncs      map[int]Sync
	exceptions *exceptions.Registry
	backup     *backup.Policy

	newSync SyncFactory
	logger  *slog.Logger
}

// New binds a Module to store and loads its state.
func New(store settings.Store, opts ...Option) (*Module, error) {
	o := options{
		logger:  logging.Default(),
		factory: newProfile,
		format:  settings.FormatINI,
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Module{
		store:      store,
		general:    make(map[string]any),
		syncs:      make(map[int]Sync),
		exceptions: exceptions.NewRegistry(o.logger),
		backup:     backup.DefaultPolicy(),
		newSync:    o.factory,
		logger:     o.logger,
	}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Open resolves the store for pathHint with settings.Locate, opens it and
// returns a loaded Module bound to it. The binding is fixed for the
// lifetime of the Module.
func Open(pathHint string, opts ...Option) (*Module, error) {
	o := options{format: settings.FormatINI}
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := settings.Locate(pathHint, o.format)
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(loc)
	if err != nil {
		return nil, err
	}

	m, err := New(store, opts...)
	if err != nil {
		if c, ok := store.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, fmt.Errorf("failed to load %s: %w", loc.Path, err)
	}
	m.location = loc
	m.logger.Debug("store bound", logging.Path(loc.Path), logging.Format(string(loc.Format)),
		slog.Bool("portable", loc.Portable))
	return m, nil
}

// Location returns the store binding resolved by Open. It is zero for a
// Module created with New.
func (m *Module) Location() settings.Location {
	return m.location
}

// Store returns the bound store.
func (m *Module) Store() settings.Store {
	return m.store
}

// Close closes every sync and releases the store.
func (m *Module) Close() error {
	for _, id := range slices.Sorted(maps.Keys(m.syncs)) {
		m.CloseSync(id)
	}
	if c, ok := m.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Value returns the generic setting key.
func (m *Module) Value(key string) (any, bool) {
	v, ok := m.general[key]
	return v, ok
}

// SetValue sets the generic setting key. Nothing is written until Save.
// Keys may use "/" to nest groups, but a key cannot also be the group of
// another key, and must pass settings.CheckKey.
func (m *Module) SetValue(key string, value any) error {
	if err := settings.CheckKey(key); err != nil {
		return err
	}
	for k := range m.general {
		if strings.HasPrefix(k, key+"/") || strings.HasPrefix(key, k+"/") {
			return fmt.Errorf("%w: %s and %s", settings.ErrKeyCollision, key, k)
		}
	}
	m.general[key] = settings.Normalize(value)
	return nil
}

// Keys returns the generic setting keys, sorted.
func (m *Module) Keys() []string {
	return slices.Sorted(maps.Keys(m.general))
}

// Exceptions returns the exception registry.
func (m *Module) Exceptions() *exceptions.Registry {
	return m.exceptions
}

// Backup returns the backup policy.
func (m *Module) Backup() *backup.Policy {
	return m.backup
}

// nextSyncID starts at 1 and, whenever an existing id is at least the
// candidate, moves past it and rescans. It converges to max+1; freed ids
// below the maximum are never handed out again.
func (m *Module) nextSyncID() int {
	ids := slices.Sorted(maps.Keys(m.syncs))
	candidate := 1
	for rescan := true; rescan; {
		rescan = false
		for _, id := range ids {
			if id >= candidate {
				candidate = id + 1
				rescan = true
				break
			}
		}
	}
	return candidate
}

// AddSync creates a sync under a newly allocated id.
func (m *Module) AddSync() (Sync, error) {
	return m.AddSyncWithID(m.nextSyncID())
}

// AddSyncWithID creates a sync under id. An id that is already in use is
// rejected with ErrDuplicateSync.
func (m *Module) AddSyncWithID(id int) (Sync, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSyncID, id)
	}
	if _, exists := m.syncs[id]; exists {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateSync, id)
	}

	s := m.newSync(id, m.exceptions, m.backup, m.logger)
	m.syncs[id] = s
	m.exceptions.Subscribe(s)
	m.logger.Debug("sync added", logging.SyncID(id))
	return s, nil
}

// CloseSync unsubscribes, closes and removes sync id. Unknown ids are
// ignored.
func (m *Module) CloseSync(id int) {
	s, ok := m.syncs[id]
	if !ok {
		return
	}
	m.exceptions.Unsubscribe(s)
	delete(m.syncs, id)
	s.Close()
	m.logger.Debug("sync closed", logging.SyncID(id))
}

// Sync returns sync id.
func (m *Module) Sync(id int) (Sync, bool) {
	s, ok := m.syncs[id]
	return s, ok
}

// Len returns the number of syncs.
func (m *Module) Len() int {
	return len(m.syncs)
}

// Syncs returns the syncs in ascending id order. The set is captured when
// Syncs is called; the sequence may be ranged over more than once.
func (m *Module) Syncs() iter.Seq2[int, Sync] {
	ids := slices.Sorted(maps.Keys(m.syncs))
	snapshot := make([]Sync, len(ids))
	for i, id := range ids {
		snapshot[i] = m.syncs[id]
	}
	return func(yield func(int, Sync) bool) {
		for i, id := range ids {
			if !yield(id, snapshot[i]) {
				return
			}
		}
	}
}

// AddSyncFolder adds folderID to sync syncID.
func (m *Module) AddSyncFolder(syncID, folderID int) (*profile.Folder, error) {
	s, ok := m.syncs[syncID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrSyncNotFound, syncID)
	}
	return s.AddFolder(folderID), nil
}

// CloseSyncFolder removes folderID from sync syncID.
func (m *Module) CloseSyncFolder(syncID, folderID int) error {
	s, ok := m.syncs[syncID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrSyncNotFound, syncID)
	}
	s.CloseFolder(folderID)
	return nil
}
