package module

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/klauern/synkron/internal/backup"
	"github.com/klauern/synkron/internal/exceptions"
	"github.com/klauern/synkron/internal/logging"
	"github.com/klauern/synkron/internal/settings"
	"github.com/klauern/synkron/internal/settings/sqlite"
)

// OpenStore opens the store described by loc.
func OpenStore(loc settings.Location) (settings.Store, error) {
	if loc.Format == settings.FormatSQLite {
		return sqlite.Open(loc.Path)
	}
	return settings.OpenFile(loc.Path, loc.Format)
}

// Save writes the Module to its store in the order general, syncs,
// exceptions, restore, then flushes the store. The syncs group is cleared
// first so closed syncs disappear.
func (m *Module) Save() error {
	start := time.Now()
	steps := []struct {
		name string
		fn   func() error
	}{
		{GroupGeneral, m.saveGeneral},
		{GroupSyncs, m.saveSyncs},
		{exceptions.Group, func() error { return m.exceptions.Save(m.store) }},
		{backup.Group, func() error { return m.backup.Save(m.store) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("failed to save %s: %w", step.name, err)
		}
	}
	if err := m.store.Flush(); err != nil {
		return fmt.Errorf("failed to flush store: %w", err)
	}
	m.logger.Debug("module saved", logging.Count(len(m.syncs)), logging.Duration(time.Since(start)))
	return nil
}

func (m *Module) saveGeneral() error {
	m.store.BeginGroup(GroupGeneral)
	defer m.store.EndGroup()

	m.store.Remove("")
	for _, key := range slices.Sorted(maps.Keys(m.general)) {
		m.store.SetValue(key, m.general[key])
	}
	return nil
}

func (m *Module) saveSyncs() error {
	m.store.BeginGroup(GroupSyncs)
	defer m.store.EndGroup()

	m.store.Remove("")
	for id, s := range m.Syncs() {
		if err := s.Save(m.store); err != nil {
			return fmt.Errorf("sync %d: %w", id, err)
		}
	}
	return nil
}

// Load replaces the in-memory state with the store contents in the order
// general, exceptions, restore, syncs. Bundles are loaded before any sync
// is created so new syncs see them. Existing syncs are closed first.
func (m *Module) Load() error {
	for _, id := range slices.Sorted(maps.Keys(m.syncs)) {
		m.CloseSync(id)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{GroupGeneral, m.loadGeneral},
		{exceptions.Group, func() error { return m.exceptions.Load(m.store) }},
		{backup.Group, func() error { return m.backup.Load(m.store) }},
		{GroupSyncs, m.loadSyncs},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("failed to load %s: %w", step.name, err)
		}
	}
	m.logger.Debug("module loaded", logging.Count(len(m.syncs)))
	return nil
}

func (m *Module) loadGeneral() error {
	m.store.BeginGroup(GroupGeneral)
	defer m.store.EndGroup()

	general := make(map[string]any)
	readGroup(m.store, "", general)
	m.general = general
	return nil
}

// readGroup collects every key below the current group, nested keys
// joined with "/".
func readGroup(store settings.Store, prefix string, dst map[string]any) {
	for _, key := range store.AllKeys() {
		if v, ok := store.Value(key); ok {
			dst[prefix+key] = v
		}
	}
	for _, name := range store.ChildGroups() {
		store.BeginGroup(name)
		readGroup(store, prefix+name+"/", dst)
		store.EndGroup()
	}
}

func (m *Module) loadSyncs() error {
	m.store.BeginGroup(GroupSyncs)
	defer m.store.EndGroup()

	for _, name := range m.store.ChildGroups() {
		id, ok := settings.ParseID(name)
		if !ok {
			m.logger.Warn("skipping sync with invalid id", logging.GroupName(GroupSyncs+"/"+name))
			continue
		}
		s, err := m.AddSyncWithID(id)
		if err != nil {
			return err
		}
		if err := s.Load(m.store); err != nil {
			return fmt.Errorf("sync %d: %w", id, err)
		}
	}
	return nil
}
