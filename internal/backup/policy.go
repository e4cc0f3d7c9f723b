// Package backup holds the backup and restore policy shared by every sync
// profile. The policy decides whether files are backed up before they are
// overwritten, where backups go, and how long they are kept.
package backup

import (
	"errors"
	"fmt"
	"time"

	"github.com/klauern/synkron/internal/settings"
	"github.com/klauern/synkron/internal/util"
)

// Group is the store group holding the policy.
const Group = "restore"

// Store keys within Group.
const (
	keyEnabled        = "enabled"
	keyLocation       = "location"
	keyMaxBackups     = "max_backups"
	keyMaxAge         = "max_age"
	keyKeepAtLeastOne = "keep_at_least_one"
	keyCleanFolder    = "restore_clean_folder"
)

// ErrInvalidPolicy is returned by Validate.
var ErrInvalidPolicy = errors.New("invalid backup policy")

// Policy configures backup and restore behavior.
type Policy struct {
	// Enabled backs files up before a sync overwrites or deletes them.
	Enabled bool
	// Location is the directory backups are written to.
	Location string
	// MaxBackups limits the number of backups kept per source (0 = unlimited).
	MaxBackups int
	// MaxAge is the maximum age of backups to keep (0 = unlimited).
	MaxAge time.Duration
	// KeepAtLeastOne keeps the newest backup of a source even when it
	// exceeds MaxAge.
	KeepAtLeastOne bool
	// RestoreCleanFolder empties a folder before restoring into it.
	RestoreCleanFolder bool
}

// DefaultPolicy returns sensible defaults for backups.
func DefaultPolicy() *Policy {
	return &Policy{
		Enabled:        true,
		Location:       util.BackupsPath(),
		MaxBackups:     10,                  // Keep last 10 backups per source
		MaxAge:         30 * 24 * time.Hour, // Keep backups for 30 days
		KeepAtLeastOne: true,
	}
}

// Validate checks the policy for impossible values.
func (p *Policy) Validate() error {
	if p.MaxBackups < 0 {
		return fmt.Errorf("%w: max backups must not be negative", ErrInvalidPolicy)
	}
	if p.MaxAge < 0 {
		return fmt.Errorf("%w: max age must not be negative", ErrInvalidPolicy)
	}
	if p.Enabled && p.Location == "" {
		return fmt.Errorf("%w: location is required when backups are enabled", ErrInvalidPolicy)
	}
	return nil
}

// Save writes the policy into its group.
func (p *Policy) Save(store settings.Store) error {
	store.BeginGroup(Group)
	defer store.EndGroup()

	store.SetValue(keyEnabled, p.Enabled)
	store.SetValue(keyLocation, p.Location)
	store.SetValue(keyMaxBackups, p.MaxBackups)
	store.SetValue(keyMaxAge, p.MaxAge.String())
	store.SetValue(keyKeepAtLeastOne, p.KeepAtLeastOne)
	store.SetValue(keyCleanFolder, p.RestoreCleanFolder)
	return nil
}

// Load reads the policy from its group. Keys that are missing keep their
// current value.
func (p *Policy) Load(store settings.Store) error {
	store.BeginGroup(Group)
	defer store.EndGroup()

	if v, ok := store.Value(keyEnabled); ok {
		p.Enabled = settings.Bool(v, p.Enabled)
	}
	if v, ok := store.Value(keyLocation); ok {
		p.Location = settings.String(v)
	}
	if v, ok := store.Value(keyMaxBackups); ok {
		p.MaxBackups = settings.Int(v, p.MaxBackups)
	}
	if v, ok := store.Value(keyMaxAge); ok {
		d, err := time.ParseDuration(settings.String(v))
		if err != nil {
			return fmt.Errorf("invalid %s/%s: %w", Group, keyMaxAge, err)
		}
		p.MaxAge = d
	}
	if v, ok := store.Value(keyKeepAtLeastOne); ok {
		p.KeepAtLeastOne = settings.Bool(v, p.KeepAtLeastOne)
	}
	if v, ok := store.Value(keyCleanFolder); ok {
		p.RestoreCleanFolder = settings.Bool(v, p.RestoreCleanFolder)
	}
	return nil
}
