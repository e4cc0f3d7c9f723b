package exceptions

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/klauern/synkron/internal/logging"
	"github.com/klauern/synkron/internal/settings"
)

// Group is the store group holding every bundle.
const Group = "exceptions"

var (
	// ErrBundleNotFound is returned for operations on an unknown bundle id.
	ErrBundleNotFound = errors.New("exception bundle not found")
	// ErrDuplicateBundle is returned when adding a bundle whose id is taken.
	ErrDuplicateBundle = errors.New("exception bundle already exists")
)

// Subscriber receives bundle lifecycle events. Handlers run inline inside
// the registry call that triggered them and must not re-enter the registry
// with further mutations of the same bundle.
type Subscriber interface {
	BundleAdded(b *Bundle)
	BundleChanged(b *Bundle)
	BundleRemoved(id int)
}

// Registry owns the exception bundles and broadcasts their changes to
// every subscriber, synchronously and in subscription order.
type Registry struct {
	bundles     map[int]*Bundle
	subscribers []Subscriber
	logger      *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		bundles: make(map[int]*Bundle),
		logger:  logger,
	}
}

// Subscribe registers s for all future events.
func (r *Registry) Subscribe(s Subscriber) {
	r.subscribers = append(r.subscribers, s)
}

// Unsubscribe removes s. Unknown subscribers are ignored.
func (r *Registry) Unsubscribe(s Subscriber) {
	if i := slices.Index(r.subscribers, s); i >= 0 {
		r.subscribers = slices.Delete(r.subscribers, i, i+1)
	}
}

// Subscribers returns the number of current subscribers.
func (r *Registry) Subscribers() int {
	return len(r.subscribers)
}

// NextID returns one more than the largest bundle id, or 1 when empty.
func (r *Registry) NextID() int {
	next := 1
	for id := range r.bundles {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// AddBundle inserts b and notifies subscribers. A zero id is replaced with
// NextID.
func (r *Registry) AddBundle(b *Bundle) error {
	if b.ID == 0 {
		b.ID = r.NextID()
	}
	if b.ID < 0 {
		return fmt.Errorf("invalid bundle id %d", b.ID)
	}
	if _, exists := r.bundles[b.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateBundle, b.ID)
	}
	r.bundles[b.ID] = b
	r.logger.Debug("exception bundle added", logging.BundleID(b.ID), slog.String("name", b.Name))

	for _, s := range slices.Clone(r.subscribers) {
		s.BundleAdded(b)
	}
	return nil
}

// ChangeBundle announces that b changed. If b is not the registered
// instance, it replaces it.
func (r *Registry) ChangeBundle(b *Bundle) error {
	if _, exists := r.bundles[b.ID]; !exists {
		return fmt.Errorf("%w: %d", ErrBundleNotFound, b.ID)
	}
	r.bundles[b.ID] = b
	r.logger.Debug("exception bundle changed", logging.BundleID(b.ID))

	for _, s := range slices.Clone(r.subscribers) {
		s.BundleChanged(b)
	}
	return nil
}

// RemoveBundle removes the bundle with the given id and notifies subscribers.
func (r *Registry) RemoveBundle(id int) error {
	if _, exists := r.bundles[id]; !exists {
		return fmt.Errorf("%w: %d", ErrBundleNotFound, id)
	}
	delete(r.bundles, id)
	r.logger.Debug("exception bundle removed", logging.BundleID(id))

	for _, s := range slices.Clone(r.subscribers) {
		s.BundleRemoved(id)
	}
	return nil
}

// Bundle returns the bundle with the given id.
func (r *Registry) Bundle(id int) (*Bundle, bool) {
	b, ok := r.bundles[id]
	return b, ok
}

// Bundles returns every bundle ordered by id.
func (r *Registry) Bundles() []*Bundle {
	out := make([]*Bundle, 0, len(r.bundles))
	for _, id := range slices.Sorted(maps.Keys(r.bundles)) {
		out = append(out, r.bundles[id])
	}
	return out
}

// Len returns the number of bundles.
func (r *Registry) Len() int {
	return len(r.bundles)
}

// Save rewrites the exceptions group from the current bundles.
func (r *Registry) Save(store settings.Store) error {
	store.BeginGroup(Group)
	defer store.EndGroup()

	store.Remove("")
	for _, b := range r.Bundles() {
		store.BeginGroup(strconv.Itoa(b.ID))
		store.SetValue("name", b.Name)
		store.SetValue("filters", nonNil(b.Filters))
		store.SetValue("folders", nonNil(b.Folders))
		store.SetValue("files", nonNil(b.Files))
		store.EndGroup()
	}
	return nil
}

// Load replaces the bundles with those in the exceptions group. No events
// are emitted.
func (r *Registry) Load(store settings.Store) error {
	store.BeginGroup(Group)
	defer store.EndGroup()

	bundles := make(map[int]*Bundle)
	for _, name := range store.ChildGroups() {
		id, ok := settings.ParseID(name)
		if !ok {
			r.logger.Warn("skipping exception bundle with invalid id", logging.GroupName(Group+"/"+name))
			continue
		}
		store.BeginGroup(name)
		b := &Bundle{ID: id}
		if v, ok := store.Value("name"); ok {
			b.Name = settings.String(v)
		}
		if v, ok := store.Value("filters"); ok {
			b.Filters = settings.Strings(v)
		}
		if v, ok := store.Value("folders"); ok {
			b.Folders = settings.Strings(v)
		}
		if v, ok := store.Value("files"); ok {
			b.Files = settings.Strings(v)
		}
		store.EndGroup()
		bundles[id] = b
	}
	r.bundles = bundles
	r.logger.Debug("exception bundles loaded", logging.Count(len(bundles)))
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
