// Package settings provides the hierarchical key/value store that synkron
// persists its state into. A store is organized into nested named groups,
// addressed with "/" separated paths, much like an INI file with sections.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when a store format is unknown or
	// cannot be handled by the requested backend.
	ErrUnsupportedFormat = errors.New("unsupported store format")
	// ErrKeyCollision is returned when a codec cannot represent a key and a
	// group that share the same name within one group.
	ErrKeyCollision = errors.New("key collides with group of the same name")
	// ErrInvalidKey is returned for keys that cannot be written to every
	// store format and read back under the same name.
	ErrInvalidKey = errors.New("invalid settings key")
)

// CheckKey reports whether key survives a round trip through every store
// format. Each "/" separated segment must be non-empty, must not carry
// surrounding space, must not start with an INI comment or quote character
// and must not contain INI syntax characters.
func CheckKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for _, seg := range strings.Split(key, "/") {
		if reason := checkSegment(seg); reason != "" {
			return fmt.Errorf("%w %q: %s", ErrInvalidKey, key, reason)
		}
	}
	return nil
}

// ParseID parses a group name written for a numeric id. Only the canonical
// decimal form of a positive integer is accepted, so "01" and "+1" are not
// read as a second group for id 1.
func ParseID(name string) (int, bool) {
	id, err := strconv.Atoi(name)
	if err != nil || id <= 0 || strconv.Itoa(id) != name {
		return 0, false
	}
	return id, true
}

func checkSegment(seg string) string {
	switch {
	case seg == "":
		return "empty group name"
	case seg == "-":
		return "name is reserved"
	case strings.TrimSpace(seg) != seg:
		return "leading or trailing space"
	case strings.ContainsAny(seg[:1], "#;\"`"):
		return "starts with a comment or quote character"
	case strings.ContainsAny(seg, "=:[]\r\n"):
		return "contains one of = : [ ] or a line break"
	}
	return ""
}

// Store is the grouped key/value store contract used by every component
// that saves or loads state.
//
// BeginGroup and EndGroup calls must balance. Keys passed to SetValue,
// Value, Contains and Remove are relative to the current group and may
// themselves contain "/" separated group segments.
type Store interface {
	// BeginGroup enters the named group. The name may span several levels.
	BeginGroup(name string)
	// EndGroup leaves the group entered by the matching BeginGroup.
	EndGroup()
	// Group returns the current group path.
	Group() string

	SetValue(key string, value any)
	Value(key string) (any, bool)
	Contains(key string) bool

	// AllKeys returns the leaf keys of the current group, sorted.
	AllKeys() []string
	// ChildGroups returns the non-empty direct child groups, sorted.
	ChildGroups() []string

	// Remove deletes the key or group named key. An empty key clears every
	// key and group below the current group.
	Remove(key string)

	// Flush writes pending changes to the backing medium.
	Flush() error
}

// splitPath splits a group or key path into its segments, dropping empty ones.
func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	segs := parts[:0]
	for _, s := range parts {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Copy copies every key and group below the current group of src into the
// current group of dst. Existing keys in dst are overwritten.
func Copy(dst, src Store) {
	for _, key := range src.AllKeys() {
		if v, ok := src.Value(key); ok {
			dst.SetValue(key, v)
		}
	}
	for _, group := range src.ChildGroups() {
		src.BeginGroup(group)
		dst.BeginGroup(group)
		Copy(dst, src)
		dst.EndGroup()
		src.EndGroup()
	}
}
