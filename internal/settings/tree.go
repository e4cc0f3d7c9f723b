package settings

import (
	"slices"
	"strings"
)

// node is one group of the tree.
type node struct {
	values   map[string]any
	children map[string]*node
}

func newNode() *node {
	return &node{
		values:   make(map[string]any),
		children: make(map[string]*node),
	}
}

// empty reports whether the group holds no keys anywhere below it.
func (n *node) empty() bool {
	if len(n.values) > 0 {
		return false
	}
	for _, c := range n.children {
		if !c.empty() {
			return false
		}
	}
	return true
}

func (n *node) child(name string, create bool) *node {
	c, ok := n.children[name]
	if !ok && create {
		c = newNode()
		n.children[name] = c
	}
	return c
}

// Tree is an in-memory Store. It is the working copy behind every file and
// database backed store, and is usable on its own in tests.
type Tree struct {
	root   *node
	prefix []string
	depths []int
}

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return &Tree{root: newNode()}
}

// BeginGroup enters the named group.
func (t *Tree) BeginGroup(name string) {
	segs := splitPath(name)
	t.prefix = append(t.prefix, segs...)
	t.depths = append(t.depths, len(segs))
}

// EndGroup leaves the most recently entered group. Unbalanced calls are ignored.
func (t *Tree) EndGroup() {
	if len(t.depths) == 0 {
		return
	}
	n := t.depths[len(t.depths)-1]
	t.depths = t.depths[:len(t.depths)-1]
	t.prefix = t.prefix[:len(t.prefix)-n]
}

// Group returns the current group path.
func (t *Tree) Group() string {
	return strings.Join(t.prefix, "/")
}

// lookup walks to the group addressed by segs below the current group.
func (t *Tree) lookup(segs []string, create bool) *node {
	n := t.root
	for _, s := range t.prefix {
		if n = n.child(s, create); n == nil {
			return nil
		}
	}
	for _, s := range segs {
		if n = n.child(s, create); n == nil {
			return nil
		}
	}
	return n
}

// SetValue stores value under key, normalizing it first.
func (t *Tree) SetValue(key string, value any) {
	segs := splitPath(key)
	if len(segs) == 0 {
		return
	}
	n := t.lookup(segs[:len(segs)-1], true)
	n.values[segs[len(segs)-1]] = Normalize(value)
}

// Value returns the value stored under key.
func (t *Tree) Value(key string) (any, bool) {
	segs := splitPath(key)
	if len(segs) == 0 {
		return nil, false
	}
	n := t.lookup(segs[:len(segs)-1], false)
	if n == nil {
		return nil, false
	}
	v, ok := n.values[segs[len(segs)-1]]
	if !ok {
		return nil, false
	}
	return clone(v), true
}

// Contains reports whether key holds a value.
func (t *Tree) Contains(key string) bool {
	_, ok := t.Value(key)
	return ok
}

// AllKeys returns the leaf keys of the current group.
func (t *Tree) AllKeys() []string {
	n := t.lookup(nil, false)
	if n == nil {
		return nil
	}
	keys := make([]string, 0, len(n.values))
	for k := range n.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ChildGroups returns the non-empty direct child groups of the current group.
func (t *Tree) ChildGroups() []string {
	n := t.lookup(nil, false)
	if n == nil {
		return nil
	}
	groups := make([]string, 0, len(n.children))
	for name, c := range n.children {
		if !c.empty() {
			groups = append(groups, name)
		}
	}
	slices.Sort(groups)
	return groups
}

// Remove deletes key, or clears the current group when key is empty.
func (t *Tree) Remove(key string) {
	segs := splitPath(key)
	if len(segs) == 0 {
		n := t.lookup(nil, false)
		if n != nil {
			clear(n.values)
			clear(n.children)
		}
		return
	}
	n := t.lookup(segs[:len(segs)-1], false)
	if n == nil {
		return
	}
	last := segs[len(segs)-1]
	delete(n.values, last)
	delete(n.children, last)
}

// Flush is a no-op for a bare Tree.
func (t *Tree) Flush() error {
	return nil
}

// reset replaces the tree contents and returns to the root group.
func (t *Tree) reset(root *node) {
	t.root = root
	t.prefix = nil
	t.depths = nil
}

// Entry is a single leaf of a Tree, addressed by its full group path.
type Entry struct {
	Group string
	Key   string
	Value any
}

// Entries returns every leaf of the tree ordered by group path and key.
func (t *Tree) Entries() []Entry {
	var out []Entry
	var walk func(n *node, path []string)
	walk = func(n *node, path []string) {
		group := strings.Join(path, "/")
		keys := make([]string, 0, len(n.values))
		for k := range n.values {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			out = append(out, Entry{Group: group, Key: k, Value: clone(n.values[k])})
		}
		names := make([]string, 0, len(n.children))
		for name := range n.children {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			walk(n.children[name], append(path, name))
		}
	}
	walk(t.root, nil)
	return out
}

// Replace discards the tree contents and rebuilds it from entries.
func (t *Tree) Replace(entries []Entry) {
	root := newNode()
	for _, e := range entries {
		n := root
		for _, s := range splitPath(e.Group) {
			n = n.child(s, true)
		}
		if e.Key != "" {
			n.values[e.Key] = Normalize(e.Value)
		}
	}
	t.reset(root)
}
