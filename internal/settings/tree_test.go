package settings

import (
	"slices"
	"testing"
)

func TestTreeGroups(t *testing.T) {
	tr := NewTree()

	tr.BeginGroup("general")
	tr.SetValue("lang", "en")
	tr.SetValue("minimize", true)
	tr.EndGroup()

	tr.BeginGroup("syncs/1")
	tr.SetValue("name", "Home")
	tr.SetValue("folders/1/path", "/tmp/a")
	if got := tr.Group(); got != "syncs/1" {
		t.Errorf("Group() = %q, want %q", got, "syncs/1")
	}
	tr.EndGroup()

	if got := tr.Group(); got != "" {
		t.Errorf("Group() after EndGroup = %q, want root", got)
	}

	if v, ok := tr.Value("general/lang"); !ok || v != "en" {
		t.Errorf("Value(general/lang) = %v, %v", v, ok)
	}

	tr.BeginGroup("syncs")
	if got := tr.ChildGroups(); !slices.Equal(got, []string{"1"}) {
		t.Errorf("ChildGroups() = %v, want [1]", got)
	}
	tr.BeginGroup("1")
	if got := tr.AllKeys(); !slices.Equal(got, []string{"name"}) {
		t.Errorf("AllKeys() = %v, want [name]", got)
	}
	tr.EndGroup()
	tr.EndGroup()
}

func TestTreeEndGroupUnbalanced(t *testing.T) {
	tr := NewTree()
	tr.EndGroup()
	tr.SetValue("k", 1)
	if v, ok := tr.Value("k"); !ok || v != 1 {
		t.Errorf("Value(k) = %v, %v", v, ok)
	}
}

func TestTreeRemove(t *testing.T) {
	tests := map[string]struct {
		group     string
		remove    string
		wantKeys  []string
		wantGroup []string
	}{
		"remove key": {
			group:     "",
			remove:    "a",
			wantKeys:  []string{"b"},
			wantGroup: []string{"g"},
		},
		"remove group": {
			group:     "",
			remove:    "g",
			wantKeys:  []string{"a", "b"},
			wantGroup: []string{},
		},
		"clear current group": {
			group:     "g",
			remove:    "",
			wantKeys:  []string{},
			wantGroup: []string{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tr := NewTree()
			tr.SetValue("a", 1)
			tr.SetValue("b", 2)
			tr.SetValue("g/x", 3)
			tr.SetValue("g/sub/y", 4)

			tr.BeginGroup(tt.group)
			tr.Remove(tt.remove)
			keys := tr.AllKeys()
			groups := tr.ChildGroups()
			tr.EndGroup()

			if !slices.Equal(keys, tt.wantKeys) {
				t.Errorf("AllKeys() = %v, want %v", keys, tt.wantKeys)
			}
			if !slices.Equal(groups, tt.wantGroup) {
				t.Errorf("ChildGroups() = %v, want %v", groups, tt.wantGroup)
			}
		})
	}
}

func TestTreeEmptyGroupsHidden(t *testing.T) {
	tr := NewTree()
	tr.BeginGroup("syncs/7")
	tr.EndGroup()
	tr.BeginGroup("syncs")
	defer tr.EndGroup()
	if got := tr.ChildGroups(); len(got) != 0 {
		t.Errorf("ChildGroups() = %v, want none", got)
	}
}

func TestTreeValueIsCopied(t *testing.T) {
	tr := NewTree()
	list := []string{"a", "b"}
	tr.SetValue("l", list)
	list[0] = "changed"

	v, _ := tr.Value("l")
	got := v.([]string)
	if got[0] != "a" {
		t.Errorf("stored list aliased caller slice: %v", got)
	}
	got[1] = "changed"
	v, _ = tr.Value("l")
	if v.([]string)[1] != "b" {
		t.Error("returned list aliased stored slice")
	}
}

func TestTreeEntriesReplace(t *testing.T) {
	tr := NewTree()
	tr.SetValue("general/lang", "en")
	tr.SetValue("syncs/2/name", "Work")
	tr.SetValue("top", 3)

	entries := tr.Entries()
	want := []Entry{
		{Group: "", Key: "top", Value: 3},
		{Group: "general", Key: "lang", Value: "en"},
		{Group: "syncs/2", Key: "name", Value: "Work"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Entries() = %v, want %v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %v, want %v", i, entries[i], want[i])
		}
	}

	other := NewTree()
	other.SetValue("stale", true)
	other.Replace(entries)
	if other.Contains("stale") {
		t.Error("Replace kept stale key")
	}
	if v, _ := other.Value("syncs/2/name"); v != "Work" {
		t.Errorf("Value(syncs/2/name) = %v, want Work", v)
	}
}

func TestCopy(t *testing.T) {
	src := NewTree()
	src.SetValue("general/lang", "en")
	src.SetValue("syncs/1/folders/2/path", "/b")
	src.SetValue("syncs/1/bundles", []string{"1", "2"})

	dst := NewTree()
	dst.SetValue("general/lang", "fr")
	dst.SetValue("kept", 1)

	Copy(dst, src)

	if v, _ := dst.Value("general/lang"); v != "en" {
		t.Errorf("general/lang = %v, want en", v)
	}
	if v, _ := dst.Value("syncs/1/folders/2/path"); v != "/b" {
		t.Errorf("nested path = %v, want /b", v)
	}
	if v, _ := dst.Value("syncs/1/bundles"); !slices.Equal(Strings(v), []string{"1", "2"}) {
		t.Errorf("bundles = %v", v)
	}
	if !dst.Contains("kept") {
		t.Error("Copy removed an unrelated key")
	}

	sub := NewTree()
	src.BeginGroup("syncs")
	Copy(sub, src)
	src.EndGroup()
	if !slices.Equal(sub.ChildGroups(), []string{"1"}) {
		t.Errorf("group copy = %v, want [1]", sub.ChildGroups())
	}
	if src.Group() != "" {
		t.Errorf("source left in group %q", src.Group())
	}
}
