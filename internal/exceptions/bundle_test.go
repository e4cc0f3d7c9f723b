package exceptions

import "testing"

func TestBundleMatch(t *testing.T) {
	b := &Bundle{
		Filters: []string{"*.tmp", "Thumbs.db"},
		Folders: []string{".git", "build/out/"},
		Files:   []string{"docs/secret.txt"},
	}

	tests := map[string]struct {
		path string
		want bool
	}{
		"filter on base name":     {"a/b/file.tmp", true},
		"filter on folder name":   {"cache.tmp/file.txt", true},
		"exact filter":            {"Thumbs.db", true},
		"blacklisted folder":      {".git", true},
		"inside blacklisted":      {".git/objects/ab", true},
		"nested blacklisted path": {"build/out/x.o", true},
		"similar folder name":     {".github/workflows", false},
		"blacklisted file":        {"docs/secret.txt", true},
		"windows separators":      {"docs\\secret.txt", true},
		"leading slash":           {"/docs/secret.txt", true},
		"unrelated":               {"src/main.go", false},
		"empty":                   {"", false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := b.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestBundleClone(t *testing.T) {
	b := &Bundle{ID: 1, Name: "x", Filters: []string{"*.bak"}}
	c := b.Clone()
	c.Filters[0] = "*.old"
	c.Name = "y"
	if b.Filters[0] != "*.bak" || b.Name != "x" {
		t.Errorf("Clone shares state with original: %+v", b)
	}
}
