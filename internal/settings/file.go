package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies the on-disk encoding of a store.
type Format string

// Supported store formats.
const (
	FormatINI    Format = "ini"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatSQLite Format = "sqlite"
)

// AllFormats lists the supported formats in display order.
func AllFormats() []Format {
	return []Format{FormatINI, FormatYAML, FormatTOML, FormatSQLite}
}

// ParseFormat parses a format name, accepting a few common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ini":
		return FormatINI, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", false
	}
	return f, true
}

// Ext returns the file extension used for the format, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatTOML:
		return ".toml"
	case FormatSQLite:
		return ".db"
	default:
		return ".ini"
	}
}

// codec converts between a tree and its serialized form.
type codec interface {
	encode(root *node) ([]byte, error)
	decode(data []byte) (*node, error)
}

func codecFor(f Format) (codec, error) {
	switch f {
	case FormatINI:
		return iniCodec{}, nil
	case FormatYAML:
		return yamlCodec{}, nil
	case FormatTOML:
		return tomlCodec{}, nil
	}
	return nil, fmt.Errorf("%w: %q is not a file format", ErrUnsupportedFormat, f)
}

// File is a Store persisted as a single text file. Reads and writes go to
// the in-memory Tree; Flush rewrites the file.
type File struct {
	*Tree
	path   string
	format Format
	codec  codec
}

// OpenFile opens the store at path. A missing file yields an empty store
// that is created on the first Flush.
func OpenFile(path string, format Format) (*File, error) {
	c, err := codecFor(format)
	if err != nil {
		return nil, err
	}

	f := &File{Tree: NewTree(), path: path, format: format, codec: c}

	// #nosec G304 - path is the resolved store location
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read store %q: %w", path, err)
	}

	root, err := c.decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse store %q: %w", path, err)
	}
	f.reset(root)
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Format returns the file's encoding.
func (f *File) Format() Format {
	return f.format
}

// Flush encodes the tree and replaces the file contents.
func (f *File) Flush() error {
	data, err := f.codec.encode(f.root)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

// Close flushes nothing; it exists so callers can treat every backend alike.
func (f *File) Close() error {
	return nil
}
