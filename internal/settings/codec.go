package settings

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-ini/ini"
	"gopkg.in/yaml.v3"
)

// toMap renders a group as nested maps. Groups become maps, leaves keep
// their normalized value.
func toMap(n *node, path string) (map[string]any, error) {
	m := make(map[string]any, len(n.values)+len(n.children))
	for k, v := range n.values {
		m[k] = v
	}
	for name, c := range n.children {
		if c.empty() {
			continue
		}
		if _, ok := m[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyCollision, strings.TrimPrefix(path+"/"+name, "/"))
		}
		cm, err := toMap(c, path+"/"+name)
		if err != nil {
			return nil, err
		}
		m[name] = cm
	}
	return m, nil
}

// fromMap is the inverse of toMap for generically decoded documents.
func fromMap(m map[string]any) *node {
	n := newNode()
	for k, v := range m {
		switch x := v.(type) {
		case map[string]any:
			n.children[k] = fromMap(x)
		case map[any]any:
			conv := make(map[string]any, len(x))
			for ck, cv := range x {
				conv[fmt.Sprint(ck)] = cv
			}
			n.children[k] = fromMap(conv)
		default:
			n.values[k] = Normalize(x)
		}
	}
	return n
}

type yamlCodec struct{}

func (yamlCodec) encode(root *node) ([]byte, error) {
	m, err := toMap(root, "")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (yamlCodec) decode(data []byte) (*node, error) {
	m := make(map[string]any)
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return fromMap(m), nil
}

type tomlCodec struct{}

func (tomlCodec) encode(root *node) ([]byte, error) {
	m, err := toMap(root, "")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (tomlCodec) decode(data []byte) (*node, error) {
	m := make(map[string]any)
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, err
	}
	return fromMap(m), nil
}

// iniCodec writes one section per group, named by its full path. Lists are
// written as repeated (shadow) keys named "<key>[]", one per element.
// go-ini drops empty shadow values, so empty elements and elements starting
// with a backslash get a backslash prefix. A bare "<key>[] =" is the empty
// list. Repeated plain keys, as people write them by hand, read back as a
// list without unescaping. INI holds text only, so scalars come back as
// strings; readers use the coercing accessors.
type iniCodec struct{}

const iniListSuffix = "[]"

func iniOptions() ini.LoadOptions {
	return ini.LoadOptions{
		AllowShadows:               true,
		AllowDuplicateShadowValues: true,
		IgnoreInlineComment:        true,
		IgnoreContinuation:         true,
	}
}

func escapeINIItem(s string) string {
	if s == "" || strings.HasPrefix(s, `\`) {
		return `\` + s
	}
	return s
}

func unescapeINIItem(s string) string {
	return strings.TrimPrefix(s, `\`)
}

func (iniCodec) encode(root *node) ([]byte, error) {
	f := ini.Empty(iniOptions())

	var write func(n *node, path string) error
	write = func(n *node, path string) error {
		if len(n.values) > 0 {
			sec := f.Section(sectionName(path))
			for _, k := range sortedKeys(n.values) {
				if reason := checkSegment(k); reason != "" {
					return fmt.Errorf("%w %q in [%s]: %s", ErrInvalidKey, k, path, reason)
				}
				if err := writeINIKey(sec, k, n.values[k]); err != nil {
					return err
				}
			}
		}
		for _, name := range sortedKeys(n.children) {
			if reason := checkSegment(name); reason != "" {
				return fmt.Errorf("%w: group %q below [%s]: %s", ErrInvalidKey, name, path, reason)
			}
			sub := name
			if path != "" {
				sub = path + "/" + name
			}
			if err := write(n.children[name], sub); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write(root, ""); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sectionName(path string) string {
	if path == "" {
		return ini.DefaultSection
	}
	return path
}

func writeINIKey(sec *ini.Section, k string, v any) error {
	list, isList := v.([]string)
	if !isList {
		_, err := sec.NewKey(k, String(v))
		return err
	}
	name := k + iniListSuffix
	if len(list) == 0 {
		_, err := sec.NewKey(name, "")
		return err
	}
	key, err := sec.NewKey(name, escapeINIItem(list[0]))
	if err != nil {
		return err
	}
	for _, item := range list[1:] {
		if err := key.AddShadow(escapeINIItem(item)); err != nil {
			return err
		}
	}
	return nil
}

func (iniCodec) decode(data []byte) (*node, error) {
	f, err := ini.LoadSources(iniOptions(), data)
	if err != nil {
		return nil, err
	}

	root := newNode()
	for _, sec := range f.Sections() {
		n := root
		if sec.Name() != ini.DefaultSection {
			for _, s := range splitPath(sec.Name()) {
				n = n.child(s, true)
			}
		}
		for _, key := range sec.Keys() {
			vals := key.ValueWithShadows()
			if name, ok := strings.CutSuffix(key.Name(), iniListSuffix); ok {
				items := make([]string, len(vals))
				for i, v := range vals {
					items[i] = unescapeINIItem(v)
				}
				n.values[name] = items
				continue
			}
			if len(vals) > 1 {
				n.values[key.Name()] = vals
			} else {
				n.values[key.Name()] = key.Value()
			}
		}
	}
	return root, nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
