// Package sqlite provides a settings.Store persisted in a SQLite database.
// Every leaf is one row keyed by its group path and key, with the value's
// kind recorded so that types survive the round trip.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/klauern/synkron/internal/settings"
)

const schema = `
	CREATE TABLE IF NOT EXISTS settings (
		grp   TEXT NOT NULL,
		key   TEXT NOT NULL,
		kind  TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (grp, key)
	);
	PRAGMA journal_mode=WAL;
	PRAGMA synchronous=NORMAL;
`

// Value kinds stored in the kind column.
const (
	kindString = "string"
	kindInt    = "int"
	kindBool   = "bool"
	kindFloat  = "float"
	kindList   = "list"
)

// Store is a SQLite backed settings.Store. Reads and writes go to the
// embedded Tree; Flush replaces the table contents in one transaction.
type Store struct {
	*settings.Tree
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and loads its rows.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize store %q: %w", path, err)
	}

	s := &Store{Tree: settings.NewTree(), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT grp, key, kind, value FROM settings ORDER BY grp, key`)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	defer rows.Close()

	var entries []settings.Entry
	for rows.Next() {
		var grp, key, kind, text string
		if err := rows.Scan(&grp, &key, &kind, &text); err != nil {
			return fmt.Errorf("failed to scan setting: %w", err)
		}
		v, err := decodeValue(kind, text)
		if err != nil {
			return fmt.Errorf("setting %s/%s: %w", grp, key, err)
		}
		entries = append(entries, settings.Entry{Group: grp, Key: key, Value: v})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	s.Replace(entries)
	return nil
}

// Flush rewrites the settings table from the in-memory tree.
func (s *Store) Flush() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO settings (grp, key, kind, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range s.Entries() {
		kind, text, err := encodeValue(e.Value)
		if err != nil {
			return fmt.Errorf("setting %s/%s: %w", e.Group, e.Key, err)
		}
		if _, err := stmt.Exec(e.Group, e.Key, kind, text); err != nil {
			return fmt.Errorf("failed to write setting %s/%s: %w", e.Group, e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

// Close closes the database. Unflushed changes are discarded.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeValue(v any) (kind, text string, err error) {
	switch x := settings.Normalize(v).(type) {
	case string:
		return kindString, x, nil
	case int:
		return kindInt, strconv.Itoa(x), nil
	case bool:
		return kindBool, strconv.FormatBool(x), nil
	case float64:
		return kindFloat, strconv.FormatFloat(x, 'g', -1, 64), nil
	case []string:
		data, err := json.Marshal(x)
		if err != nil {
			return "", "", err
		}
		return kindList, string(data), nil
	default:
		return kindString, settings.String(x), nil
	}
}

func decodeValue(kind, text string) (any, error) {
	switch kind {
	case kindString:
		return text, nil
	case kindInt:
		return strconv.Atoi(text)
	case kindBool:
		return strconv.ParseBool(text)
	case kindFloat:
		return strconv.ParseFloat(text, 64)
	case kindList:
		var list []string
		if err := json.Unmarshal([]byte(text), &list); err != nil {
			return nil, err
		}
		if list == nil {
			list = []string{}
		}
		return list, nil
	}
	return nil, fmt.Errorf("unknown value kind %q", kind)
}
