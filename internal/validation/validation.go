// Package validation checks user supplied settings before they are stored.
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauern/synkron/internal/exceptions"
	"github.com/klauern/synkron/internal/settings"
)

// Error represents a validation failure with context.
type Error struct {
	// Field is the name of the field or component that failed validation
	Field string
	// Message describes the validation failure
	Message string
	// Err is the underlying error (if any)
	Err error
}

// Error returns a formatted validation error message.
func (ve *Error) Error() string {
	if ve.Err != nil {
		return fmt.Sprintf("validation failed for %q: %s: %v", ve.Field, ve.Message, ve.Err)
	}
	return fmt.Sprintf("validation failed for %q: %s", ve.Field, ve.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (ve *Error) Unwrap() error {
	return ve.Err
}

// Errors collects multiple validation errors.
type Errors []error

// Error returns a formatted error message for all validation failures.
func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors:\n- %s", len(ve), errors.Join(ve...))
}

// Unwrap returns the collected errors for errors.Is/As.
func (ve Errors) Unwrap() []error {
	return ve
}

// Result contains the outcome of a validation check.
type Result struct {
	// Warnings contains non-fatal validation issues
	Warnings []string
	// Errors contains validation failures that prevent the operation
	Errors []error
}

// AddError adds an error to the validation result.
func (r *Result) AddError(err error) {
	r.Errors = append(r.Errors, err)
}

// AddWarning adds a warning to the validation result.
func (r *Result) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Valid reports whether no errors were recorded.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns the combined validation error, or nil.
func (r *Result) Err() error {
	switch len(r.Errors) {
	case 0:
		return nil
	case 1:
		return r.Errors[0]
	}
	return Errors(r.Errors)
}

// SettingKey checks a general setting key. "/" nests the key in groups;
// every segment must be storable in all store formats.
func SettingKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return &Error{Field: "key", Message: "key cannot be empty"}
	}
	if err := settings.CheckKey(key); err != nil {
		return &Error{Field: key, Message: "key cannot be stored", Err: err}
	}
	return nil
}

// Bundle checks the rules of an exception bundle. Filters must be valid
// wildcard patterns; folder and file entries must stay inside a sync folder.
func Bundle(b *exceptions.Bundle) *Result {
	r := &Result{}
	if strings.TrimSpace(b.Name) == "" {
		r.AddWarning("bundle has no name")
	}

	for _, f := range b.Filters {
		if f == "" {
			r.AddError(&Error{Field: "filter", Message: "pattern cannot be empty"})
			continue
		}
		if _, err := filepath.Match(f, ""); err != nil {
			r.AddError(&Error{Field: f, Message: "invalid wildcard pattern", Err: err})
		}
	}
	checkRelative(r, "folder", b.Folders)
	checkRelative(r, "file", b.Files)

	if len(b.Filters)+len(b.Folders)+len(b.Files) == 0 {
		r.AddWarning("bundle excludes nothing")
	}
	return r
}

func checkRelative(r *Result, field string, paths []string) {
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		clean := filepath.Clean(filepath.FromSlash(p))
		if !filepath.IsLocal(clean) {
			r.AddError(&Error{Field: p, Message: field + " must be a path relative to the sync folder"})
			continue
		}
		if seen[clean] {
			r.AddWarning(fmt.Sprintf("%s %q listed more than once", field, p))
		}
		seen[clean] = true
	}
}

// FolderPath checks a sync folder path. A missing directory is only a
// warning since removable media may be unmounted.
func FolderPath(path string) *Result {
	r := &Result{}
	if strings.TrimSpace(path) == "" {
		r.AddError(&Error{Field: "path", Message: "path cannot be empty"})
		return r
	}
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		r.AddWarning(fmt.Sprintf("%s does not exist", path))
	case err != nil:
		r.AddWarning(fmt.Sprintf("%s cannot be accessed: %v", path, err))
	case !info.IsDir():
		r.AddError(&Error{Field: path, Message: "not a directory"})
	}
	return r
}
