package store

import (
	"strings"

	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrNotFound    = errors.New("object not found")
	ErrClosed      = errors.New("store closed")
	ErrInvalidName = errors.New("invalid object name")
)

// Store is a flat object store. All four data operations are safe for
// concurrent use; List order is not specified and must not be relied on.
type Store interface {
	// Put creates or replaces an object.
	Put(name string, data []byte) error

	// Get retrieves an object's bytes.
	// Returns ErrNotFound if the object does not exist.
	Get(name string) ([]byte, error)

	// List returns the names of all objects in the store.
	List() ([]string, error)

	// Delete removes an object.
	// Returns nil if the object does not exist.
	Delete(name string) error

	// Close shuts down the store and releases resources.
	Close() error
}

// ValidateName checks that name is usable as a flat object name.
func ValidateName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\ \t\n") {
		return ErrInvalidName
	}
	if len(name) > 1024 {
		return ErrInvalidName
	}
	return nil
}
