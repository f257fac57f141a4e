package store

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/pkg/errors"
)

// DirStore implements Store with one file per object in a single flat
// directory. Useful for local development and for sharing a store between
// processes on one machine.
type DirStore struct {
	dir    string
	closed atomic.Bool
}

// NewDirStore creates dir if needed and returns a store over it.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create store directory %s", dir)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *DirStore) Dir() string {
	return s.dir
}

// Put creates or replaces an object file.
func (s *DirStore) Put(name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write object %s", name)
	}
	return nil
}

// Get reads an object file.
func (s *DirStore) Get(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read object %s", name)
	}
	return data, nil
}

// List returns the names of all regular files in the directory.
func (s *DirStore) List() ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list store directory %s", s.dir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Delete removes an object file. Deleting an absent object is not an error.
func (s *DirStore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete object %s", name)
	}
	return nil
}

// Close shuts down the store. The directory and its objects are kept.
func (s *DirStore) Close() error {
	s.closed.Store(true)
	return nil
}
