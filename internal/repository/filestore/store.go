// Package filestore keeps users and API keys in JSON documents on local disk.
// It serves demo deployments without a database. Writes are serialized within
// one process only; two processes sharing a directory can lose updates.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jinxlo/api-dashboard/internal/domain"
)

const (
	UsersFile = "demo-users.json"
	KeysFile  = "demo-keys.json"
)

// Store owns the data directory and its documents
type Store struct {
	dir   string
	users *document
	keys  *document
}

// Open prepares dir, creating both documents with empty collections if absent
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		dir:   dir,
		users: &document{path: filepath.Join(dir, UsersFile)},
		keys:  &document{path: filepath.Join(dir, KeysFile)},
	}

	if err := s.users.ensure(usersDoc{Users: []domain.User{}}); err != nil {
		return nil, err
	}
	if err := s.keys.ensure(keysDoc{Keys: []domain.APIKey{}}); err != nil {
		return nil, err
	}

	return s, nil
}

// Dir returns the resolved data directory
func (s *Store) Dir() string {
	return s.dir
}

type usersDoc struct {
	Users []domain.User `json:"users"`
}

type keysDoc struct {
	Keys []domain.APIKey `json:"keys"`
}

// document is one JSON file updated by whole-file read-modify-write
type document struct {
	path string
	mu   sync.Mutex
}

func (d *document) ensure(initial any) error {
	if _, err := os.Stat(d.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", d.path, err)
	}
	return d.write(initial)
}

func (d *document) read(v any) error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", d.path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", d.path, err)
	}
	return nil
}

// write replaces the file atomically: temp file, fsync, rename
func (d *document) write(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", d.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", d.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", d.path, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", d.path, err)
	}

	if err := os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", d.path, err)
	}
	return nil
}
