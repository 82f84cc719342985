// Package storage persists small string values under fixed keys, the way the
// web and mobile clients use localStorage and AsyncStorage.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage is a key/value store for session data. Implementations are safe
// for concurrent use.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes the given keys. Missing keys are not an error.
	Remove(keys ...string) error
	Close() error
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the storage backend named by backend, rooted at path.
func Open(backend, path string) (Storage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	switch backend {
	case BackendFile, "":
		return NewFileStorage(path)
	case BackendSQLite:
		return NewSQLiteStorage(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
