package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage keeps all keys in one JSON object on disk. Every write rewrites
// the whole file through a temp file and rename.
type FileStorage struct {
	mu       sync.Mutex
	filePath string
	values   map[string]string
}

func NewFileStorage(path string) (*FileStorage, error) {
	fs := &FileStorage{
		filePath: path,
		values:   make(map[string]string),
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStorage) Get(key string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.values[key]
	return v, ok, nil
}

func (fs *FileStorage) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if cur, ok := fs.values[key]; ok && cur == value {
		return nil
	}
	fs.values[key] = value
	return fs.save()
}

func (fs *FileStorage) Remove(keys ...string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	changed := false
	for _, key := range keys {
		if _, ok := fs.values[key]; ok {
			delete(fs.values, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return fs.save()
}

func (fs *FileStorage) Close() error { return nil }

// load reads the file into memory. A corrupt file is logged and treated as
// empty.
func (fs *FileStorage) load() error {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", fs.filePath, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &fs.values); err != nil {
		log.Printf("⚠️ Ignoring unreadable session file %s: %v", fs.filePath, err)
		fs.values = make(map[string]string)
	}
	return nil
}

func (fs *FileStorage) save() error {
	data, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.filePath), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, fs.filePath); err != nil {
		return fmt.Errorf("replace %s: %w", fs.filePath, err)
	}
	return nil
}
