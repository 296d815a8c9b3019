// Package jsonfile provides JSON-file-backed persistence with file locking
// for safe concurrent access across processes.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

// ErrKeyNotFound is returned when a key does not exist in the store.
var ErrKeyNotFound = errors.New("key not found")

// kvFile is the root JSON structure stored on disk.
type kvFile struct {
	Entries map[string]json.RawMessage `json:"entries"`
}

// KVStore is a flat key-value store persisted as a single JSON file.
// Values are arbitrary JSON documents.
type KVStore struct {
	path string
	mu   sync.RWMutex
}

// NewKVStore creates a new JSON file KV store at the given path.
func NewKVStore(path string) *KVStore {
	return &KVStore{path: path}
}

// lockPath returns the path to the lock file.
func (s *KVStore) lockPath() string {
	return s.path + ".lock"
}

// withFileLock acquires a file lock, executes fn, then releases the lock.
func (s *KVStore) withFileLock(lockType int, fn func() error) error {
	// Ensure parent directory exists for lock file
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := syscall.Flock(int(f.Fd()), lockType); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN) //nolint:errcheck

	return fn()
}

// Get unmarshals the value stored under key into v. Returns ErrKeyNotFound
// if the key does not exist.
func (s *KVStore) Get(key string, v any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw json.RawMessage
	var found bool

	err := s.withFileLock(syscall.LOCK_SH, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		raw, found = file.Entries[key]
		return nil
	})
	if err != nil {
		return err
	}

	if !found {
		return ErrKeyNotFound
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode value for %q: %w", key, err)
	}
	return nil
}

// Set marshals v and stores it under key, creating or replacing.
func (s *KVStore) Set(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}

	return s.withFileLock(syscall.LOCK_EX, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		file.Entries[key] = raw
		return s.save(file)
	})
}

// Delete removes a key. Returns ErrKeyNotFound if it does not exist.
func (s *KVStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var notFound bool

	err := s.withFileLock(syscall.LOCK_EX, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		if _, ok := file.Entries[key]; !ok {
			notFound = true
			return nil
		}
		delete(file.Entries, key)
		return s.save(file)
	})
	if err != nil {
		return err
	}

	if notFound {
		return ErrKeyNotFound
	}
	return nil
}

// load reads the KV file from disk.
// Returns an empty file if it doesn't exist yet.
func (s *KVStore) load() (kvFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return kvFile{Entries: make(map[string]json.RawMessage)}, nil
		}
		return kvFile{}, err
	}

	if len(data) == 0 {
		return kvFile{Entries: make(map[string]json.RawMessage)}, nil
	}

	var file kvFile
	if err := json.Unmarshal(data, &file); err != nil {
		return kvFile{}, fmt.Errorf("parse %s: %w", s.path, err)
	}

	if file.Entries == nil {
		file.Entries = make(map[string]json.RawMessage)
	}

	return file, nil
}

// save writes the KV file to disk atomically.
func (s *KVStore) save(file kvFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp) // best effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
