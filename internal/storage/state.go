package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
)

// Well-known state keys.
const (
	KeyAutosave       = "procedure_autosave"
	KeyVersionHistory = "procedure_version_history"
)

const stateDir = "state"

var keyRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileState is a StateStore that keeps one JSON file per key under
// <root>/state/.
type FileState struct {
	fs Provider
}

// NewFileState layers a key-value store over a Provider.
func NewFileState(fs Provider) *FileState {
	return &FileState{fs: fs}
}

func statePath(key string) (string, error) {
	if !keyRe.MatchString(key) {
		return "", fmt.Errorf("storage: invalid state key %q", key)
	}
	return stateDir + "/" + key + ".json", nil
}

// SaveState atomically replaces the value stored under key.
func (s *FileState) SaveState(key string, value []byte) error {
	p, err := statePath(key)
	if err != nil {
		return err
	}
	return s.fs.Write(p, value)
}

// LoadState returns the value stored under key.
func (s *FileState) LoadState(key string) ([]byte, error) {
	p, err := statePath(key)
	if err != nil {
		return nil, err
	}
	return s.fs.Read(p)
}

// DeleteState removes key. Deleting a missing key is not an error.
func (s *FileState) DeleteState(key string) error {
	p, err := statePath(key)
	if err != nil {
		return err
	}
	if err := s.fs.Delete(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Memory is an in-process StateStore, used by the CLI for one-shot commands
// against an exported file and by tests.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) SaveState(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) LoadState(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("storage: load %s: %w", key, os.ErrNotExist)
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) DeleteState(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// SaveJSON marshals v and stores it under key.
func SaveJSON(s StateStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	return s.SaveState(key, data)
}

// LoadJSON loads key and unmarshals it into v.
func LoadJSON(s StateStore, key string, v any) error {
	data, err := s.LoadState(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", key, err)
	}
	return nil
}
