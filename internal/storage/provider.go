// Package storage implements the persistence adapter: atomic file storage
// for the workspace and a key-value state store layered on top of it.
package storage

import "time"

// FileMeta is a lightweight description of a stored file.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for workspace file operations.
type Provider interface {
	// List returns metadata for every regular file under dir (relative to root).
	List(dir string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to root).
	Move(oldPath, newPath string) error
}

// StateStore is the key-value contract used for autosave and ledger history.
// A missing key is reported as an error wrapping os.ErrNotExist.
type StateStore interface {
	SaveState(key string, value []byte) error
	LoadState(key string) ([]byte, error)
	DeleteState(key string) error
}
