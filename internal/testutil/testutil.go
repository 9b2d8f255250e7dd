// Package testutil provides shared test helpers for setting up workspaces,
// archives and sessions.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/procforge/internal/archive"
	"github.com/starford/procforge/internal/storage"
)

// FixedNow is the clock used by test sessions.
var FixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

// Clock returns FixedNow.
func Clock() time.Time { return FixedNow }

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary archive database that is automatically cleaned up.
func TestDB(t *testing.T) *archive.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "procforge-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := archive.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestWorkspace creates a temporary workspace directory with a file
// provider and the state store layered on it.
func TestWorkspace(t *testing.T) (string, *storage.FS, *storage.FileState) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs, storage.NewFileState(fs)
}
