// Package archive keeps every exported procedure version in SQLite, with
// optional FTS5 full-text search over the exported payloads.
package archive

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS exports (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	filename         TEXT NOT NULL UNIQUE,
	version          TEXT NOT NULL,
	previous_version TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL DEFAULT '',
	reference        TEXT NOT NULL DEFAULT '',
	change_type      TEXT NOT NULL DEFAULT '',
	author           TEXT NOT NULL DEFAULT '',
	comment          TEXT NOT NULL DEFAULT '',
	checksum         TEXT NOT NULL DEFAULT '',
	payload          TEXT NOT NULL DEFAULT '',
	exported_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_exports_version ON exports(version);
CREATE INDEX IF NOT EXISTS idx_exports_exported_at ON exports(exported_at);
`

// DB wraps a sql.DB with archive-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("archive: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}
