package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/procforge/internal/apperr"
)

// Record is one archived export.
type Record struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	Version         string    `json:"version"`
	PreviousVersion string    `json:"previousVersion"`
	Title           string    `json:"title"`
	Reference       string    `json:"reference"`
	ChangeType      string    `json:"changeType"`
	Author          string    `json:"author"`
	Comment         string    `json:"comment"`
	Checksum        string    `json:"checksum"`
	Payload         string    `json:"payload,omitempty"`
	ExportedAt      time.Time `json:"exportedAt"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      int64  `json:"id"`
	Version string `json:"version"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const recordColumns = `id, filename, version, previous_version, title, reference,
	change_type, author, comment, checksum, payload, exported_at`

// Record stores an export. Re-recording the same filename replaces the
// earlier row.
func (db *DB) Record(r Record) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("archive: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if r.ExportedAt.IsZero() {
		r.ExportedAt = time.Now()
	}
	r.ExportedAt = r.ExportedAt.UTC()

	var id int64
	err = tx.QueryRow(`
		INSERT INTO exports (filename, version, previous_version, title, reference,
			change_type, author, comment, checksum, payload, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			version          = excluded.version,
			previous_version = excluded.previous_version,
			title            = excluded.title,
			reference        = excluded.reference,
			change_type      = excluded.change_type,
			author           = excluded.author,
			comment          = excluded.comment,
			checksum         = excluded.checksum,
			payload          = excluded.payload,
			exported_at      = excluded.exported_at
		RETURNING id
	`, r.Filename, r.Version, r.PreviousVersion, r.Title, r.Reference,
		r.ChangeType, r.Author, r.Comment, r.Checksum, r.Payload, r.ExportedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("archive: record export: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, id, r.Title, r.Comment, r.Payload); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("archive: commit: %w", err)
	}
	return id, nil
}

// Get returns one export including its payload.
func (db *DB) Get(id int64) (*Record, error) {
	row := db.conn.QueryRow(`SELECT `+recordColumns+` FROM exports WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("archive: export %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("archive: get export: %w", err)
	}
	return r, nil
}

// ByVersion returns every export of a version, newest first.
func (db *DB) ByVersion(version string) ([]Record, error) {
	rows, err := db.conn.Query(`SELECT `+recordColumns+` FROM exports
		WHERE version = ? ORDER BY exported_at DESC, id DESC`, version)
	if err != nil {
		return nil, fmt.Errorf("archive: by version: %w", err)
	}
	defer rows.Close()
	return collect(rows, true)
}

// List returns a page of exports, newest first and without payloads, plus
// the total count.
func (db *DB) List(limit, offset int) ([]Record, int, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM exports`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("archive: count: %w", err)
	}
	rows, err := db.conn.Query(`SELECT `+recordColumns+` FROM exports
		ORDER BY exported_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()
	out, err := collect(rows, false)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AllChecksums maps every archived filename to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT filename, checksum FROM exports`)
	if err != nil {
		return nil, fmt.Errorf("archive: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var r Record
	if err := s.Scan(&r.ID, &r.Filename, &r.Version, &r.PreviousVersion, &r.Title, &r.Reference,
		&r.ChangeType, &r.Author, &r.Comment, &r.Checksum, &r.Payload, &r.ExportedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func collect(rows *sql.Rows, withPayload bool) ([]Record, error) {
	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if !withPayload {
			r.Payload = ""
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
