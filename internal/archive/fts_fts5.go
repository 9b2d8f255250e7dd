//go:build sqlite_fts5

package archive

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS exports_fts USING fts5(
			export_id UNINDEXED,
			title,
			comment,
			payload,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id int64, title, comment, payload string) error {
	_, _ = tx.Exec(`DELETE FROM exports_fts WHERE export_id = ?`, id)
	_, err := tx.Exec(`INSERT INTO exports_fts (export_id, title, comment, payload) VALUES (?, ?, ?, ?)`,
		id, title, comment, payload)
	if err != nil {
		return fmt.Errorf("archive: upsert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matching exports with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT e.id,
		       e.version,
		       e.title,
		       snippet(exports_fts, 3, '<b>', '</b>', '...', 32)
		FROM exports_fts
		JOIN exports e ON e.id = exports_fts.export_id
		WHERE exports_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Version, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
