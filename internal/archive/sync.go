package archive

import (
	"errors"
	"io/fs"
	"log/slog"
	"path"

	"github.com/starford/procforge/internal/checksum"
	"github.com/starford/procforge/internal/procedure"
	"github.com/starford/procforge/internal/storage"
)

// ExportDir is the workspace directory holding exported procedure files.
const ExportDir = "exports"

// Sync walks the export directory and brings the archive up to date:
// files that are new or whose checksum changed are decoded and recorded.
// Files that fail to decode are skipped with a warning.
func Sync(db Store, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List(ExportDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	for _, m := range metas {
		name := path.Base(m.Path)
		if checksums[name] == m.Checksum {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := recordFile(db, name, data, m); err != nil {
			logger.Warn("sync: archive failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: archived", slog.String("path", m.Path))
		}
	}
	return nil
}

// recordFile decodes an exported procedure and records it.
func recordFile(db Store, name string, data []byte, m storage.FileMeta) error {
	p, err := procedure.Decode(data, procedure.DetectFormat(name, data))
	if err != nil {
		return err
	}
	r := Record{
		Filename:   name,
		Version:    p.Version,
		Title:      p.Title,
		Reference:  p.Reference,
		Author:     p.Author,
		Checksum:   checksum.Sum(data),
		Payload:    string(data),
		ExportedAt: m.UpdatedAt,
	}
	if n := len(p.VersionHistory); n > 0 {
		last := p.VersionHistory[n-1]
		r.PreviousVersion = last.PreviousVersion
		r.ChangeType = string(last.ChangeType)
		r.Author = last.Author
		r.Comment = last.Comment
	}
	_, err = db.Record(r)
	return err
}
