package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/procforge/internal/apperr"
	"github.com/starford/procforge/internal/archive"
	"github.com/starford/procforge/internal/checksum"
	"github.com/starford/procforge/internal/document"
	"github.com/starford/procforge/internal/metrics"
	"github.com/starford/procforge/internal/models"
	"github.com/starford/procforge/internal/procedure"
)

// BumpRequest is the version bump submitted with an export.
type BumpRequest struct {
	ChangeType models.ChangeType `json:"changeType"`
	Author     string            `json:"author"`
	Comment    string            `json:"comment"`
}

// Validate checks that author and comment are present and the change type
// is known.
func (r *BumpRequest) Validate() error {
	r.Author = strings.TrimSpace(r.Author)
	r.Comment = strings.TrimSpace(r.Comment)
	return validation.ValidateStruct(r,
		validation.Field(&r.ChangeType, validation.In(models.ChangeMajor, models.ChangeMinor, models.ChangePatch)),
		validation.Field(&r.Author, validation.Required),
		validation.Field(&r.Comment, validation.Required),
	)
}

// ExportResult is the outcome of a successful export.
type ExportResult struct {
	Entry     models.Entry      `json:"entry"`
	Procedure models.Procedure  `json:"procedure"`
	Document  document.Document `json:"document"`
	Filename  string            `json:"filename"`
	Payload   []byte            `json:"-"`
	ArchiveID int64             `json:"archiveId,omitempty"`
}

// Bump records a version bump without exporting.
func (s *Session) Bump(req BumpRequest) (models.Entry, error) {
	if err := req.Validate(); err != nil {
		return models.Entry{}, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	s.mu.Lock()
	entry, err := s.ledger.Bump(req.ChangeType, req.Author, req.Comment)
	s.observeHistory()
	s.mu.Unlock()
	if err != nil {
		return models.Entry{}, err
	}
	s.notify(ChangeVersion, entry.Version)
	return entry, nil
}

// Export bumps the version and produces the document, the JSON payload and
// its file name. The approver must be set. Writing the export file and
// archiving it are best effort.
func (s *Session) Export(ctx context.Context, req BumpRequest) (*ExportResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	s.mu.Lock()
	current := s.tree.Snapshot()
	if current.Validation.Approver.Name == "" {
		s.mu.Unlock()
		return nil, apperr.ErrApproverRequired
	}
	entry, err := s.ledger.Bump(req.ChangeType, req.Author, req.Comment)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.observeHistory()
	p := s.snapshot()
	s.mu.Unlock()

	p.Version = entry.Version
	p.Author = entry.Author

	now := s.now()
	payload, err := procedure.Encode(p)
	if err != nil {
		return nil, err
	}
	res := &ExportResult{
		Entry:     entry,
		Procedure: p,
		Document:  document.Assemble(p, document.Options{PrintedAt: now}),
		Filename:  document.Filename(p.Title, entry.Version, now),
		Payload:   payload,
	}

	if s.files != nil {
		if err := s.files.Write(archive.ExportDir+"/"+res.Filename, payload); err != nil {
			s.logger.Warn("session: write export failed", slog.String("filename", res.Filename), slog.String("error", err.Error()))
		}
	}
	if s.archive != nil && ctx.Err() == nil {
		id, err := s.archive.Record(archive.Record{
			Filename:        res.Filename,
			Version:         entry.Version,
			PreviousVersion: entry.PreviousVersion,
			Title:           p.Title,
			Reference:       p.Reference,
			ChangeType:      string(entry.ChangeType),
			Author:          entry.Author,
			Comment:         entry.Comment,
			Checksum:        checksum.Sum(payload),
			Payload:         string(payload),
			ExportedAt:      now,
		})
		if err != nil {
			s.logger.Warn("session: archive export failed", slog.String("filename", res.Filename), slog.String("error", err.Error()))
		} else {
			res.ArchiveID = id
		}
	}
	if s.metrics != nil {
		s.metrics.Exports.WithLabelValues(string(entry.ChangeType)).Inc()
	}

	s.logger.Info("procedure exported",
		slog.String("version", entry.Version),
		slog.String("filename", res.Filename),
		slog.String("author", entry.Author))
	s.notify(ChangeExported, res.Filename)
	return res, nil
}

// Import replaces the procedure with a decoded file. A file that fails to
// decode leaves the session untouched. When the file carries a version
// history the ledger adopts it.
func (s *Session) Import(data []byte, f procedure.Format) error {
	p, err := procedure.Decode(data, f)
	if err == nil {
		err = s.checkImportedLogo(&p)
	}
	if err != nil {
		s.countImport(metrics.ResultError)
		return err
	}

	s.mu.Lock()
	s.tree.Load(p)
	if p.VersionHistory != nil {
		s.ledger.Adopt(p.Version, p.VersionHistory)
		s.observeHistory()
	}
	s.mu.Unlock()

	s.countImport(metrics.ResultOK)
	s.logger.Info("procedure imported", slog.String("title", p.Title), slog.Int("history", len(p.VersionHistory)))
	s.notify(ChangeImported, p.Title)
	return nil
}

// checkImportedLogo applies the upload policy to the logoData of an imported
// file and rewrites it in canonical form.
func (s *Session) checkImportedLogo(p *models.Procedure) error {
	if p.LogoData == nil || *p.LogoData == "" {
		p.LogoData = nil
		return nil
	}
	l, err := procedure.DecodeDataURI(*p.LogoData)
	if err != nil {
		return fmt.Errorf("logoData: %w", err)
	}
	mt, err := s.logo.Check(l.MIMEType, int64(len(l.Data)))
	if err != nil {
		return fmt.Errorf("%w: logoData: %w", apperr.ErrInvalidImport, err)
	}
	l.MIMEType = mt
	uri := procedure.EncodeDataURI(l)
	p.LogoData = &uri
	return nil
}

func (s *Session) countImport(result string) {
	if s.metrics != nil {
		s.metrics.Imports.WithLabelValues(result).Inc()
	}
}

// ArchivedExports lists archived exports, newest first.
func (s *Session) ArchivedExports(limit, offset int) ([]archive.Record, int, error) {
	if s.archive == nil {
		return []archive.Record{}, 0, nil
	}
	return s.archive.List(limit, offset)
}

// ArchivedExport returns one archived export with its payload.
func (s *Session) ArchivedExport(id int64) (*archive.Record, error) {
	if s.archive == nil {
		return nil, apperr.ErrNotFound
	}
	return s.archive.Get(id)
}

// SearchExports searches the archived exports.
func (s *Session) SearchExports(query string, limit int) ([]archive.SearchResult, error) {
	if s.archive == nil {
		return []archive.SearchResult{}, nil
	}
	return s.archive.Search(query, limit)
}
