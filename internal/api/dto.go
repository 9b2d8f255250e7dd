package api

import (
	"github.com/starford/procforge/internal/archive"
	"github.com/starford/procforge/internal/ledger"
	"github.com/starford/procforge/internal/models"
	"github.com/starford/procforge/internal/procedure"
	"github.com/starford/procforge/internal/session"
)

// ProcedureResponse is the full procedure with the id skeleton editors use
// to address steps, actions and scenarios.
type ProcedureResponse struct {
	Procedure models.Procedure  `json:"procedure" validate:"required"`
	Outline   procedure.Outline `json:"outline" validate:"required"`
}

// FieldRequest is the request body for writing a scalar field.
type FieldRequest struct {
	Value string `json:"value" example:"Redémarrage du cluster"`
}

// FieldResponse is one scalar field.
type FieldResponse struct {
	Field string `json:"field" example:"title" validate:"required"`
	Value string `json:"value" example:"Redémarrage du cluster"`
}

// CreatedResponse carries the id of a new step, action or scenario.
type CreatedResponse struct {
	ID string `json:"id" example:"6f1c2a9e-8d43-4c55-a3f1-1b2f0e7d9c10" validate:"required"`
}

// ListResponse wraps the rows of an editable list.
type ListResponse struct {
	Rows []procedure.Row `json:"rows" validate:"required"`
}

// RowCreatedResponse carries the index of a new list row.
type RowCreatedResponse struct {
	Index int `json:"index" example:"1"`
}

// VersionResponse is the current version.
type VersionResponse struct {
	Version string `json:"version" example:"1.2.0" validate:"required"`
}

// HistoryResponse wraps the version history, most recent first, with its
// display rows.
type HistoryResponse struct {
	History []models.Entry    `json:"history" validate:"required"`
	Rows    []ledger.TableRow `json:"rows" validate:"required"`
}

// ExportRequest is the request body of an export or a bump.
type ExportRequest = session.BumpRequest

// ExportResponse is returned after a successful export.
type ExportResponse = session.ExportResult

// ExportListResponse wraps paginated archived exports.
type ExportListResponse struct {
	Exports []archive.Record `json:"exports" validate:"required"`
	Total   int              `json:"total" example:"12" validate:"required"`
}

// SearchResponse wraps archive search hits.
type SearchResponse struct {
	Results []archive.SearchResult `json:"results" validate:"required"`
}

// LogoUploadResponse is returned after a successful logo upload.
type LogoUploadResponse struct {
	MIMEType string `json:"mimeType" example:"image/png" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
}
