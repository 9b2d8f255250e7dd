package api

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/procforge/internal/procedure"
)

// GetVersion handles GET /api/version.
func (h *Handler) GetVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: h.sess.CurrentVersion()})
}

// GetHistory handles GET /api/version/history.
//
//	@Summary		Version history, most recent first
//	@Tags			version
//	@Produce		json
//	@Success		200	{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/version/history [get]
func (h *Handler) GetHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HistoryResponse{
		History: h.sess.History(),
		Rows:    h.sess.HistoryTable(),
	})
}

// Bump handles POST /api/version/bump.
func (h *Handler) Bump(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.sess.Bump(req)
	if err != nil {
		writeError(w, "bump version", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Export handles POST /api/export. With ?download=1 the exported JSON file
// is returned as an attachment instead of the export summary.
//
//	@Summary		Bump the version and export the procedure
//	@Tags			export
//	@Accept			json
//	@Produce		json
//	@Param			body		body		ExportRequest	true	"Version bump"
//	@Param			download	query		bool			false	"Return the file"
//	@Success		201			{object}	ExportResponse
//	@Failure		400			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.sess.Export(r.Context(), req)
	if err != nil {
		writeError(w, "export", err)
		return
	}
	if wantDownload(r) {
		writeAttachment(w, res.Filename, res.Payload)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Import handles POST /api/import. The format comes from ?format=, then the
// Content-Type, then ?filename= and the body itself.
//
//	@Summary		Import a procedure file
//	@Tags			export
//	@Accept			json
//	@Produce		json
//	@Param			format		query		string	false	"File format"	Enums(json, yaml)
//	@Param			filename	query		string	false	"Original file name"
//	@Success		200			{object}	ProcedureResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	f, err := importFormat(r, body)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	if err := h.sess.Import(body, f); err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, h.procedureResponse())
}

func importFormat(r *http.Request, body []byte) (procedure.Format, error) {
	if q := r.URL.Query().Get("format"); q != "" {
		return procedure.ParseFormat(q)
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		switch mt {
		case "application/yaml", "application/x-yaml", "text/yaml":
			return procedure.FormatYAML, nil
		case "application/json":
			return procedure.FormatJSON, nil
		}
	}
	return procedure.DetectFormat(r.URL.Query().Get("filename"), body), nil
}

// ListExports handles GET /api/exports.
func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.sess.ArchivedExports(limit, offset)
	if err != nil {
		writeError(w, "list exports", err)
		return
	}
	writeJSON(w, http.StatusOK, ExportListResponse{Exports: items, Total: total})
}

// GetExport handles GET /api/exports/{id}. With ?download=1 the archived
// file is returned as an attachment.
func (h *Handler) GetExport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid export id"))
		return
	}
	rec, err := h.sess.ArchivedExport(id)
	if err != nil {
		writeError(w, "get export", err)
		return
	}
	if wantDownload(r) {
		writeAttachment(w, rec.Filename, []byte(rec.Payload))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SearchExports handles GET /api/exports/search.
//
//	@Summary		Full-text search across archived exports
//	@Tags			export
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exports/search [get]
func (h *Handler) SearchExports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.sess.SearchExports(q, limit)
	if err != nil {
		writeError(w, "search exports", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func wantDownload(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("download"))
	return ok
}

func writeAttachment(w http.ResponseWriter, filename string, payload []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
