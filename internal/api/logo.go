package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/starford/procforge/internal/procedure"
)

// multipartOverhead is the slack allowed on top of the logo size limit for
// the multipart envelope.
const (
	multipartOverhead = 1 << 20
	maxUploadBytes    = 50 << 20
)

// UploadLogo handles POST /api/logo (multipart/form-data, field "file").
// The part's Content-Type decides the image type.
func (h *Handler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	limit := h.sess.LogoPolicy().MaxBytes
	if limit <= 0 {
		limit = maxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(limit + multipartOverhead); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if err := h.sess.SetLogo(data, mimeType); err != nil {
		writeError(w, "upload logo", err)
		return
	}

	var stored string
	_ = h.sess.View(func(t *procedure.Tree) error {
		if l, ok := t.Logo(); ok {
			stored = l.MIMEType
		}
		return nil
	})
	writeJSON(w, http.StatusCreated, LogoUploadResponse{MIMEType: stored, Size: int64(len(data))})
}

// GetLogo handles GET /api/logo and serves the stored image.
func (h *Handler) GetLogo(w http.ResponseWriter, r *http.Request) {
	var (
		mimeType string
		data     []byte
		ok       bool
	)
	_ = h.sess.View(func(t *procedure.Tree) error {
		l, has := t.Logo()
		mimeType, data, ok = l.MIMEType, l.Data, has
		return nil
	})
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteLogo handles DELETE /api/logo.
func (h *Handler) DeleteLogo(w http.ResponseWriter, _ *http.Request) {
	h.sess.ClearLogo()
	w.WriteHeader(http.StatusNoContent)
}
