package api

import (
	"net/http"
	"strconv"

	"github.com/starford/procforge/internal/render"
)

const defaultTextWidth = 80

// documentFormat renders the preview in one output format.
type documentFormat struct {
	contentType string
	render      func(h *Handler, r *http.Request) ([]byte, error)
}

var documentFormats = map[string]documentFormat{
	"html": {"text/html; charset=utf-8", func(h *Handler, _ *http.Request) ([]byte, error) {
		return render.HTML(h.sess.Preview())
	}},
	"markdown": {"text/markdown; charset=utf-8", func(h *Handler, _ *http.Request) ([]byte, error) {
		out, err := h.markdown.Render(h.sess.Preview())
		return []byte(out), err
	}},
	"text": {"text/plain; charset=utf-8", func(h *Handler, r *http.Request) ([]byte, error) {
		width, _ := strconv.Atoi(r.URL.Query().Get("width"))
		if width <= 0 {
			width = defaultTextWidth
		}
		return []byte(render.Terminal(h.sess.Preview(), width)), nil
	}},
}

// GetDocument handles GET /api/document. The preview never bumps the
// version.
//
//	@Summary		Render the document preview
//	@Tags			document
//	@Produce		json,html,plain
//	@Param			format	query	string	false	"Output format"	Enums(json, html, markdown, text)
//	@Param			width	query	int		false	"Line width of the text format"
//	@Success		200
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/document [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" || name == "json" {
		writeJSON(w, http.StatusOK, h.sess.Preview())
		return
	}
	f, ok := documentFormats[name]
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown format "+strconv.Quote(name)))
		return
	}
	out, err := f.render(h, r)
	if err != nil {
		writeError(w, "render document", err)
		return
	}
	w.Header().Set("Content-Type", f.contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
