package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/procforge/internal/procedure"
	"github.com/starford/procforge/internal/render"
	"github.com/starford/procforge/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	sess     *session.Session
	markdown *render.MarkdownRenderer
}

// NewHandler creates a new Handler.
func NewHandler(sess *session.Session) *Handler {
	return &Handler{sess: sess, markdown: render.NewMarkdownRenderer()}
}

func (h *Handler) procedureResponse() ProcedureResponse {
	resp := ProcedureResponse{Procedure: h.sess.Snapshot()}
	_ = h.sess.View(func(t *procedure.Tree) error {
		resp.Outline = t.Outline()
		return nil
	})
	return resp
}

// GetProcedure handles GET /api/procedure.
//
//	@Summary		Get the procedure being edited
//	@Tags			procedure
//	@Produce		json
//	@Success		200	{object}	ProcedureResponse
//	@Security		BearerAuth
//	@Router			/procedure [get]
func (h *Handler) GetProcedure(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.procedureResponse())
}

// PutProcedure handles PUT /api/procedure. The body replaces the whole
// procedure, with the same rules as an import.
//
//	@Summary		Replace the procedure
//	@Tags			procedure
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	ProcedureResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/procedure [put]
func (h *Handler) PutProcedure(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	if err := h.sess.Import(body, procedure.FormatJSON); err != nil {
		writeError(w, "replace procedure", err)
		return
	}
	writeJSON(w, http.StatusOK, h.procedureResponse())
}

// fieldID builds the field address from the {field} param and, when
// nodeParam is set, the node id param. The param name is also the node kind
// the route accepts.
func fieldID(r *http.Request, nodeParam string) procedure.FieldID {
	f := procedure.FieldID{Name: chi.URLParam(r, "field")}
	if nodeParam != "" {
		f.Node = chi.URLParam(r, nodeParam)
		f.Kind = procedure.NodeKind(nodeParam)
	}
	return f
}

// GetField returns a handler for GET .../fields/{field}. nodeParam names
// the URL param holding the node id, empty for procedure fields.
func (h *Handler) GetField(nodeParam string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := fieldID(r, nodeParam)
		var value string
		err := h.sess.View(func(t *procedure.Tree) error {
			var err error
			value, err = t.Field(f)
			return err
		})
		if err != nil {
			writeError(w, "get field", err)
			return
		}
		writeJSON(w, http.StatusOK, FieldResponse{Field: f.Name, Value: value})
	}
}

// PutField returns a handler for PUT .../fields/{field}.
func (h *Handler) PutField(nodeParam string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FieldRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		f := fieldID(r, nodeParam)
		if err := h.sess.SetField(f, req.Value); err != nil {
			writeError(w, "set field", err)
			return
		}
		writeJSON(w, http.StatusOK, FieldResponse{Field: f.Name, Value: req.Value})
	}
}

// AddStep handles POST /api/procedure/steps.
func (h *Handler) AddStep(w http.ResponseWriter, _ *http.Request) {
	id := h.sess.AddStep()
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: string(id)})
}

// RemoveStep handles DELETE /api/procedure/steps/{step}.
func (h *Handler) RemoveStep(w http.ResponseWriter, r *http.Request) {
	id := procedure.StepID(chi.URLParam(r, "step"))
	if err := h.sess.Edit(func(t *procedure.Tree) error { return t.RemoveStep(id) }); err != nil {
		writeError(w, "remove step", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddAction handles POST /api/procedure/steps/{step}/actions.
func (h *Handler) AddAction(w http.ResponseWriter, r *http.Request) {
	step := procedure.StepID(chi.URLParam(r, "step"))
	var id procedure.ActionID
	err := h.sess.Edit(func(t *procedure.Tree) error {
		var err error
		id, err = t.AddAction(step)
		return err
	})
	if err != nil {
		writeError(w, "add action", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: string(id)})
}

// RemoveAction handles DELETE /api/procedure/actions/{action}.
func (h *Handler) RemoveAction(w http.ResponseWriter, r *http.Request) {
	id := procedure.ActionID(chi.URLParam(r, "action"))
	if err := h.sess.Edit(func(t *procedure.Tree) error { return t.RemoveAction(id) }); err != nil {
		writeError(w, "remove action", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddScenario handles POST /api/procedure/actions/{action}/scenarios.
func (h *Handler) AddScenario(w http.ResponseWriter, r *http.Request) {
	action := procedure.ActionID(chi.URLParam(r, "action"))
	var id procedure.ScenarioID
	err := h.sess.Edit(func(t *procedure.Tree) error {
		var err error
		id, err = t.AddScenario(action)
		return err
	})
	if err != nil {
		writeError(w, "add scenario", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: string(id)})
}

// RemoveScenario handles DELETE /api/procedure/scenarios/{scenario}.
func (h *Handler) RemoveScenario(w http.ResponseWriter, r *http.Request) {
	id := procedure.ScenarioID(chi.URLParam(r, "scenario"))
	if err := h.sess.Edit(func(t *procedure.Tree) error { return t.RemoveScenario(id) }); err != nil {
		writeError(w, "remove scenario", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /api/reset.
func (h *Handler) Reset(w http.ResponseWriter, _ *http.Request) {
	h.sess.Reset()
	writeJSON(w, http.StatusOK, h.procedureResponse())
}

// LoadExample handles POST /api/example.
func (h *Handler) LoadExample(w http.ResponseWriter, _ *http.Request) {
	h.sess.LoadExample()
	writeJSON(w, http.StatusOK, h.procedureResponse())
}
