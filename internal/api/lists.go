package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/procforge/internal/apperr"
	"github.com/starford/procforge/internal/procedure"
)

// listResolver maps a request to the list it addresses.
type listResolver func(r *http.Request) (procedure.ListRef, error)

func prerequisiteList(r *http.Request) (procedure.ListRef, error) {
	name := chi.URLParam(r, "list")
	kind, ok := procedure.ParsePrerequisite(name)
	if !ok {
		return procedure.ListRef{}, fmt.Errorf("list %q: %w", name, apperr.ErrNotFound)
	}
	return procedure.Prerequisite(kind), nil
}

func controlsList(r *http.Request) (procedure.ListRef, error) {
	return procedure.Controls(procedure.StepID(chi.URLParam(r, "step"))), nil
}

func scenarioStepsList(r *http.Request) (procedure.ListRef, error) {
	return procedure.ScenarioSteps(procedure.ScenarioID(chi.URLParam(r, "scenario"))), nil
}

// listRoutes mounts the row endpoints of one kind of list.
func (h *Handler) listRoutes(resolve listResolver) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.listRows(resolve))
		r.Post("/", h.addRow(resolve))
		r.Put("/{index}", h.setRow(resolve))
		r.Delete("/{index}", h.removeRow(resolve))
	}
}

func rowIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, fmt.Errorf("row index %q: %w", chi.URLParam(r, "index"), apperr.ErrValidation)
	}
	return i, nil
}

func (h *Handler) listRows(resolve listResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := resolve(r)
		if err != nil {
			writeError(w, "list rows", err)
			return
		}
		var rows []procedure.Row
		err = h.sess.View(func(t *procedure.Tree) error {
			var err error
			rows, err = t.ListItems(ref)
			return err
		})
		if err != nil {
			writeError(w, "list rows", err)
			return
		}
		writeJSON(w, http.StatusOK, ListResponse{Rows: rows})
	}
}

func (h *Handler) addRow(resolve listResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := resolve(r)
		if err != nil {
			writeError(w, "add row", err)
			return
		}
		var index int
		err = h.sess.Edit(func(t *procedure.Tree) error {
			var err error
			index, err = t.AddListItem(ref)
			return err
		})
		if err != nil {
			writeError(w, "add row", err)
			return
		}
		writeJSON(w, http.StatusCreated, RowCreatedResponse{Index: index})
	}
}

func (h *Handler) setRow(resolve listResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := resolve(r)
		if err != nil {
			writeError(w, "set row", err)
			return
		}
		index, err := rowIndex(r)
		if err != nil {
			writeError(w, "set row", err)
			return
		}
		var req FieldRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := h.sess.Edit(func(t *procedure.Tree) error {
			return t.SetListItem(ref, index, req.Value)
		}); err != nil {
			writeError(w, "set row", err)
			return
		}
		h.listRows(func(*http.Request) (procedure.ListRef, error) { return ref, nil })(w, r)
	}
}

func (h *Handler) removeRow(resolve listResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := resolve(r)
		if err != nil {
			writeError(w, "remove row", err)
			return
		}
		index, err := rowIndex(r)
		if err != nil {
			writeError(w, "remove row", err)
			return
		}
		if err := h.sess.Edit(func(t *procedure.Tree) error {
			return t.RemoveListItem(ref, index)
		}); err != nil {
			writeError(w, "remove row", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
