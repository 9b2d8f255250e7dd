package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/procforge/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(sess *session.Session, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(sess)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Procedure and its scalar fields.
	r.Get("/procedure", h.GetProcedure)
	r.Put("/procedure", h.PutProcedure)
	r.Get("/procedure/fields/{field}", h.GetField(""))
	r.Put("/procedure/fields/{field}", h.PutField(""))
	r.Route("/procedure/lists/{list}", h.listRoutes(prerequisiteList))

	// Steps → actions → scenarios.
	r.Post("/procedure/steps", h.AddStep)
	r.Delete("/procedure/steps/{step}", h.RemoveStep)
	r.Get("/procedure/steps/{step}/fields/{field}", h.GetField("step"))
	r.Put("/procedure/steps/{step}/fields/{field}", h.PutField("step"))
	r.Route("/procedure/steps/{step}/controls", h.listRoutes(controlsList))
	r.Post("/procedure/steps/{step}/actions", h.AddAction)

	r.Delete("/procedure/actions/{action}", h.RemoveAction)
	r.Get("/procedure/actions/{action}/fields/{field}", h.GetField("action"))
	r.Put("/procedure/actions/{action}/fields/{field}", h.PutField("action"))
	r.Post("/procedure/actions/{action}/scenarios", h.AddScenario)

	r.Delete("/procedure/scenarios/{scenario}", h.RemoveScenario)
	r.Get("/procedure/scenarios/{scenario}/fields/{field}", h.GetField("scenario"))
	r.Put("/procedure/scenarios/{scenario}/fields/{field}", h.PutField("scenario"))
	r.Route("/procedure/scenarios/{scenario}/steps", h.listRoutes(scenarioStepsList))

	// Versioning, export and import.
	r.Get("/version", h.GetVersion)
	r.Get("/version/history", h.GetHistory)
	r.Post("/version/bump", h.Bump)
	r.Post("/export", h.Export)
	r.Post("/import", h.Import)

	// Archive of past exports.
	r.Get("/exports", h.ListExports)
	r.Get("/exports/search", h.SearchExports)
	r.Get("/exports/{id}", h.GetExport)

	// Preview.
	r.Get("/document", h.GetDocument)

	// Logo.
	r.Get("/logo", h.GetLogo)
	r.Post("/logo", h.UploadLogo)
	r.Delete("/logo", h.DeleteLogo)

	r.Post("/reset", h.Reset)
	r.Post("/example", h.LoadExample)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
