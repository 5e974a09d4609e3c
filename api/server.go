/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the mini app frontend

ROUTE GROUPS:
  /api/projects/*    Projects, professions, shifts, CSV export
  /api/shifts/*      Shift lifecycle and earnings
  /api/users/*       Pending shifts
  /api/scenarios/*   Demo scenarios
  /api/reset         Database reset (dev only)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. An empty
// origins list allows any origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{projectID}", h.GetProject)
			r.Get("/{projectID}/profession", h.GetProfession)
			r.Put("/{projectID}/profession", h.PutProfession)
			r.Get("/{projectID}/shifts", h.ListShifts)
			r.Post("/{projectID}/shifts", h.CreateShift)
			r.Get("/{projectID}/earnings.csv", h.ExportEarningsCSV)
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/{id}", h.GetShift)
			r.Post("/{id}/confirm", h.ConfirmShift)
			r.Post("/{id}/calculate", h.CalculateShift)
			r.Get("/{id}/earnings", h.GetShiftEarnings)
		})

		r.Route("/users/{userID}/pending", func(r chi.Router) {
			r.Get("/", h.GetPending)
			r.Put("/", h.PutPending)
			r.Delete("/", h.CancelPending)
			r.Post("/confirm", h.ConfirmPending)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
