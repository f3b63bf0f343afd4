/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/shifts/*          Shift CRUD and bulk operations
  /api/assignments/*     Slot assignment, removal, substitution
  /api/conflicts/*       Derived conflict view and resolution
  /api/finalizations/*   Roster locking and password-gated reopen
  /api/movements         Movement audit (read-only)
  /api/resolutions       Resolution ledger (read-only)
  /api/values/resolve    Resolver preview for the admin UI
  /api/rates             Sector/individual rate upserts
  /api/sectors, /api/people   Reference data

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Shift routes
		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Post("/", h.CreateShift)
			r.Put("/{id}", h.UpdateShift)
			r.Delete("/{id}", h.DeleteShift)
			r.Post("/bulk", h.BulkCreateShifts)
			r.Post("/bulk-delete", h.BulkDeleteShifts)
		})

		// Assignment routes
		r.Route("/assignments", func(r chi.Router) {
			r.Post("/", h.CreateAssignment)
			r.Delete("/{id}", h.DeleteAssignment)
			r.Post("/{id}/substitute", h.Substitute)
		})

		// Conflict routes
		r.Route("/conflicts", func(r chi.Router) {
			r.Get("/", h.ListConflicts)
			r.Post("/{id}/acknowledge", h.AcknowledgeConflict)
			r.Post("/{id}/remove", h.RemoveConflictAssignment)
		})

		// Finalization routes
		r.Route("/finalizations", func(r chi.Router) {
			r.Get("/", h.ListFinalizations)
			r.Post("/", h.Finalize)
			r.Post("/reopen", h.Reopen)
			r.Post("/password", h.ChangeReopenPassword)
		})

		// Audit routes
		r.Get("/movements", h.ListMovements)
		r.Get("/resolutions", h.ListResolutions)

		// Value routes
		r.Post("/values/resolve", h.ResolveValue)
		r.Post("/rates", h.UpsertRate)

		// Reference data routes
		r.Post("/sectors", h.SaveSector)
		r.Post("/people", h.SavePerson)
	})

	return r
}
