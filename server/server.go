/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions
  for the reference development backend. This is the wiring layer that
  connects URLs to handlers.

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
  4. CORS:       Cross-origin requests for local frontends

ROUTE GROUPS:
  /api/commodities/*       Commodity reference data
  /api/prices/last         Last-price lookup (advisory)
  /api/records/{kind}/*    Purchase/sale record CRUD
  /api/journal             Journal entry submission
  /api/balance/snapshot    System balance snapshot

SECURITY NOTE:
  No authentication middleware. This backend is a development stand-in for
  the production system of record; never expose it publicly.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package server

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
		// Commodity reference data
		r.Route("/commodities", func(r chi.Router) {
			r.Get("/", h.ListCommodities)
			r.Get("/{id}", h.GetCommodity)
		})

		// Price history
		r.Get("/prices/last", h.LastPrice)

		// Trade record CRUD, one set per kind
		r.Route("/records/{kind}", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Post("/", h.CreateRecord)
			r.Get("/{id}", h.GetRecord)
			r.Put("/{id}", h.UpdateRecord)
			r.Delete("/{id}", h.DeleteRecord)
		})

		// Journal
		r.Post("/journal", h.CreateJournalEntry)

		// Balance snapshot
		r.Get("/balance/snapshot", h.BalanceSnapshot)
	})

	return r
}
