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
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP behind proxies
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/projects/*       Projects, budgets, contracts
  /api/budget-lines/*   Per-line edits
  /api/contractors/*    Contractor directory
  /api/contracts/*      Schedule of values and payment applications
  /api/applications/*   Application decisions

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Project routes
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{id}", h.GetProject)
			r.Get("/{id}/budget", h.GetBudgetSummary)
			r.Post("/{id}/budget/lines", h.CreateBudgetLine)
			r.Post("/{id}/budget/import", h.ImportBudgetLines)
			r.Get("/{id}/contracts", h.ListContracts)
			r.Post("/{id}/contracts", h.CreateContract)
		})

		// Budget line routes
		r.Route("/budget-lines", func(r chi.Router) {
			r.Patch("/{id}", h.UpdateBudgetLine)
			r.Delete("/{id}", h.DeleteBudgetLine)
		})

		// Contractor routes
		r.Route("/contractors", func(r chi.Router) {
			r.Get("/", h.ListContractors)
			r.Post("/", h.CreateContractor)
		})

		// Contract routes
		r.Route("/contracts", func(r chi.Router) {
			r.Get("/{id}", h.GetContract)
			r.Patch("/{id}", h.UpdateContract)
			r.Get("/{id}/sov", h.ListSOVLines)
			r.Post("/{id}/sov", h.CreateSOVLine)
			r.Put("/{id}/sov/order", h.ReorderSOVLines)
			r.Get("/{id}/applications", h.ListApplications)
			r.Post("/{id}/applications", h.SubmitApplication)
			r.Post("/{id}/applications/preview", h.PreviewApplication)
		})

		// Application decision routes
		r.Route("/applications", func(r chi.Router) {
			r.Post("/{id}/approve", h.ApproveApplication)
			r.Post("/{id}/reject", h.RejectApplication)
		})
	})

	return r
}
