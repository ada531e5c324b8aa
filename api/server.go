/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, also written to error logs
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontends

ROUTE GROUPS:
  /api/organizations/*  Organizations, work types, holidays, batch payroll
  /api/employees/*      Employees, shifts, bonuses, payroll, exports
  /api/settings/*       Platform settings
  /api/calc/*           Stateless calculator
  /api/scenarios/*      Demo data (resets the database)
  /healthz              Liveness + database ping

SECURITY NOTE:
  No authentication middleware. Deploy behind an authenticating proxy.

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
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", h.ListOrganizations)
			r.Post("/", h.CreateOrganization)
			r.Get("/{id}", h.GetOrganization)
			r.Put("/{id}", h.UpdateOrganization)
			r.Put("/{id}/work-types/{workTypeID}", h.PutWorkType)
			r.Get("/{id}/holidays", h.ListHolidays)
			r.Post("/{id}/holidays", h.CreateHoliday)
			r.Get("/{id}/payroll", h.GetOrganizationPayroll)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/shifts", h.ListShifts)
			r.Post("/{id}/shifts", h.CreateShift)
			r.Get("/{id}/bonuses", h.ListBonuses)
			r.Post("/{id}/bonuses", h.CreateBonus)
			r.Get("/{id}/payroll", h.GetPayroll)
			r.Post("/{id}/payroll/finalize", h.FinalizePayroll)
			r.Get("/{id}/payroll/export.xlsx", h.ExportPayroll)
			r.Get("/{id}/payroll/payslip.pdf", h.Payslip)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/timezone", h.GetTimezone)
			r.Put("/timezone", h.PutTimezone)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		r.Route("/calc", func(r chi.Router) {
			r.Post("/shift", h.CalcShift)
			r.Get("/duration", h.CalcDuration)
			r.Get("/amount", h.CalcAmount)
			r.Get("/national-id", h.CalcNationalID)
		})
	})

	return r
}

// Health reports liveness and database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.fail(w, r, http.StatusServiceUnavailable, "Database unreachable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"driver": h.Store.Driver(),
	})
}
