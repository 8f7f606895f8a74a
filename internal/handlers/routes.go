package handlers

import (
	"github.com/gatehouse/gatepass/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Routes builds the API surface. Role groups mirror the stations in the
// building: guests file requests, hosts review them, security runs the
// desk, admins watch everything.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.With(h.RateLimit).Post("/register", h.Register)
		r.With(h.RateLimit).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
	})

	r.Route("/visits", func(r chi.Router) {
		r.Use(h.Authenticate)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(domain.RoleGuest))
			r.Post("/", h.CreateVisit)
			r.Get("/me", h.ListMyVisits)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(domain.RoleHost))
			r.Get("/host", h.ListHostVisits)
			r.Patch("/{id}/approve", h.ApproveVisit)
			r.Patch("/{id}/reject", h.RejectVisit)
		})
	})

	r.Route("/passes", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Use(h.RequireRole(domain.RoleSecurity))

		r.Get("/pending", h.ListPending)
		r.Patch("/{id}/approve", h.ApprovePass)
		r.Patch("/{id}/reject", h.RejectPass)
		r.Post("/check-in", h.CheckIn)
		r.Post("/check-out", h.CheckOut)
		r.Get("/{code}", h.GetPassByCode)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Use(h.RequireRole(domain.RoleAdmin))

		r.Get("/users", h.ListUsers)
		r.Patch("/users/{id}/role", h.UpdateUserRole)
		r.Get("/reports/log", h.AuditReport)
		r.Get("/reports/present", h.PresentReport)
		r.Get("/stats", h.Stats)
	})

	return r
}
