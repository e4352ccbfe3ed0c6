package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/predialis/predialis/internal/domain/membership"
	"github.com/predialis/predialis/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router. The caller
// is expected to have mounted the Identity and BindTenant middleware above
// this router; the guards here only narrow access further.
func MountRoutes(r chi.Router, h *Handlers, loginLimiter *middleware.RateLimiter) {
	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Authentication. Login and refresh are anonymous; the rate
		// limiter keeps credential stuffing off the login endpoint.
		r.Group(func(r chi.Router) {
			if loginLimiter != nil {
				r.Use(loginLimiter.Handler)
			}
			r.Post("/auth/login", h.Login)
			r.Post("/auth/refresh", h.Refresh)
		})
		r.With(middleware.RequireIdentity).Post("/auth/logout", h.Logout)
		r.With(middleware.RequireIdentity).Get("/auth/me", h.Me)
		r.With(middleware.RequireIdentity).Post("/auth/change-password", h.ChangePassword)

		// Tenant-independent: selection data and context echo.
		r.With(middleware.RequireIdentity).Get("/my/tenants", h.MyTenants)
		r.With(middleware.RequireIdentity).Get("/my/context", h.MyContext)

		// Condominium administration (global admins only).
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity, middleware.RequireGlobalAdmin)
			r.Post("/tenants", h.CreateTenant)
			r.Get("/tenants", h.ListTenants)
			r.Get("/tenants/{id}", h.GetTenant)
			r.Put("/tenants/{id}", h.UpdateTenant)
			r.Post("/users", h.RegisterUser)
			r.Put("/admin/modules/{key}", h.SetGlobalModule)
		})

		// Tenant-scoped: a bound tenant is required, managers mutate.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity, middleware.RequireTenant)
			r.Get("/members", h.ListMembers)
			r.Get("/modules", h.ListModules)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(membership.RoleManager))
				r.Post("/members", h.GrantMembership)
				r.Delete("/members/{userId}", h.RevokeMembership)
				r.Put("/modules/{key}", h.SetModule)
			})
		})

		// WebSocket upgrade ticket.
		r.With(middleware.RequireIdentity, middleware.RequireTenant).
			Post("/ws/ticket", h.WSTicket)
	})

	// The upgrade itself authenticates via the single-use ticket.
	r.Get("/ws", h.Hub.HandleWS)
}
