package http

import (
	"net/http"

	"github.com/predialis/predialis/internal/adapter/ws"
	"github.com/predialis/predialis/internal/domain/authz"
	"github.com/predialis/predialis/internal/middleware"
	"github.com/predialis/predialis/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Auth     *service.AuthService
	Resolver *service.Resolver
	Tenants  *service.TenantService
	Hub      *ws.Hub
}

// Health handles GET /healthz
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// MyContext handles GET /api/v1/my/context
// It echoes back the authorization context bound for this request so clients
// can see which tenant and role their calls run under.
func (h *Handlers) MyContext(w http.ResponseWriter, r *http.Request) {
	ac := middleware.AuthzFromContext(r.Context())
	if !ac.Authenticated() {
		writeAuthzError(w, authz.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, ac)
}

// WSTicket handles POST /api/v1/ws/ticket
// It issues a short-lived single-use ticket that carries the caller's bound
// authorization context into the WebSocket upgrade, where the Authorization
// header is not available.
func (h *Handlers) WSTicket(w http.ResponseWriter, r *http.Request) {
	ac := middleware.AuthzFromContext(r.Context())
	if !ac.TenantBound() {
		writeAuthzError(w, authz.ErrNoTenantSelected)
		return
	}

	ticket, err := service.NewWSTicket()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	h.Hub.IssueTicket(ticket, ac)

	writeJSON(w, http.StatusOK, map[string]string{"ticket": ticket})
}
