package http

import (
	"net/http"

	"github.com/predialis/predialis/internal/domain/authz"
	"github.com/predialis/predialis/internal/domain/membership"
	"github.com/predialis/predialis/internal/domain/tenant"
	"github.com/predialis/predialis/internal/middleware"
)

// ListTenants handles GET /api/v1/tenants (admin only)
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Tenants.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	writeJSON(w, http.StatusOK, tenants)
}

// CreateTenant handles POST /api/v1/tenants (admin only)
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.CreateRequest](w, r)
	if !ok {
		return
	}

	t, err := h.Tenants.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "tenant creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// GetTenant handles GET /api/v1/tenants/{id}
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	t, err := h.Tenants.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateTenant handles PUT /api/v1/tenants/{id} (admin only)
func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[tenant.UpdateRequest](w, r)
	if !ok {
		return
	}

	t, err := h.Tenants.Update(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// MyTenants handles GET /api/v1/my/tenants
// It lists the tenants the caller belongs to, for tenant selection.
func (h *Handlers) MyTenants(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	if ident == nil {
		writeAuthzError(w, authz.ErrUnauthenticated)
		return
	}

	tenants, err := h.Tenants.ListForUser(r.Context(), ident.ID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if tenants == nil {
		tenants = []membership.UserTenant{}
	}
	writeJSON(w, http.StatusOK, tenants)
}
