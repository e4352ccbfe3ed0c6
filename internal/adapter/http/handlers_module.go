package http

import (
	"net/http"

	"github.com/predialis/predialis/internal/domain/module"
	"github.com/predialis/predialis/internal/middleware"
)

// ListModules handles GET /api/v1/modules
// It returns the effective module flags for the bound tenant: tenant rows
// layered over global rows, absent keys implied enabled.
func (h *Handlers) ListModules(w http.ResponseWriter, r *http.Request) {
	ac := middleware.AuthzFromContext(r.Context())
	perms, err := h.Tenants.Modules(r.Context(), ac.TenantID)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	if perms == nil {
		perms = []module.Permission{}
	}
	writeJSON(w, http.StatusOK, perms)
}

// SetModule handles PUT /api/v1/modules/{key}
func (h *Handlers) SetModule(w http.ResponseWriter, r *http.Request) {
	ac := middleware.AuthzFromContext(r.Context())
	key := urlParam(r, "key")

	req, ok := readJSON[module.ToggleRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Tenants.SetModule(r.Context(), ac.TenantID, key, *req.Enabled)
	if err != nil {
		writeDomainError(w, err, "module toggle failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetGlobalModule handles PUT /api/v1/admin/modules/{key} (admin only)
// It writes the global default row that applies to tenants without an
// override of their own.
func (h *Handlers) SetGlobalModule(w http.ResponseWriter, r *http.Request) {
	key := urlParam(r, "key")

	req, ok := readJSON[module.ToggleRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Tenants.SetModule(r.Context(), "", key, *req.Enabled)
	if err != nil {
		writeDomainError(w, err, "module toggle failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
