package http

import (
	"net/http"

	"github.com/predialis/predialis/internal/domain/membership"
	"github.com/predialis/predialis/internal/middleware"
)

// ListMembers handles GET /api/v1/members
// The tenant scope comes from the bound authorization context.
func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	ac := middleware.AuthzFromContext(r.Context())
	members, err := h.Tenants.Members(r.Context(), ac.TenantID)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	if members == nil {
		members = []membership.Membership{}
	}
	writeJSON(w, http.StatusOK, members)
}

// GrantMembership handles POST /api/v1/members
func (h *Handlers) GrantMembership(w http.ResponseWriter, r *http.Request) {
	ac := middleware.AuthzFromContext(r.Context())

	req, ok := readJSON[membership.GrantRequest](w, r)
	if !ok {
		return
	}

	m, err := h.Tenants.Grant(r.Context(), ac.TenantID, req)
	if err != nil {
		writeDomainError(w, err, "user or tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// RevokeMembership handles DELETE /api/v1/members/{userId}
func (h *Handlers) RevokeMembership(w http.ResponseWriter, r *http.Request) {
	ac := middleware.AuthzFromContext(r.Context())
	userID := urlParam(r, "userId")

	if err := h.Tenants.Revoke(r.Context(), ac.TenantID, userID); err != nil {
		writeDomainError(w, err, "membership not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
