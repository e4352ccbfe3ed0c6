// Package authz defines the per-request authorization context and the
// enumerable failure kinds produced by the access guards. The context is
// built exactly once per request at the HTTP boundary and treated as
// immutable; downstream handlers consume it and never re-derive tenant or
// role information on their own.
package authz

import (
	"errors"

	"github.com/predialis/predialis/internal/domain/membership"
)

// Context is the request-scoped authorization value. The zero value is an
// anonymous request with no tenant bound.
type Context struct {
	// UserID is empty for anonymous requests.
	UserID string `json:"user_id,omitempty"`
	// TenantID is the effective tenant: the claimed tenant after
	// validation, or empty when no tenant is bound. It is only ever set
	// when the identity is a global admin or holds a membership for it.
	TenantID string `json:"tenant_id,omitempty"`
	// Role is the tenant-scoped role within TenantID, empty when the
	// identity holds no membership there (possible for global admins).
	Role membership.Role `json:"role,omitempty"`
	// IsGlobalAdmin marks platform administrators, who may act on any
	// tenant and satisfy every role requirement.
	IsGlobalAdmin bool `json:"is_global_admin,omitempty"`
}

// Authenticated reports whether an identity was resolved.
func (c Context) Authenticated() bool { return c.UserID != "" }

// TenantBound reports whether an effective tenant was bound.
func (c Context) TenantBound() bool { return c.TenantID != "" }

// HasRole reports whether the context satisfies the minimum role.
// Global admins satisfy any minimum.
func (c Context) HasRole(min membership.Role) bool {
	if c.IsGlobalAdmin {
		return true
	}
	return c.TenantBound() && c.Role.AtLeast(min)
}

// CanManage reports whether the context may administer its tenant
// (module toggles, membership grants).
func (c Context) CanManage() bool { return c.HasRole(membership.RoleManager) }

// Failure kinds. All are locally recoverable by the caller; none are fatal
// to the process.
var (
	// ErrUnauthenticated: no valid identity. Callers redirect to sign-in.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNoTenantSelected: valid identity, no bound tenant. Callers prompt
	// for tenant selection rather than showing an error page.
	ErrNoTenantSelected = errors.New("no tenant selected")
	// ErrForbidden: insufficient role for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrModuleDisabled: the feature is turned off for this tenant.
	ErrModuleDisabled = errors.New("module disabled")
	// ErrStoreUnavailable: the backing store could not be read. Never
	// treated as deny or allow; propagates as a distinct server error so an
	// outage is not masked as a permissions problem.
	ErrStoreUnavailable = errors.New("authorization store unavailable")
)
