package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/predialis/predialis/internal/domain"
	"github.com/predialis/predialis/internal/domain/authz"
	"github.com/predialis/predialis/internal/domain/identity"
	"github.com/predialis/predialis/internal/domain/membership"
	"github.com/predialis/predialis/internal/port/database"
)

// Resolver binds a resolved identity and a claimed tenant id into the
// per-request authorization context, and answers the role and module
// permission reads the guards depend on. It holds no mutable state:
// building the same context twice against unchanged backing data yields an
// identical result.
type Resolver struct {
	store database.Store
}

// NewResolver creates a Resolver backed by the given store.
func NewResolver(store database.Store) *Resolver {
	return &Resolver{store: store}
}

// BuildContext produces the effective authorization context for one request.
//
// Binding rules:
//   - anonymous: no tenant, regardless of claim;
//   - global admin: the claimed id verbatim (cross-tenant management
//     screens need to address any tenant, including ones without a
//     membership row);
//   - otherwise: the claim is honored only when a membership exists, and
//     silently dropped when it does not. Many endpoints are meaningful
//     without a tenant (listing one's tenants right after login), so an
//     invalid claim degrades instead of failing the request.
//
// A store outage is never folded into the silent drop: it surfaces as
// authz.ErrStoreUnavailable so callers cannot mistake an infrastructure
// failure for a permissions decision.
func (r *Resolver) BuildContext(ctx context.Context, ident *identity.Identity, claimedTenantID string) (authz.Context, error) {
	if ident == nil {
		return authz.Context{}, nil
	}

	ac := authz.Context{
		UserID:        ident.ID,
		IsGlobalAdmin: ident.IsGlobalAdmin(),
	}

	if claimedTenantID == "" {
		return ac, nil
	}

	m, err := r.store.GetMembership(ctx, ident.ID, claimedTenantID)
	switch {
	case err == nil:
		ac.TenantID = claimedTenantID
		ac.Role = m.Role
	case errors.Is(err, domain.ErrNotFound):
		if ac.IsGlobalAdmin {
			// Admins act on any tenant; without a membership the
			// tenant-scoped role stays empty.
			ac.TenantID = claimedTenantID
		}
		// Non-admin claim without membership: silently dropped.
	default:
		return authz.Context{}, storeUnavailable("membership lookup", err)
	}

	return ac, nil
}

// TenantRole returns the tenant-scoped role of a user, or "" when no
// membership exists.
func (r *Resolver) TenantRole(ctx context.Context, userID, tenantID string) (membership.Role, error) {
	m, err := r.store.GetMembership(ctx, userID, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", storeUnavailable("membership lookup", err)
	}
	return m.Role, nil
}

// IsModuleEnabled reports whether a module is visible for a tenant.
// A tenant-scoped row overrides the global row; when neither exists the
// module defaults to enabled, so new modules ship visible without a
// migration. Role checks on privileged actions stay fail-closed and are
// enforced separately by the guards.
func (r *Resolver) IsModuleEnabled(ctx context.Context, moduleKey, tenantID string) (bool, error) {
	if tenantID != "" {
		p, err := r.store.GetModulePermission(ctx, moduleKey, tenantID)
		if err == nil {
			return p.Enabled, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return false, storeUnavailable("module permission lookup", err)
		}
	}

	p, err := r.store.GetModulePermission(ctx, moduleKey, "")
	if err == nil {
		return p.Enabled, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	return false, storeUnavailable("module permission lookup", err)
}

// storeUnavailable wraps a backing-store failure so that
// errors.Is(err, authz.ErrStoreUnavailable) holds while the cause stays
// visible in logs.
func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, authz.ErrStoreUnavailable, err)
}
