// Package database defines the port interface for persistent storage.
package database

import (
	"context"

	"github.com/predialis/predialis/internal/domain/identity"
	"github.com/predialis/predialis/internal/domain/membership"
	"github.com/predialis/predialis/internal/domain/module"
	"github.com/predialis/predialis/internal/domain/tenant"
)

// Store is the port interface for all persistence operations.
// Not-found conditions are reported as domain.ErrNotFound; any other error
// is an infrastructure failure.
type Store interface {
	// Identities
	CreateIdentity(ctx context.Context, i *identity.Identity) error
	GetIdentity(ctx context.Context, id string) (*identity.Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*identity.Identity, error)
	ListIdentities(ctx context.Context) ([]identity.Identity, error)
	UpdateIdentity(ctx context.Context, i *identity.Identity) error
	DeleteIdentity(ctx context.Context, id string) error

	// Tenants
	CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error)
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error

	// Memberships
	UpsertMembership(ctx context.Context, m *membership.Membership) error
	GetMembership(ctx context.Context, userID, tenantID string) (*membership.Membership, error)
	ListMembersByTenant(ctx context.Context, tenantID string) ([]membership.Membership, error)
	ListTenantsForUser(ctx context.Context, userID string) ([]membership.UserTenant, error)
	DeleteMembership(ctx context.Context, userID, tenantID string) error

	// Module permissions. tenantID "" addresses the global default row.
	GetModulePermission(ctx context.Context, key, tenantID string) (*module.Permission, error)
	ListModulePermissions(ctx context.Context, tenantID string) ([]module.Permission, error)
	UpsertModulePermission(ctx context.Context, p *module.Permission) error

	// Refresh tokens
	CreateRefreshToken(ctx context.Context, rt *identity.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (*identity.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID string, newRT *identity.RefreshToken) error
	DeleteRefreshToken(ctx context.Context, id string) error
	DeleteRefreshTokensByUser(ctx context.Context, userID string) error
}
