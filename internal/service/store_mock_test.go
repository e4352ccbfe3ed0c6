package service

import (
	"context"
	"time"

	"github.com/predialis/predialis/internal/domain"
	"github.com/predialis/predialis/internal/domain/identity"
	"github.com/predialis/predialis/internal/domain/membership"
	"github.com/predialis/predialis/internal/domain/module"
	"github.com/predialis/predialis/internal/domain/tenant"
	"github.com/predialis/predialis/internal/port/database"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is a minimal in-memory implementation of database.Store for
// testing.
type mockStore struct {
	identities  []identity.Identity
	tenants     []tenant.Tenant
	memberships []membership.Membership
	modules     []module.Permission
	refresh     []identity.RefreshToken

	// Error hooks. Set these to inject failures.
	getMembershipErr error
	getModuleErr     error
}

func (m *mockStore) CreateIdentity(_ context.Context, i *identity.Identity) error {
	for _, existing := range m.identities {
		if existing.Email == i.Email {
			return domain.ErrConflict
		}
	}
	m.identities = append(m.identities, *i)
	return nil
}

func (m *mockStore) GetIdentity(_ context.Context, id string) (*identity.Identity, error) {
	for i := range m.identities {
		if m.identities[i].ID == id {
			out := m.identities[i]
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetIdentityByEmail(_ context.Context, email string) (*identity.Identity, error) {
	for i := range m.identities {
		if m.identities[i].Email == email {
			out := m.identities[i]
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListIdentities(_ context.Context) ([]identity.Identity, error) {
	return m.identities, nil
}

func (m *mockStore) UpdateIdentity(_ context.Context, upd *identity.Identity) error {
	for i := range m.identities {
		if m.identities[i].ID == upd.ID {
			m.identities[i] = *upd
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) DeleteIdentity(_ context.Context, id string) error {
	for i := range m.identities {
		if m.identities[i].ID == id {
			m.identities = append(m.identities[:i], m.identities[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) CreateTenant(_ context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	t := tenant.Tenant{
		ID:     "tenant-" + req.Slug,
		Name:   req.Name,
		Slug:   req.Slug,
		Active: true,
	}
	m.tenants = append(m.tenants, t)
	return &t, nil
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			out := m.tenants[i]
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	return m.tenants, nil
}

func (m *mockStore) UpdateTenant(_ context.Context, upd *tenant.Tenant) error {
	for i := range m.tenants {
		if m.tenants[i].ID == upd.ID {
			m.tenants[i] = *upd
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) UpsertMembership(_ context.Context, mem *membership.Membership) error {
	for i := range m.memberships {
		if m.memberships[i].UserID == mem.UserID && m.memberships[i].TenantID == mem.TenantID {
			m.memberships[i] = *mem
			return nil
		}
	}
	m.memberships = append(m.memberships, *mem)
	return nil
}

func (m *mockStore) GetMembership(_ context.Context, userID, tenantID string) (*membership.Membership, error) {
	if m.getMembershipErr != nil {
		return nil, m.getMembershipErr
	}
	for i := range m.memberships {
		if m.memberships[i].UserID == userID && m.memberships[i].TenantID == tenantID {
			out := m.memberships[i]
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListMembersByTenant(_ context.Context, tenantID string) ([]membership.Membership, error) {
	var out []membership.Membership
	for _, mem := range m.memberships {
		if mem.TenantID == tenantID {
			out = append(out, mem)
		}
	}
	return out, nil
}

func (m *mockStore) ListTenantsForUser(_ context.Context, userID string) ([]membership.UserTenant, error) {
	var out []membership.UserTenant
	for _, mem := range m.memberships {
		if mem.UserID != userID {
			continue
		}
		ut := membership.UserTenant{TenantID: mem.TenantID, Role: mem.Role, Unit: mem.Unit}
		for _, t := range m.tenants {
			if t.ID == mem.TenantID {
				ut.TenantName = t.Name
				ut.Active = t.Active
			}
		}
		out = append(out, ut)
	}
	return out, nil
}

func (m *mockStore) DeleteMembership(_ context.Context, userID, tenantID string) error {
	for i := range m.memberships {
		if m.memberships[i].UserID == userID && m.memberships[i].TenantID == tenantID {
			m.memberships = append(m.memberships[:i], m.memberships[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) GetModulePermission(_ context.Context, key, tenantID string) (*module.Permission, error) {
	if m.getModuleErr != nil {
		return nil, m.getModuleErr
	}
	for i := range m.modules {
		if m.modules[i].ModuleKey == key && m.modules[i].TenantID == tenantID {
			out := m.modules[i]
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListModulePermissions(_ context.Context, tenantID string) ([]module.Permission, error) {
	var out []module.Permission
	for _, p := range m.modules {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertModulePermission(_ context.Context, p *module.Permission) error {
	p.UpdatedAt = time.Now()
	for i := range m.modules {
		if m.modules[i].ModuleKey == p.ModuleKey && m.modules[i].TenantID == p.TenantID {
			m.modules[i] = *p
			return nil
		}
	}
	m.modules = append(m.modules, *p)
	return nil
}

func (m *mockStore) CreateRefreshToken(_ context.Context, rt *identity.RefreshToken) error {
	m.refresh = append(m.refresh, *rt)
	return nil
}

func (m *mockStore) GetRefreshTokenByHash(_ context.Context, hash string) (*identity.RefreshToken, error) {
	for i := range m.refresh {
		if m.refresh[i].TokenHash == hash {
			out := m.refresh[i]
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) RotateRefreshToken(_ context.Context, oldID string, newRT *identity.RefreshToken) error {
	for i := range m.refresh {
		if m.refresh[i].ID == oldID {
			m.refresh[i] = *newRT
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) DeleteRefreshToken(_ context.Context, id string) error {
	for i := range m.refresh {
		if m.refresh[i].ID == id {
			m.refresh = append(m.refresh[:i], m.refresh[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockStore) DeleteRefreshTokensByUser(_ context.Context, userID string) error {
	kept := m.refresh[:0]
	for _, rt := range m.refresh {
		if rt.UserID != userID {
			kept = append(kept, rt)
		}
	}
	m.refresh = kept
	return nil
}
