package http

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

// mockStore is an in-memory Store for handler tests.
type mockStore struct {
	identities  map[string]*identity.Identity // by id
	tenants     map[string]*tenant.Tenant
	memberships map[string]*membership.Membership // "user/tenant"
	modules     map[string]*module.Permission     // "key/tenant"
	refresh     map[string]*identity.RefreshToken // by id
}

var _ database.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		identities:  make(map[string]*identity.Identity),
		tenants:     make(map[string]*tenant.Tenant),
		memberships: make(map[string]*membership.Membership),
		modules:     make(map[string]*module.Permission),
		refresh:     make(map[string]*identity.RefreshToken),
	}
}

func memKey(userID, tenantID string) string { return userID + "/" + tenantID }
func modKey(key, tenantID string) string    { return key + "/" + tenantID }

func (s *mockStore) CreateIdentity(_ context.Context, i *identity.Identity) error {
	for _, existing := range s.identities {
		if existing.Email == i.Email {
			return domain.ErrConflict
		}
	}
	s.identities[i.ID] = i
	return nil
}

func (s *mockStore) GetIdentity(_ context.Context, id string) (*identity.Identity, error) {
	i, ok := s.identities[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return i, nil
}

func (s *mockStore) GetIdentityByEmail(_ context.Context, email string) (*identity.Identity, error) {
	for _, i := range s.identities {
		if i.Email == email {
			return i, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *mockStore) ListIdentities(_ context.Context) ([]identity.Identity, error) {
	out := make([]identity.Identity, 0, len(s.identities))
	for _, i := range s.identities {
		out = append(out, *i)
	}
	return out, nil
}

func (s *mockStore) UpdateIdentity(_ context.Context, i *identity.Identity) error {
	if _, ok := s.identities[i.ID]; !ok {
		return domain.ErrNotFound
	}
	s.identities[i.ID] = i
	return nil
}

func (s *mockStore) DeleteIdentity(_ context.Context, id string) error {
	if _, ok := s.identities[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.identities, id)
	return nil
}

func (s *mockStore) CreateTenant(_ context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	t := &tenant.Tenant{
		ID:        "tenant-" + req.Slug,
		Name:      req.Name,
		Slug:      req.Slug,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.tenants[t.ID] = t
	return t, nil
}

func (s *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (s *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	out := make([]tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, *t)
	}
	return out, nil
}

func (s *mockStore) UpdateTenant(_ context.Context, t *tenant.Tenant) error {
	if _, ok := s.tenants[t.ID]; !ok {
		return domain.ErrNotFound
	}
	s.tenants[t.ID] = t
	return nil
}

func (s *mockStore) UpsertMembership(_ context.Context, m *membership.Membership) error {
	s.memberships[memKey(m.UserID, m.TenantID)] = m
	return nil
}

func (s *mockStore) GetMembership(_ context.Context, userID, tenantID string) (*membership.Membership, error) {
	m, ok := s.memberships[memKey(userID, tenantID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (s *mockStore) ListMembersByTenant(_ context.Context, tenantID string) ([]membership.Membership, error) {
	var out []membership.Membership
	for _, m := range s.memberships {
		if m.TenantID == tenantID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *mockStore) ListTenantsForUser(_ context.Context, userID string) ([]membership.UserTenant, error) {
	var out []membership.UserTenant
	for _, m := range s.memberships {
		if m.UserID != userID {
			continue
		}
		t, ok := s.tenants[m.TenantID]
		if !ok {
			continue
		}
		out = append(out, membership.UserTenant{
			TenantID:   t.ID,
			TenantName: t.Name,
			Role:       m.Role,
			Unit:       m.Unit,
			Active:     t.Active,
		})
	}
	return out, nil
}

func (s *mockStore) DeleteMembership(_ context.Context, userID, tenantID string) error {
	k := memKey(userID, tenantID)
	if _, ok := s.memberships[k]; !ok {
		return domain.ErrNotFound
	}
	delete(s.memberships, k)
	return nil
}

func (s *mockStore) GetModulePermission(_ context.Context, key, tenantID string) (*module.Permission, error) {
	p, ok := s.modules[modKey(key, tenantID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *mockStore) ListModulePermissions(_ context.Context, tenantID string) ([]module.Permission, error) {
	var out []module.Permission
	for _, p := range s.modules {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *mockStore) UpsertModulePermission(_ context.Context, p *module.Permission) error {
	p.UpdatedAt = time.Now()
	s.modules[modKey(p.ModuleKey, p.TenantID)] = p
	return nil
}

func (s *mockStore) CreateRefreshToken(_ context.Context, rt *identity.RefreshToken) error {
	s.refresh[rt.ID] = rt
	return nil
}

func (s *mockStore) GetRefreshTokenByHash(_ context.Context, hash string) (*identity.RefreshToken, error) {
	for _, rt := range s.refresh {
		if rt.TokenHash == hash {
			return rt, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *mockStore) RotateRefreshToken(_ context.Context, oldID string, newRT *identity.RefreshToken) error {
	if _, ok := s.refresh[oldID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.refresh, oldID)
	s.refresh[newRT.ID] = newRT
	return nil
}

func (s *mockStore) DeleteRefreshToken(_ context.Context, id string) error {
	if _, ok := s.refresh[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.refresh, id)
	return nil
}

func (s *mockStore) DeleteRefreshTokensByUser(_ context.Context, userID string) error {
	for id, rt := range s.refresh {
		if rt.UserID == userID {
			delete(s.refresh, id)
		}
	}
	return nil
}
