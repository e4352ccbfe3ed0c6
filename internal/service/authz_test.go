package service

import (
	"context"
	"errors"
	"testing"

	"github.com/predialis/predialis/internal/domain/authz"
	"github.com/predialis/predialis/internal/domain/identity"
	"github.com/predialis/predialis/internal/domain/membership"
	"github.com/predialis/predialis/internal/domain/module"
)

func resident(id string) *identity.Identity {
	return &identity.Identity{ID: id, Email: id + "@test.com", GlobalRole: identity.GlobalRoleUser, Enabled: true}
}

func globalAdmin(id string) *identity.Identity {
	return &identity.Identity{ID: id, Email: id + "@test.com", GlobalRole: identity.GlobalRoleAdmin, Enabled: true}
}

func TestBuildContext_Anonymous(t *testing.T) {
	r := NewResolver(&mockStore{})

	ac, err := r.BuildContext(context.Background(), nil, "t1")
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if ac.Authenticated() {
		t.Error("anonymous context must not be authenticated")
	}
	if ac.TenantBound() {
		t.Error("anonymous claim must never bind a tenant")
	}
}

func TestBuildContext_NoClaim(t *testing.T) {
	r := NewResolver(&mockStore{})

	ac, err := r.BuildContext(context.Background(), resident("u1"), "")
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if ac.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", ac.UserID)
	}
	if ac.TenantBound() {
		t.Error("no claim must leave the context tenantless")
	}
}

func TestBuildContext_MembershipBindsTenant(t *testing.T) {
	store := &mockStore{
		memberships: []membership.Membership{
			{UserID: "u1", TenantID: "t1", Role: membership.RoleResident},
		},
	}
	r := NewResolver(store)

	ac, err := r.BuildContext(context.Background(), resident("u1"), "t1")
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if ac.TenantID != "t1" {
		t.Errorf("TenantID = %q, want t1", ac.TenantID)
	}
	if ac.Role != membership.RoleResident {
		t.Errorf("Role = %q, want resident", ac.Role)
	}
}

func TestBuildContext_SilentDropWithoutMembership(t *testing.T) {
	store := &mockStore{
		memberships: []membership.Membership{
			{UserID: "u1", TenantID: "t1", Role: membership.RoleResident},
		},
	}
	r := NewResolver(store)

	// u1 is a member of t1 only; claiming t2 is dropped, not escalated.
	ac, err := r.BuildContext(context.Background(), resident("u1"), "t2")
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if ac.TenantBound() {
		t.Errorf("TenantID = %q, want unbound", ac.TenantID)
	}
	if !ac.Authenticated() {
		t.Error("identity must survive a dropped claim")
	}
}

func TestBuildContext_GlobalAdminBindsVerbatim(t *testing.T) {
	r := NewResolver(&mockStore{})

	// No membership, no tenant row. Admins bind any claimed id, including
	// nonexistent ones, to support cross-tenant management screens.
	ac, err := r.BuildContext(context.Background(), globalAdmin("a1"), "no-such-tenant")
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if ac.TenantID != "no-such-tenant" {
		t.Errorf("TenantID = %q, want no-such-tenant", ac.TenantID)
	}
	if !ac.IsGlobalAdmin {
		t.Error("IsGlobalAdmin not set")
	}
}

func TestBuildContext_Idempotent(t *testing.T) {
	store := &mockStore{
		memberships: []membership.Membership{
			{UserID: "u1", TenantID: "t1", Role: membership.RoleManager},
		},
	}
	r := NewResolver(store)

	first, err := r.BuildContext(context.Background(), resident("u1"), "t1")
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	second, err := r.BuildContext(context.Background(), resident("u1"), "t1")
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if first != second {
		t.Errorf("contexts differ: %+v vs %+v", first, second)
	}
}

func TestBuildContext_StoreOutageIsNotADrop(t *testing.T) {
	store := &mockStore{getMembershipErr: errors.New("connection refused")}
	r := NewResolver(store)

	_, err := r.BuildContext(context.Background(), resident("u1"), "t1")
	if err == nil {
		t.Fatal("expected error on store outage")
	}
	if !errors.Is(err, authz.ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable", err)
	}
}

func TestIsModuleEnabled_FailOpenDefault(t *testing.T) {
	r := NewResolver(&mockStore{})

	enabled, err := r.IsModuleEnabled(context.Background(), "residuos", "t1")
	if err != nil {
		t.Fatalf("IsModuleEnabled: %v", err)
	}
	if !enabled {
		t.Error("missing row must default to enabled")
	}
}

func TestIsModuleEnabled_TenantRowOverridesGlobal(t *testing.T) {
	store := &mockStore{
		modules: []module.Permission{
			{ModuleKey: "financeiro", TenantID: "", Enabled: true},
			{ModuleKey: "financeiro", TenantID: "t1", Enabled: false},
		},
	}
	r := NewResolver(store)

	enabled, err := r.IsModuleEnabled(context.Background(), "financeiro", "t1")
	if err != nil {
		t.Fatalf("IsModuleEnabled: %v", err)
	}
	if enabled {
		t.Error("tenant row disabling the module must win over the global row")
	}

	// A tenant without its own row falls back to the global row.
	enabled, err = r.IsModuleEnabled(context.Background(), "financeiro", "t2")
	if err != nil {
		t.Fatalf("IsModuleEnabled: %v", err)
	}
	if !enabled {
		t.Error("tenant without an override must see the global value")
	}
}

func TestIsModuleEnabled_GlobalRowDisables(t *testing.T) {
	store := &mockStore{
		modules: []module.Permission{
			{ModuleKey: "piscina", TenantID: "", Enabled: false},
		},
	}
	r := NewResolver(store)

	enabled, err := r.IsModuleEnabled(context.Background(), "piscina", "t1")
	if err != nil {
		t.Fatalf("IsModuleEnabled: %v", err)
	}
	if enabled {
		t.Error("global disable must apply to tenants without overrides")
	}
}

func TestIsModuleEnabled_StoreOutage(t *testing.T) {
	store := &mockStore{getModuleErr: errors.New("connection refused")}
	r := NewResolver(store)

	_, err := r.IsModuleEnabled(context.Background(), "financeiro", "t1")
	if !errors.Is(err, authz.ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable", err)
	}
}

func TestTenantRole(t *testing.T) {
	store := &mockStore{
		memberships: []membership.Membership{
			{UserID: "u1", TenantID: "t1", Role: membership.RoleManager},
		},
	}
	r := NewResolver(store)

	role, err := r.TenantRole(context.Background(), "u1", "t1")
	if err != nil {
		t.Fatalf("TenantRole: %v", err)
	}
	if role != membership.RoleManager {
		t.Errorf("role = %q, want manager", role)
	}

	role, err = r.TenantRole(context.Background(), "u1", "t2")
	if err != nil {
		t.Fatalf("TenantRole: %v", err)
	}
	if role != "" {
		t.Errorf("role = %q, want empty for missing membership", role)
	}
}
