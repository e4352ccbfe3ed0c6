package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/predialis/predialis/internal/domain"
	"github.com/predialis/predialis/internal/domain/membership"
	"github.com/predialis/predialis/internal/domain/module"
	"github.com/predialis/predialis/internal/domain/tenant"
	"github.com/predialis/predialis/internal/port/broadcast"
	"github.com/predialis/predialis/internal/port/database"
	"github.com/predialis/predialis/internal/port/messagequeue"
)

// Event subjects published on membership and module changes. Clients and
// sibling services observe toggles immediately instead of polling.
const (
	SubjectMembershipChanged = "authz.memberships.changed"
	SubjectModuleToggled     = "authz.modules.toggled"
)

// Client-facing event types pushed over WebSocket.
const (
	EventMembershipChanged = "membership.changed"
	EventModuleToggled     = "module.toggled"
)

// MembershipEvent is published when a membership is granted or revoked.
type MembershipEvent struct {
	TenantID string          `json:"tenant_id"`
	UserID   string          `json:"user_id"`
	Role     membership.Role `json:"role,omitempty"`
	Revoked  bool            `json:"revoked,omitempty"`
}

// ModuleEvent is published when a module flag is toggled.
type ModuleEvent struct {
	TenantID  string `json:"tenant_id,omitempty"`
	ModuleKey string `json:"module_key"`
	Enabled   bool   `json:"enabled"`
}

// TenantService manages condominium lifecycle, memberships, and module
// permissions. The authorization decisions themselves live in Resolver;
// this service only mutates the rows those decisions read.
type TenantService struct {
	store database.Store
	queue messagequeue.Queue
	hub   broadcast.Broadcaster
}

// NewTenantService creates a new TenantService. queue and hub may be nil;
// events are then skipped.
func NewTenantService(store database.Store, queue messagequeue.Queue, hub broadcast.Broadcaster) *TenantService {
	return &TenantService{store: store, queue: queue, hub: hub}
}

// Create validates and creates a new condominium.
func (s *TenantService) Create(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	return s.store.CreateTenant(ctx, req)
}

// Get returns a tenant by ID.
func (s *TenantService) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Update modifies an existing tenant. Setting Active=false retires the
// condominium without touching its memberships or data.
func (s *TenantService) Update(ctx context.Context, id string, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListForUser returns the tenants a user can act within, for the client
// tenant selector.
func (s *TenantService) ListForUser(ctx context.Context, userID string) ([]membership.UserTenant, error) {
	return s.store.ListTenantsForUser(ctx, userID)
}

// Members returns all memberships of a tenant.
func (s *TenantService) Members(ctx context.Context, tenantID string) ([]membership.Membership, error) {
	return s.store.ListMembersByTenant(ctx, tenantID)
}

// Grant creates or updates a membership and notifies listeners.
func (s *TenantService) Grant(ctx context.Context, tenantID string, req membership.GrantRequest) (*membership.Membership, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	if _, err := s.store.GetIdentity(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("grant membership: %w", err)
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("grant membership: %w", err)
	}

	m := &membership.Membership{
		UserID:   req.UserID,
		TenantID: tenantID,
		Role:     req.Role,
		Unit:     req.Unit,
	}
	if err := s.store.UpsertMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("upsert membership: %w", err)
	}

	s.notify(ctx, tenantID, SubjectMembershipChanged, EventMembershipChanged, MembershipEvent{
		TenantID: tenantID,
		UserID:   req.UserID,
		Role:     req.Role,
	})
	return m, nil
}

// Revoke removes a membership and notifies listeners.
func (s *TenantService) Revoke(ctx context.Context, tenantID, userID string) error {
	if err := s.store.DeleteMembership(ctx, userID, tenantID); err != nil {
		return err
	}

	s.notify(ctx, tenantID, SubjectMembershipChanged, EventMembershipChanged, MembershipEvent{
		TenantID: tenantID,
		UserID:   userID,
		Revoked:  true,
	})
	return nil
}

// Modules returns the explicit module-permission rows visible to a tenant:
// the global defaults overlaid by the tenant's own rows. Module keys with
// no row at all are implicitly enabled and do not appear here.
func (s *TenantService) Modules(ctx context.Context, tenantID string) ([]module.Permission, error) {
	global, err := s.store.ListModulePermissions(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list global module permissions: %w", err)
	}
	scoped, err := s.store.ListModulePermissions(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list tenant module permissions: %w", err)
	}

	effective := make(map[string]module.Permission, len(global)+len(scoped))
	for _, p := range global {
		effective[p.ModuleKey] = p
	}
	for _, p := range scoped {
		effective[p.ModuleKey] = p
	}

	out := make([]module.Permission, 0, len(effective))
	for _, p := range effective {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleKey < out[j].ModuleKey })
	return out, nil
}

// SetModule upserts a module flag for a tenant (or globally when tenantID
// is empty) and notifies listeners so the new value is visible to clients
// immediately.
func (s *TenantService) SetModule(ctx context.Context, tenantID, moduleKey string, enabled bool) (*module.Permission, error) {
	if !module.ValidKey(moduleKey) {
		return nil, fmt.Errorf("%w: invalid module key %q", domain.ErrValidation, moduleKey)
	}

	p := &module.Permission{
		ModuleKey: moduleKey,
		TenantID:  tenantID,
		Enabled:   enabled,
	}
	if err := s.store.UpsertModulePermission(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert module permission: %w", err)
	}

	s.notify(ctx, tenantID, SubjectModuleToggled, EventModuleToggled, ModuleEvent{
		TenantID:  tenantID,
		ModuleKey: moduleKey,
		Enabled:   enabled,
	})
	return p, nil
}

// notify publishes an event to the message queue and pushes it to
// connected clients. Delivery is best effort: the row is already written
// and new requests see it regardless.
func (s *TenantService) notify(ctx context.Context, tenantID, subject, eventType string, payload any) {
	if s.queue != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.Error("marshal authz event", "subject", subject, "error", err)
		} else if err := s.queue.Publish(ctx, subject, data); err != nil {
			slog.Warn("publish authz event", "subject", subject, "error", err)
		}
	}
	if s.hub != nil && tenantID != "" {
		s.hub.BroadcastTenant(ctx, tenantID, eventType, payload)
	}
}
