package client

import (
	"fmt"
	"sync"
)

// SelectorState is the lifecycle state of the tenant selector.
type SelectorState string

const (
	StateUninitialized SelectorState = "uninitialized"
	StateSelecting     SelectorState = "selecting"
	StateSelected      SelectorState = "selected"
)

// TenantInfo is one entry of the user's accessible-tenant list, as returned
// by the server.
type TenantInfo struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Role       string `json:"role"`
	Unit       string `json:"unit,omitempty"`
	Active     bool   `json:"active"`
}

// Selector holds the client-side tenant selection: the accessible-tenant
// list, the current pick, and its persistence. It is advisory UX state only;
// the server re-validates the claimed tenant on every request.
type Selector struct {
	store SelectionStore
	cache *QueryCache // may be nil

	mu      sync.Mutex
	state   SelectorState
	current string
	tenants []TenantInfo
}

// NewSelector creates a Selector persisting to store. cache, when non-nil,
// is invalidated on tenant switches.
func NewSelector(store SelectionStore, cache *QueryCache) *Selector {
	return &Selector{store: store, cache: cache, state: StateUninitialized}
}

// Init loads the persisted selection and reconciles it against the current
// tenant list. A persisted tenant still present in the list is selected
// directly; otherwise a provisional pick is made, preferring a tenant where
// the user is manager, else the first available one. With no tenants at all
// the selector stays uninitialized.
func (s *Selector) Init(tenants []TenantInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tenants = tenants
	if len(tenants) == 0 {
		s.state = StateUninitialized
		s.current = ""
		return nil
	}

	persisted, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("selector init: %w", err)
	}
	if persisted != "" {
		for _, t := range tenants {
			if t.TenantID == persisted {
				s.state = StateSelected
				s.current = persisted
				return nil
			}
		}
	}

	pick := tenants[0].TenantID
	for _, t := range tenants {
		if t.Role == "manager" {
			pick = t.TenantID
			break
		}
	}
	s.state = StateSelecting
	s.current = pick
	return nil
}

// Select confirms tenantID as the user's choice. Switching away from a
// previously selected tenant drops that tenant's cached queries; global
// entries stay. The selection is persisted before the method returns.
func (s *Selector) Select(tenantID string) error {
	s.mu.Lock()
	found := false
	for _, t := range s.tenants {
		if t.TenantID == tenantID {
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("select tenant: %q is not in the accessible tenant list", tenantID)
	}

	previous := s.current
	s.state = StateSelected
	s.current = tenantID
	cache := s.cache
	s.mu.Unlock()

	if cache != nil && previous != "" && previous != tenantID {
		cache.InvalidateTenant(previous)
	}

	if err := s.store.Save(tenantID); err != nil {
		return err
	}
	return nil
}

// Current returns the currently selected (or provisionally picked) tenant id,
// empty when uninitialized.
func (s *Selector) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// State returns the selector's lifecycle state.
func (s *Selector) State() SelectorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tenants returns the accessible-tenant list from the last Init.
func (s *Selector) Tenants() []TenantInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TenantInfo, len(s.tenants))
	copy(out, s.tenants)
	return out
}
