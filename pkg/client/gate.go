package client

import "sync"

// ModuleFlag is one module-permission row as returned by the server.
type ModuleFlag struct {
	ModuleKey string `json:"module_key"`
	TenantID  string `json:"tenant_id,omitempty"`
	Enabled   bool   `json:"enabled"`
}

// Gate mirrors the server's module flags to drive navigation visibility.
// It is presentation logic only; the server enforces the same flags on every
// request regardless of what the gate shows.
type Gate struct {
	mu     sync.RWMutex
	flags  map[string]bool
	manage bool
}

// NewGate returns an empty gate: every module visible, no management override.
func NewGate() *Gate {
	return &Gate{flags: make(map[string]bool)}
}

// Update replaces the mirrored flags with a fresh server response and records
// whether the caller administers the tenant, either as a tenant manager or as
// a global admin.
func (g *Gate) Update(flags []ModuleFlag, canManage bool) {
	m := make(map[string]bool, len(flags))
	for _, f := range flags {
		m[f.ModuleKey] = f.Enabled
	}
	g.mu.Lock()
	g.flags = m
	g.manage = canManage
	g.mu.Unlock()
}

// Visible reports whether the UI entry point for moduleKey should render.
// Keys with no flag are visible (new modules ship visible by default), and
// managers and global admins see every module so they can reach the screen
// that re-enables a flag they just turned off.
func (g *Gate) Visible(moduleKey string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.manage {
		return true
	}
	enabled, ok := g.flags[moduleKey]
	if !ok {
		return true
	}
	return enabled
}
