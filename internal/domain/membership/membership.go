// Package membership defines the association between an identity and a
// tenant. A non-admin identity may only ever act within a tenant for which
// a membership exists.
package membership

import (
	"errors"
	"time"
)

// Role is the tenant-scoped role of a member.
type Role string

const (
	// RoleOwner is a unit owner. Ranks with residents for authorization.
	RoleOwner Role = "owner"
	// RoleResident is an ordinary occupant.
	RoleResident Role = "resident"
	// RoleManager administers the condominium, including module toggles.
	RoleManager Role = "manager"
)

// ValidRoles is the set of all valid tenant-scoped roles.
var ValidRoles = map[Role]bool{
	RoleOwner:    true,
	RoleResident: true,
	RoleManager:  true,
}

// rank orders roles for minimum-role checks. Owners and residents are
// ordinary members; only managers administer.
var rank = map[Role]int{
	RoleOwner:    1,
	RoleResident: 1,
	RoleManager:  2,
}

// AtLeast reports whether r satisfies the minimum role min.
// An unknown or empty role never satisfies any minimum.
func (r Role) AtLeast(min Role) bool {
	return rank[r] > 0 && rank[r] >= rank[min]
}

// IsManager reports whether the role administers its tenant.
func (r Role) IsManager() bool { return r == RoleManager }

// Membership grants an identity a role within one tenant.
type Membership struct {
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	Role      Role      `json:"role"`
	Unit      string    `json:"unit,omitempty"` // optional unit label, e.g. "B-104"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GrantRequest is the input for granting or updating a membership.
type GrantRequest struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Unit   string `json:"unit,omitempty"`
}

// Validate checks that the GrantRequest has all required fields.
func (r *GrantRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if !ValidRoles[r.Role] {
		return errors.New("invalid role: must be owner, resident, or manager")
	}
	return nil
}

// UserTenant is one entry of a user's accessible-tenant list, joining the
// membership with the tenant it points at. It feeds the client selector.
type UserTenant struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Role       Role   `json:"role"`
	Unit       string `json:"unit,omitempty"`
	Active     bool   `json:"active"`
}
