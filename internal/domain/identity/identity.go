// Package identity defines the account domain model read by the
// authorization core. Identities are global (not tenant-scoped); tenant
// association happens through memberships.
package identity

import (
	"errors"
	"net/mail"
	"time"
)

// GlobalRole is the platform-wide role of an identity.
type GlobalRole string

const (
	// GlobalRoleAdmin may act within any tenant, including nonexistent ones.
	GlobalRoleAdmin GlobalRole = "admin"
	// GlobalRoleUser may only act within tenants it holds a membership for.
	GlobalRoleUser GlobalRole = "user"
)

// ValidGlobalRoles is the set of all valid global roles.
var ValidGlobalRoles = map[GlobalRole]bool{
	GlobalRoleAdmin: true,
	GlobalRoleUser:  true,
}

// Identity represents a registered account.
type Identity struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"` // never serialized
	GlobalRole   GlobalRole `json:"global_role"`
	Enabled      bool       `json:"enabled"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsGlobalAdmin reports whether the identity is a platform administrator.
func (i *Identity) IsGlobalAdmin() bool {
	return i != nil && i.GlobalRole == GlobalRoleAdmin
}

// CreateRequest is the input for registering a new identity.
type CreateRequest struct {
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Password   string     `json:"password"` //nolint:gosec // request field, not a hardcoded secret
	GlobalRole GlobalRole `json:"global_role"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !ValidGlobalRoles[r.GlobalRole] {
		return errors.New("invalid global role: must be admin or user")
	}
	return nil
}

// UpdateRequest is the input for updating an existing identity.
type UpdateRequest struct {
	Name       string     `json:"name,omitempty"`
	GlobalRole GlobalRole `json:"global_role,omitempty"`
	Enabled    *bool      `json:"enabled,omitempty"`
}

// LoginRequest is the input for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that the LoginRequest has all required fields.
func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// LoginResponse is returned after successful authentication.
type LoginResponse struct {
	AccessToken string   `json:"access_token"` //nolint:gosec // response field, not a hardcoded secret
	ExpiresIn   int      `json:"expires_in"`   // seconds until access token expires
	Identity    Identity `json:"identity"`
}

// ChangePasswordRequest is the input for a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Validate checks password change inputs.
func (r *ChangePasswordRequest) Validate() error {
	if r.OldPassword == "" {
		return errors.New("old password is required")
	}
	if len(r.NewPassword) < 8 {
		return errors.New("new password must be at least 8 characters")
	}
	return nil
}

// TokenClaims contains the access token payload fields.
type TokenClaims struct {
	UserID     string     `json:"sub"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	GlobalRole GlobalRole `json:"grl"`
	IssuedAt   int64      `json:"iat"`
	Expiry     int64      `json:"exp"`
	Audience   string     `json:"aud"`
	Issuer     string     `json:"iss"`
}

// RefreshToken represents a stored refresh token.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
