// Package tenant defines the condominium domain model. A tenant is an
// isolated condominium whose data must never be visible to unrelated users.
package tenant

import (
	"errors"
	"regexp"
	"time"
)

// Tenant represents a single condominium.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("tenant name is required")
	}
	if !slugRegex.MatchString(r.Slug) {
		return errors.New("invalid slug: must be 3-64 lowercase alphanumeric characters or hyphens")
	}
	return nil
}

// UpdateRequest holds the fields that can be updated on a tenant.
// Deactivation (Active=false) retires a condominium without deleting its data.
type UpdateRequest struct {
	Name   string `json:"name,omitempty"`
	Active *bool  `json:"active,omitempty"`
}
