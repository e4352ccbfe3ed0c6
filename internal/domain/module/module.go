// Package module defines the feature-flag model gating whole functional
// areas (maintenance, finance, documents, ...) per tenant. A missing row
// means enabled: new modules ship visible by default. Privileged actions
// are still guarded by role checks independently of these flags.
package module

import (
	"errors"
	"regexp"
	"time"
)

// Permission is one feature-flag row. TenantID is empty for the global
// default row; a tenant-scoped row overrides the global one.
type Permission struct {
	ModuleKey string    `json:"module_key"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

var keyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

// ValidKey reports whether s is a well-formed module key.
func ValidKey(s string) bool { return keyRegex.MatchString(s) }

// ToggleRequest is the input for setting a module flag.
type ToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

// Validate checks that the ToggleRequest carries an explicit value.
func (r *ToggleRequest) Validate() error {
	if r.Enabled == nil {
		return errors.New("enabled is required")
	}
	return nil
}
