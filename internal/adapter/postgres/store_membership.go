package postgres

import (
	"context"
	"fmt"

	"github.com/predialis/predialis/internal/domain"
	"github.com/predialis/predialis/internal/domain/membership"
)

func (s *Store) UpsertMembership(ctx context.Context, m *membership.Membership) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO memberships (user_id, tenant_id, role, unit)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, tenant_id)
		 DO UPDATE SET role = EXCLUDED.role, unit = EXCLUDED.unit, updated_at = now()
		 RETURNING created_at, updated_at`,
		m.UserID, m.TenantID, m.Role, m.Unit,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, userID, tenantID string) (*membership.Membership, error) {
	if !uuidOK(userID) || !uuidOK(tenantID) {
		return nil, fmt.Errorf("get membership %s/%s: %w", userID, tenantID, domain.ErrNotFound)
	}
	var m membership.Membership
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, tenant_id, role, unit, created_at, updated_at
		 FROM memberships WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID,
	).Scan(&m.UserID, &m.TenantID, &m.Role, &m.Unit, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, fmt.Sprintf("get membership %s/%s", userID, tenantID))
	}
	return &m, nil
}

func (s *Store) ListMembersByTenant(ctx context.Context, tenantID string) ([]membership.Membership, error) {
	if !uuidOK(tenantID) {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, tenant_id, role, unit, created_at, updated_at
		 FROM memberships WHERE tenant_id = $1 ORDER BY created_at`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []membership.Membership
	for rows.Next() {
		var m membership.Membership
		if err := rows.Scan(&m.UserID, &m.TenantID, &m.Role, &m.Unit, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ListTenantsForUser(ctx context.Context, userID string) ([]membership.UserTenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.tenant_id, t.name, m.role, m.unit, t.active
		 FROM memberships m
		 JOIN tenants t ON t.id = m.tenant_id
		 WHERE m.user_id = $1
		 ORDER BY t.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tenants for user: %w", err)
	}
	defer rows.Close()

	var out []membership.UserTenant
	for rows.Next() {
		var ut membership.UserTenant
		if err := rows.Scan(&ut.TenantID, &ut.TenantName, &ut.Role, &ut.Unit, &ut.Active); err != nil {
			return nil, fmt.Errorf("scan user tenant: %w", err)
		}
		out = append(out, ut)
	}
	return out, rows.Err()
}

func (s *Store) DeleteMembership(ctx context.Context, userID, tenantID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM memberships WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete membership %s/%s: %w", userID, tenantID, domain.ErrNotFound)
	}
	return nil
}
