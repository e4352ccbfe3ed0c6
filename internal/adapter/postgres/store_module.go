package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/predialis/predialis/internal/domain"
	"github.com/predialis/predialis/internal/domain/module"
)

// Global rows are stored with a NULL tenant_id; an empty tenantID selects them.
func (s *Store) GetModulePermission(ctx context.Context, key, tenantID string) (*module.Permission, error) {
	var (
		p   module.Permission
		tid sql.NullString
		err error
	)
	if tenantID == "" {
		err = s.pool.QueryRow(ctx,
			`SELECT module_key, tenant_id, enabled, updated_at
			 FROM module_permissions WHERE module_key = $1 AND tenant_id IS NULL`,
			key,
		).Scan(&p.ModuleKey, &tid, &p.Enabled, &p.UpdatedAt)
	} else if !uuidOK(tenantID) {
		return nil, fmt.Errorf("get module permission %s: %w", key, domain.ErrNotFound)
	} else {
		err = s.pool.QueryRow(ctx,
			`SELECT module_key, tenant_id, enabled, updated_at
			 FROM module_permissions WHERE module_key = $1 AND tenant_id = $2`,
			key, tenantID,
		).Scan(&p.ModuleKey, &tid, &p.Enabled, &p.UpdatedAt)
	}
	if err != nil {
		return nil, notFoundWrap(err, fmt.Sprintf("get module permission %s", key))
	}
	p.TenantID = tid.String
	return &p, nil
}

func (s *Store) ListModulePermissions(ctx context.Context, tenantID string) ([]module.Permission, error) {
	var query string
	args := []any{}
	if tenantID == "" {
		query = `SELECT module_key, tenant_id, enabled, updated_at
			 FROM module_permissions WHERE tenant_id IS NULL ORDER BY module_key`
	} else {
		query = `SELECT module_key, tenant_id, enabled, updated_at
			 FROM module_permissions WHERE tenant_id = $1 ORDER BY module_key`
		args = append(args, tenantID)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list module permissions: %w", err)
	}
	defer rows.Close()

	var out []module.Permission
	for rows.Next() {
		var (
			p   module.Permission
			tid sql.NullString
		)
		if err := rows.Scan(&p.ModuleKey, &tid, &p.Enabled, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan module permission: %w", err)
		}
		p.TenantID = tid.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpsertModulePermission(ctx context.Context, p *module.Permission) error {
	var (
		tid any
		err error
	)
	if p.TenantID != "" {
		tid = p.TenantID
	}
	if p.TenantID == "" {
		// The partial unique index on (module_key) WHERE tenant_id IS NULL
		// backs this conflict target.
		err = s.pool.QueryRow(ctx,
			`INSERT INTO module_permissions (module_key, tenant_id, enabled)
			 VALUES ($1, NULL, $2)
			 ON CONFLICT (module_key) WHERE tenant_id IS NULL
			 DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = now()
			 RETURNING updated_at`,
			p.ModuleKey, p.Enabled,
		).Scan(&p.UpdatedAt)
	} else {
		err = s.pool.QueryRow(ctx,
			`INSERT INTO module_permissions (module_key, tenant_id, enabled)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (module_key, tenant_id) WHERE tenant_id IS NOT NULL
			 DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = now()
			 RETURNING updated_at`,
			p.ModuleKey, tid, p.Enabled,
		).Scan(&p.UpdatedAt)
	}
	if err != nil {
		return fmt.Errorf("upsert module permission: %w", err)
	}
	return nil
}
