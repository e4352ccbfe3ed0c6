package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/predialis/predialis/internal/domain"
	"github.com/predialis/predialis/internal/domain/identity"
)

func (s *Store) CreateIdentity(ctx context.Context, i *identity.Identity) error {
	now := time.Now().UTC()
	i.CreatedAt = now
	i.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, global_role, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		i.ID, i.Email, i.Name, i.PasswordHash, i.GlobalRole, i.Enabled, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (s *Store) GetIdentity(ctx context.Context, id string) (*identity.Identity, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, global_role, enabled, created_at, updated_at
		FROM users WHERE id = $1`, id)

	var i identity.Identity
	err := row.Scan(&i.ID, &i.Email, &i.Name, &i.PasswordHash, &i.GlobalRole, &i.Enabled, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get identity")
	}
	return &i, nil
}

func (s *Store) GetIdentityByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, global_role, enabled, created_at, updated_at
		FROM users WHERE email = $1`, email)

	var i identity.Identity
	err := row.Scan(&i.ID, &i.Email, &i.Name, &i.PasswordHash, &i.GlobalRole, &i.Enabled, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get identity by email")
	}
	return &i, nil
}

func (s *Store) ListIdentities(ctx context.Context) ([]identity.Identity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email, name, password_hash, global_role, enabled, created_at, updated_at
		FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []identity.Identity
	for rows.Next() {
		var i identity.Identity
		if err := rows.Scan(&i.ID, &i.Email, &i.Name, &i.PasswordHash, &i.GlobalRole, &i.Enabled, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *Store) UpdateIdentity(ctx context.Context, i *identity.Identity) error {
	i.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET name = $2, global_role = $3, enabled = $4, password_hash = $5, updated_at = $6
		WHERE id = $1`,
		i.ID, i.Name, i.GlobalRole, i.Enabled, i.PasswordHash, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update identity %s: %w", i.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete identity %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
