package postgres

import (
	"context"
	"fmt"

	"github.com/predialis/predialis/internal/domain/identity"
)

func (s *Store) CreateRefreshToken(ctx context.Context, rt *identity.RefreshToken) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rt.ID, rt.UserID, rt.TokenHash, rt.ExpiresAt, rt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*identity.RefreshToken, error) {
	var rt identity.RefreshToken
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at
		 FROM refresh_tokens WHERE token_hash = $1`,
		tokenHash,
	).Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get refresh token")
	}
	return &rt, nil
}

// RotateRefreshToken deletes the old token and inserts its replacement in one
// transaction. The row lock on the old token makes concurrent rotations of the
// same token fail instead of both succeeding.
func (s *Store) RotateRefreshToken(ctx context.Context, oldID string, newRT *identity.RefreshToken) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("rotate refresh token: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx,
		`SELECT id FROM refresh_tokens WHERE id = $1 FOR UPDATE`, oldID,
	).Scan(&id)
	if err != nil {
		return notFoundWrap(err, "rotate refresh token: lock")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, oldID); err != nil {
		return fmt.Errorf("rotate refresh token: delete: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		newRT.ID, newRT.UserID, newRT.TokenHash, newRT.ExpiresAt, newRT.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("rotate refresh token: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("rotate refresh token: commit: %w", err)
	}
	return nil
}

func (s *Store) DeleteRefreshToken(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (s *Store) DeleteRefreshTokensByUser(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete refresh tokens by user: %w", err)
	}
	return nil
}
