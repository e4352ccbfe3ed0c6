package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/predialis/predialis/internal/domain"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// uuidOK reports whether s is a well-formed UUID. Parameters bound to
// uuid columns are checked up front so a garbage id reads as "no rows"
// instead of a codec error. X-Tenant-ID is caller-supplied, so a garbage
// claim must never look like a store outage.
func uuidOK(s string) bool {
	return uuid.Validate(s) == nil
}

// notFoundWrap maps pgx.ErrNoRows to domain.ErrNotFound, keeping the
// operation name in the message.
func notFoundWrap(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
