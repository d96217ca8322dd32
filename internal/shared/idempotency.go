package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/venuedesk/venuedesk/internal/platform/db"
)

// IdempotencyStore remembers which request keys were already processed and what they produced.
type IdempotencyStore struct {
	db db.DBTX
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(conn db.DBTX) *IdempotencyStore {
	return &IdempotencyStore{db: conn}
}

// WithTx binds the store to a transaction.
func (s *IdempotencyStore) WithTx(tx db.DBTX) *IdempotencyStore {
	return &IdempotencyStore{db: tx}
}

// ErrIdempotencyConflict indicates the key was already used.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// Claim records key for module with the reference it produced. When the key already exists the
// stored reference is returned with ErrIdempotencyConflict.
func (s *IdempotencyStore) Claim(ctx context.Context, key, module, ref string) (string, error) {
	if s == nil {
		return "", errors.New("idempotency store not initialised")
	}
	if key == "" {
		return "", errors.New("idempotency key required")
	}
	if module == "" {
		return "", errors.New("idempotency module required")
	}
	var inserted string
	err := s.db.QueryRow(ctx, `
		INSERT INTO idempotency_keys (key, module, ref, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (key, module) DO NOTHING
		RETURNING ref`, key, module, ref, time.Now()).Scan(&inserted)
	if err == nil {
		return inserted, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	var existing string
	if err := s.db.QueryRow(ctx, `SELECT ref FROM idempotency_keys WHERE key = $1 AND module = $2`, key, module).Scan(&existing); err != nil {
		return "", err
	}
	return existing, ErrIdempotencyConflict
}

// Cleanup removes entries older than retention and reports how many were deleted.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil {
		return 0, nil
	}
	cutoff := time.Now().Add(-olderThan)
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
