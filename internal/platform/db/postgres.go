package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectTimeout bounds how long New keeps retrying an unreachable database.
const ConnectTimeout = 2 * time.Minute

// New creates a new PostgreSQL connection pool. The first ping is retried with exponential
// backoff so the binaries tolerate a database that starts after them.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = ConnectTimeout
	policy.MaxInterval = 15 * time.Second

	err = backoff.RetryNotify(
		func() error {
			return pool.Ping(ctx)
		},
		backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			if logger != nil {
				logger.Warn("postgres not ready, retrying", slog.Any("error", err), slog.Duration("next_attempt_in", next))
			}
		},
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}
