package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Direction selects the migration command to run.
type Direction string

const (
	MigrateUp     Direction = "up"
	MigrateDown   Direction = "down"
	MigrateStatus Direction = "status"
)

// Migrate applies the embedded schema migrations through goose.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dir Direction, logger *slog.Logger) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer func() {
		_ = sqlDB.Close()
	}()
	return migrate(ctx, sqlDB, dir, logger)
}

func migrate(ctx context.Context, sqlDB *sql.DB, dir Direction, logger *slog.Logger) error {
	goose.SetBaseFS(migrations)
	if logger != nil {
		goose.SetLogger(gooseLogger{logger: logger})
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("platform/db: set dialect: %w", err)
	}

	var err error
	switch dir {
	case MigrateUp:
		err = goose.UpContext(ctx, sqlDB, migrationsDir)
	case MigrateDown:
		err = goose.DownContext(ctx, sqlDB, migrationsDir)
	case MigrateStatus:
		err = goose.StatusContext(ctx, sqlDB, migrationsDir)
	default:
		return fmt.Errorf("platform/db: unknown migration direction %q", dir)
	}
	if err != nil {
		return fmt.Errorf("platform/db: migrate %s: %w", dir, err)
	}
	return nil
}

type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...), slog.String("component", "goose"))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "goose"))
}
