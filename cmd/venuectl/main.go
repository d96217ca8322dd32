package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/venuedesk/venuedesk/cmd/venuectl/cli"
	"github.com/venuedesk/venuedesk/internal/app"
	"github.com/venuedesk/venuedesk/internal/auth"
	"github.com/venuedesk/venuedesk/internal/catalogue"
	"github.com/venuedesk/venuedesk/internal/platform/db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(dependencies(ctx))
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "venuectl:", err)
		os.Exit(1)
	}
}

// dependencies loads configuration only when a command needs it.
func dependencies(ctx context.Context) cli.Dependencies {
	return cli.Dependencies{
		Migrator: func() (cli.Migrator, func(), error) {
			cfg, logger, err := setup()
			if err != nil {
				return nil, nil, err
			}
			pool, err := db.New(ctx, cfg.PGDSN, logger)
			if err != nil {
				return nil, nil, err
			}
			migrate := func(ctx context.Context, dir db.Direction) error {
				return db.Migrate(ctx, pool, dir, logger)
			}
			return migrate, pool.Close, nil
		},
		Importer: func() (cli.CatalogueImporter, func(), error) {
			cfg, logger, err := setup()
			if err != nil {
				return nil, nil, err
			}
			pool, err := db.New(ctx, cfg.PGDSN, logger)
			if err != nil {
				return nil, nil, err
			}
			svc := catalogue.NewService(catalogue.NewRepository(pool), nil, logger)
			return svc.Import, pool.Close, nil
		},
		Signer: func() (cli.TokenSigner, error) {
			cfg, _, err := setup()
			if err != nil {
				return nil, err
			}
			return auth.NewVerifier(cfg.JWTSecret)
		},
		Jobs: func() (cli.JobQueue, error) {
			cfg, _, err := setup()
			if err != nil {
				return nil, err
			}
			return cli.NewJobsCLI(cfg.RedisAddr), nil
		},
	}
}

func setup() (*app.Config, *slog.Logger, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg, app.NewLogger(cfg), nil
}
