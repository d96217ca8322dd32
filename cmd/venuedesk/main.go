package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/venuedesk/venuedesk/internal/app"
	"github.com/venuedesk/venuedesk/internal/auth"
	"github.com/venuedesk/venuedesk/internal/catalogue"
	"github.com/venuedesk/venuedesk/internal/invoices"
	"github.com/venuedesk/venuedesk/internal/leads"
	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/internal/platform/cache"
	"github.com/venuedesk/venuedesk/internal/platform/db"
	"github.com/venuedesk/venuedesk/internal/settings"
	"github.com/venuedesk/venuedesk/jobs"
	"github.com/venuedesk/venuedesk/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, logger)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	var catalogueCache *cache.Versioned
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, catalogue served without cache", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		catalogueCache = cache.NewVersioned(redisClient, "catalogue", cfg.CatalogueCacheTTL)
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		logger.Error("init token verifier", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts, jobs.ClientOptions{StorePDFs: cfg.StorageEnabled()})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	reportClient := report.NewClient(cfg.GotenbergURL)
	renderer, err := report.NewRenderer(reportClient)
	if err != nil {
		logger.Error("init renderer", slog.Any("error", err))
		os.Exit(1)
	}

	catalogueService := catalogue.NewService(catalogue.NewRepository(dbpool), catalogueCache, logger)
	settingsService := settings.NewService(settings.NewRepository(dbpool))
	leadService := leads.NewService(leads.NewRepository(dbpool), catalogueService, jobClient, metrics, logger)
	invoiceService := invoices.NewService(invoices.NewRepository(dbpool), leadService, renderer, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Verifier:         verifier,
		CatalogueHandler: catalogue.NewHandler(logger, catalogueService),
		LeadsHandler:     leads.NewHandler(logger, leadService, renderer, settingsService, cfg.PublicBaseURL),
		InvoicesHandler:  invoices.NewHandler(logger, invoiceService),
		SettingsHandler:  settings.NewHandler(logger, settingsService),
		ReportHandler:    report.NewHandler(reportClient, logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
