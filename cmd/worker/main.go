package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/venuedesk/venuedesk/internal/app"
	"github.com/venuedesk/venuedesk/internal/catalogue"
	jobmetrics "github.com/venuedesk/venuedesk/internal/jobs"
	"github.com/venuedesk/venuedesk/internal/leads"
	"github.com/venuedesk/venuedesk/internal/platform/cache"
	"github.com/venuedesk/venuedesk/internal/platform/db"
	"github.com/venuedesk/venuedesk/internal/settings"
	"github.com/venuedesk/venuedesk/internal/shared"
	"github.com/venuedesk/venuedesk/internal/storage"
	"github.com/venuedesk/venuedesk/jobs"
	"github.com/venuedesk/venuedesk/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, logger)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var catalogueCache *cache.Versioned
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		catalogueCache = cache.NewVersioned(redisClient, "catalogue", cfg.CatalogueCacheTTL)
	}

	var store storage.Store = storage.Noop{}
	if cfg.StorageEnabled() {
		store, err = storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			logger.Error("init document storage", slog.Any("error", err))
			os.Exit(1)
		}
	}

	renderer, err := report.NewRenderer(report.NewClient(cfg.GotenbergURL))
	if err != nil {
		logger.Error("init renderer", slog.Any("error", err))
		os.Exit(1)
	}

	jobMetrics := jobmetrics.NewMetrics(nil)

	catalogueService := catalogue.NewService(catalogue.NewRepository(pool), catalogueCache, logger)
	settingsService := settings.NewService(settings.NewRepository(pool))
	leadService := leads.NewService(leads.NewRepository(pool), catalogueService, nil, nil, logger)

	notifyJob := &jobs.LeadNotifyJob{
		Leads:    leadService,
		Settings: settingsService,
		Mailer:   jobs.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom),
		Logger:   logger,
		Metrics:  jobMetrics,
	}
	pdfJob := &jobs.QuotePDFJob{
		Leads:    leadService,
		Renderer: renderer,
		Store:    store,
		Notes:    settingsService,
		Logger:   logger,
		Metrics:  jobMetrics,
	}
	cleanupJob := &jobs.IdempotencyCleanupJob{
		Keys:    shared.NewIdempotencyStore(pool),
		Logger:  logger,
		Metrics: jobMetrics,
	}

	cleanupTask, err := jobs.NewIdempotencyCleanupTask(7 * 24)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLeadNotify, Handler: notifyJob.Handle},
			{Type: jobs.TaskQuotePDF, Handler: pdfJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		_ = metricsServer.Close()
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
