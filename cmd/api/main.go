package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/credit-ledger-api/internal/config"
	"github.com/noah-isme/credit-ledger-api/internal/database"
	"github.com/noah-isme/credit-ledger-api/internal/handler"
	"github.com/noah-isme/credit-ledger-api/internal/middleware"
	"github.com/noah-isme/credit-ledger-api/internal/observability"
	"github.com/noah-isme/credit-ledger-api/internal/repository"
	"github.com/noah-isme/credit-ledger-api/internal/router"
	"github.com/noah-isme/credit-ledger-api/internal/service"
	cloud "github.com/noah-isme/credit-ledger-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "credit-ledger-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, cfg.DatabaseMaxRetries, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, course completion dedupe relies on storage only")
	}

	var natsConn *nats.Conn
	events := service.NewNoopEventPublisher()
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
		events = service.NewNATSEventPublisher(natsConn, cfg.EventSubjectBase, logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activityRepo := repository.NewActivityRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	reportRepo := repository.NewLedgerReportRepository(db)
	historicalRepo := repository.NewHistoricalPointsRepository(db)
	practitionerRepo := repository.NewPractitionerRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	catalogService := service.NewCatalogService(activityRepo, validate, auditService, logger)
	ledgerService := service.NewLedgerService(submissionRepo, activityRepo, validate, auditService, events, logger)
	bridge := service.NewCreditBridge(activityRepo, ledgerService, redisClient, validate, service.CreditBridgeConfig{
		DefaultCredit: cfg.AutomaticDefaultCredit,
		DedupeTTL:     cfg.BridgeDedupeTTL,
	}, logger)
	reportService := service.NewReportService(reportRepo, historicalRepo, practitionerRepo, validate, cfg.CycleTarget, logger)
	historicalService := service.NewHistoricalImportService(historicalRepo, practitionerRepo, auditService, logger)

	deps := router.Dependencies{
		ActivityHandler:   handler.NewActivityHandler(catalogService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(ledgerService, logger),
		ReportHandler:     handler.NewReportHandler(reportService, logger),
		HistoricalHandler: handler.NewHistoricalHandler(historicalService, logger),
		BridgeHandler:     handler.NewBridgeHandler(bridge, logger),
		AuditHandler:      handler.NewAuditHandler(auditService, logger),
		AuthMiddleware:    middleware.Authenticate(cfg.JWTSecret),
	}

	if cfg.EvidenceUploadsEnabled() {
		store, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		evidenceService := service.NewEvidenceService(store, auditService, cfg.EvidenceMaxSizeMB, logger)
		deps.EvidenceHandler = handler.NewEvidenceHandler(evidenceService, logger)
	} else {
		logger.Warn().Msg("cloudinary not configured, evidence uploads disabled")
	}

	if natsConn != nil {
		consumer, err := service.NewCourseCompletionConsumer(natsConn, bridge, cfg.CourseCompletedSubject, cfg.CourseCompletedQueue, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build course completion consumer")
		}
		if err := consumer.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to start course completion consumer")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.EvidenceMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.AccessLog,
	})
	router.Register(app, cfg, deps)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(ctx, app, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
