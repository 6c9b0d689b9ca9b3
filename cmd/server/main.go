package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"motodispatch/internal/app"
	"motodispatch/internal/audit"
	"motodispatch/internal/config"
	"motodispatch/internal/handler"
	"motodispatch/internal/logging"
	internalRedis "motodispatch/internal/redis"
	"motodispatch/internal/repository/postgres"
	"motodispatch/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()
	logger := logging.NewLogger(cfg.Server.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("new relic init failed", "error", err)
		} else {
			logger.Info("new relic enabled", "app", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to postgres")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("connected to redis")

	// Audit records go to Kafka when brokers are configured, to the
	// log otherwise.
	var auditPublisher audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPublisher.Close()
		auditPublisher = kafkaPublisher
		logger.Info("audit stream enabled", "topic", cfg.Kafka.Topic)
	} else {
		auditPublisher = audit.NewLogPublisher(logger)
	}

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, auditPublisher, cfg, logger)

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	auditPublisher audit.Publisher,
	cfg *config.Config,
	logger *slog.Logger,
) *http.Server {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Initialize repositories.
	driverRepo := postgres.NewDriverRepository(db)
	rideRepo := postgres.NewRideRepository(db)

	// Initialize services.
	auditLog := audit.NewLogger(auditPublisher, logger)
	notificationService := service.NewNotificationService(service.NewLogSender(logger), logger)
	surgeService := service.NewSurgeService(locationStore, rideRepo, cfg.Surge, logger)
	rideService := service.NewRideService(rideRepo, driverRepo, locationStore, surgeService, notificationService, auditLog, cfg.Pricing, cfg.Dispatch, logger)
	driverService := service.NewDriverService(driverRepo, locationStore, auditLog, logger)
	assignmentService := service.NewAssignmentService(lockStore, rideRepo, driverRepo, notificationService, auditLog, cfg.Dispatch.RideLockTTL, logger)

	// Initialize handlers.
	rideHandler := handler.NewRideHandler(rideService, assignmentService)
	driverHandler := handler.NewDriverHandler(driverService, rideService)
	fareHandler := handler.NewFareHandler(rideService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:   rideHandler,
		DriverHandler: driverHandler,
		FareHandler:   fareHandler,
		RedisClient:   redisClient,
		NewRelicApp:   nrApp,
		AuthSecret:    cfg.Auth.Secret,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
