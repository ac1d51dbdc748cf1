package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/StayPulseHQ/staypulse/internal/platform/config"
	"github.com/StayPulseHQ/staypulse/internal/platform/database"
	"github.com/StayPulseHQ/staypulse/internal/platform/logger"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/adapters/classifier"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/adapters/push"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/adapters/smsprovider"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/app"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/repository/postgres"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/repository/rediscache"
	transport "github.com/StayPulseHQ/staypulse/internal/ingestion/transport/http"
)

const (
	serviceName     = "ingestion_service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger = appLogger.With("service", serviceName)
	appLogger.Info("Starting service...")

	appLogger.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"http_port", cfg.HTTPPort,
		"metrics_port", cfg.MetricsPort,
		"guest_auth_required", cfg.GuestAuthRequired,
		"postgres_dsn_present", cfg.PostgresDSN != "",
	)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(mainCtx).Err(); err != nil {
		// Cache-aside is failure-open; start anyway.
		appLogger.Warn("Redis unreachable at startup, tenant cache degraded to DB reads", "error", err)
	}

	// Repositories
	tenantRepo := postgres.NewPgTenantRepository(dbPool, appLogger)
	cachedTenantRepo := rediscache.NewCachedTenantRepository(tenantRepo, rdb, cfg.TenantCacheTTL, appLogger)
	authRepo := postgres.NewPgAuthorizedNumberRepository(dbPool, appLogger)
	slotRepo := postgres.NewPgRoomSlotRepository(dbPool, appLogger)
	requestRepo := postgres.NewPgRequestRepository(dbPool, appLogger)
	guestRepo := postgres.NewPgGuestRepository(dbPool, appLogger)
	staffRepo := postgres.NewPgStaffDeviceRepository(dbPool, appLogger)

	// Adapters. Without a configured provider/classifier URL the service runs
	// on in-process stand-ins, for local development.
	var smsAdapter smsprovider.Adapter
	if cfg.SMSProviderAPIURL != "" {
		smsAdapter = smsprovider.NewTelnyxProvider(appLogger, cfg.SMSProviderAPIURL, cfg.SMSProviderAPIKey, nil)
	} else {
		appLogger.Warn("No SMS provider URL configured, outbound messages go to the mock provider")
		smsAdapter = smsprovider.NewMockProvider(appLogger, "", 0, 0, 0)
	}
	var triageClient classifier.Classifier
	if cfg.ClassifierURL != "" {
		triageClient = classifier.NewHTTPClassifier(appLogger, cfg.ClassifierURL, cfg.ClassifierTimeout(), nil)
	} else {
		appLogger.Warn("No classifier URL configured, every message triages to the tenant default")
		triageClient = &classifier.MockClassifier{}
	}
	pushSender := push.NewExpoSender(appLogger, cfg.PushAPIURL, cfg.PushSendTimeout(), nil)

	// Application services
	authorizer := app.NewAuthorizationResolver(authRepo, slotRepo, appLogger)
	pipeline := app.NewMessagePipeline(
		app.PipelineConfig{
			GuestAuthRequired: cfg.GuestAuthRequired,
			ConfirmationText:  cfg.ConfirmationText,
			RejectionText:     cfg.RejectionText,
			SendTimeout:       cfg.SMSSendTimeout(),
			PushTimeout:       cfg.PushSendTimeout(),
		},
		cachedTenantRepo,
		authorizer,
		requestRepo,
		guestRepo,
		staffRepo,
		triageClient,
		smsAdapter,
		pushSender,
		appLogger,
	)
	roomOps := app.NewRoomOpsService(slotRepo, cachedTenantRepo, appLogger)

	// Transport
	validate := validator.New()
	webhookHandler := transport.NewWebhookHandler(pipeline, appLogger, validate, cfg.WebhookSecret)
	adminHandler := transport.NewAdminHandler(roomOps, requestRepo, appLogger, validate)
	router := transport.NewRouter(
		webhookHandler,
		adminHandler,
		func(ctx context.Context) error { return dbPool.Ping(ctx) },
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		appLogger,
	)

	appServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server listening", "addr", appServer.Addr)
		if err := appServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Metrics server listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			appLogger.Info("Shutdown signal received", "signal", sig.String())
		case <-groupCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := appServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Warn("HTTP server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Warn("Metrics server shutdown error", "error", err)
		}

		// Let in-flight staff notifications finish before the pool closes.
		pipeline.Drain()
		mainCancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Service terminated with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Service stopped cleanly")
}
