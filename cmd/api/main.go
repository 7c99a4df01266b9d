package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/postoppal-api/internal/config"
	"github.com/jwalitptl/postoppal-api/internal/email"
	"github.com/jwalitptl/postoppal-api/internal/handler/health"
	prometheusHandler "github.com/jwalitptl/postoppal-api/internal/handler/prometheus"
	qrHandler "github.com/jwalitptl/postoppal-api/internal/handler/qr"
	"github.com/jwalitptl/postoppal-api/internal/middleware"
	"github.com/jwalitptl/postoppal-api/internal/repository/postgres"
	"github.com/jwalitptl/postoppal-api/internal/router"
	qrService "github.com/jwalitptl/postoppal-api/internal/service/qr"
	"github.com/jwalitptl/postoppal-api/internal/worker"
	"github.com/jwalitptl/postoppal-api/pkg/auth"
	"github.com/jwalitptl/postoppal-api/pkg/logger"
	"github.com/jwalitptl/postoppal-api/pkg/messaging"
	"github.com/jwalitptl/postoppal-api/pkg/messaging/redis"
	"github.com/jwalitptl/postoppal-api/pkg/metrics"
	"github.com/jwalitptl/postoppal-api/pkg/printing"
	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize logger; middleware logs through the global zerolog logger
	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
	})
	log.Logger = *appLogger.Zerolog()

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(cfg.Metrics.Namespace, registry)

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	// Initialize repositories
	baseRepo := postgres.NewBaseRepository(db, m)
	patientRepo := postgres.NewPatientRepository(baseRepo)
	facilityRepo := postgres.NewFacilityRepository(baseRepo)
	scanRepo := postgres.NewScanEventRepository(baseRepo)

	// Initialize Redis message broker
	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Initialize QR service
	clock := qrcodec.SystemClock
	printQueue := printing.NewQueueSurface(broker, printing.QueueSurfaceConfig{
		Channel:       messaging.ChannelPrint,
		Station:       cfg.QR.PrintStation,
		RetryAttempts: 3,
		RetryDelay:    200 * time.Millisecond,
	})

	var mailer email.Service
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	qrSvc := qrService.NewService(qrService.Deps{
		Patients:         patientRepo,
		Facilities:       facilityRepo,
		Scans:            scanRepo,
		Publisher:        broker,
		Mailer:           mailer,
		Encoder:          qrcodec.NewEncoder(cfg.QR.EncoderOptions()),
		Printer:          qrcodec.NewPrinter(cfg.QR.PrinterConfig(), printQueue, clock, appLogger),
		Validator:        qrcodec.NewValidator(clock, cfg.QR.ExpiryWindow),
		Clock:            clock,
		Metrics:          m,
		Logger:           appLogger,
		FacilityCacheTTL: cfg.QR.FacilityCache,
	})

	// Initialize middleware and handlers
	jwtSvc := auth.NewHMACService(cfg.JWT.Secret, cfg.JWT.Issuer)
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	healthHandler := health.NewHandler(map[string]health.Check{
		"database": db.PingContext,
		"redis":    broker.Ping,
	})

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins

	securityConfig := middleware.DefaultSecurityConfig()
	securityConfig.HSTS = cfg.Security.HSTS
	securityConfig.HSTSMaxAge = cfg.Security.HSTSMaxAge
	securityConfig.FrameOptions = cfg.Security.FrameOptions
	securityConfig.ReferrerPolicy = cfg.Security.ReferrerPolicy
	securityConfig.APIPolicy = cfg.Security.APICSP
	securityConfig.DocumentPolicy = cfg.Security.DocumentCSP

	// Setup router
	r := router.NewRouter(
		authMiddleware,
		qrHandler.NewHandler(qrSvc, authMiddleware),
		healthHandler,
		prometheusHandler.New(registry, m),
		router.RouterConfig{
			Mode:             cfg.Server.Mode,
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       corsConfig,
			SecurityConfig:   securityConfig,
		},
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start scan audit retention
	cleanupWorker := worker.NewScanCleanupWorker(scanRepo, cfg.QR.ScanRetention, cfg.QR.CleanupInterval, appLogger)
	go cleanupWorker.Start(ctx)

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
