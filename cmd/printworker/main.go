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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/postoppal-api/internal/config"
	"github.com/jwalitptl/postoppal-api/pkg/logger"
	"github.com/jwalitptl/postoppal-api/pkg/messaging"
	"github.com/jwalitptl/postoppal-api/pkg/messaging/redis"
	"github.com/jwalitptl/postoppal-api/pkg/metrics"
	"github.com/jwalitptl/postoppal-api/pkg/worker"
)

func setupHealthCheck(port int, broker messaging.Broker, registry *prometheus.Registry, logger *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := broker.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}

func main() {
	// Load config
	cfg, err := config.LoadPrintWorkerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger
	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.LogJSON,
	})
	log.Logger = *appLogger.Zerolog()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(cfg.MetricsPrefix, registry)

	// Initialize Redis broker
	broker, err := redis.NewRedisBroker(cfg.ToBrokerConfig(), appLogger.Zerolog())
	if err != nil {
		appLogger.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	spooler := worker.NewPrintSpooler(
		broker,
		worker.PrintSpoolerConfig{Channel: cfg.Channel, Dir: cfg.SpoolDir},
		appLogger,
		m,
	)

	// Setup health check endpoints
	healthSrv := setupHealthCheck(cfg.HealthPort, broker, registry, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		cancel()
	}()

	if err := spooler.Start(ctx); err != nil {
		appLogger.Error(err, "Print spooler stopped")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = healthSrv.Shutdown(shutdownCtx)
}
