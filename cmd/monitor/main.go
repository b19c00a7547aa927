// Farmlink monitor - device replica and telemetry ingestion.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/agrolink/farmlink/internal/api"
	"github.com/agrolink/farmlink/internal/broker"
	"github.com/agrolink/farmlink/internal/cache"
	"github.com/agrolink/farmlink/internal/domain"
	"github.com/agrolink/farmlink/internal/monitor"
	"github.com/agrolink/farmlink/internal/repository"
	"github.com/agrolink/farmlink/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("FARMLINK_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting farmlink monitor",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultMonitorConfig()
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"repository", cfg.Repository.Driver,
		"broker", cfg.Broker.Type,
		"cache", cfg.Cache.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize repository
	db, err := repository.Open(cfg.Repository, repository.MonitorSchemas())
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize event subscriber
	var deviceSub domain.Subscriber[domain.Envelope[domain.Device]]
	switch cfg.Broker.Type {
	case "memory":
		bus := broker.NewMemory()
		deviceSub = broker.NewMemorySubscriber[domain.Envelope[domain.Device]](bus, cfg.Broker.DeviceQueue)
	case "amqp":
		conn, err := broker.Dial(cfg.Broker)
		if err != nil {
			slog.Error("failed to connect to broker", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		deviceSub = broker.NewAMQPSubscriber[domain.Envelope[domain.Device]](conn, cfg.Broker.DeviceQueue)
	default:
		slog.Error("unsupported broker type", "type", cfg.Broker.Type)
		os.Exit(1)
	}
	slog.Info("broker initialized", "type", cfg.Broker.Type)

	// Initialize services
	replicaStore := repository.NewDeviceStore(db)
	telemetryStore := repository.NewTelemetryStore(db)
	projector := monitor.NewProjector(replicaStore, cacheImpl, logger)
	telemetry := monitor.NewTelemetryService(telemetryStore, replicaStore, cacheImpl, logger)

	// Start the event consumer before accepting traffic so the replica
	// catches up on any backlog first.
	w := worker.New(deviceSub, projector.Apply, logger)
	if err := w.Start(ctx); err != nil {
		slog.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// Initialize server
	srv := api.NewMonitorServer(cfg.Server, telemetry, db, cacheImpl, Version)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("farmlink monitor is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop the event consumer first
	w.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("farmlink monitor shutdown complete")
}

// applyEnvOverrides layers FARMLINK_* environment variables over the
// default configuration.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("FARMLINK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FARMLINK_DB_DRIVER"); v != "" {
		cfg.Repository.Driver = v
	}
	if v := os.Getenv("FARMLINK_SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("FARMLINK_PG_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("FARMLINK_PG_USER"); v != "" {
		cfg.Repository.PostgresUser = v
	}
	if v := os.Getenv("FARMLINK_PG_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("FARMLINK_PG_DB"); v != "" {
		cfg.Repository.PostgresDB = v
	}
	if v := os.Getenv("FARMLINK_BROKER"); v != "" {
		cfg.Broker.Type = v
	}
	if v := os.Getenv("FARMLINK_BROKER_HOST"); v != "" {
		cfg.Broker.Host = v
	}
	if v := os.Getenv("FARMLINK_BROKER_USER"); v != "" {
		cfg.Broker.User = v
	}
	if v := os.Getenv("FARMLINK_BROKER_PASSWORD"); v != "" {
		cfg.Broker.Password = v
	}
	if v := os.Getenv("FARMLINK_BROKER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Broker.Port = port
		}
	}
	if v := os.Getenv("FARMLINK_CACHE"); v != "" {
		cfg.Cache.Type = v
	}
	if v := os.Getenv("FARMLINK_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("FARMLINK_REDIS_TWO_PHASE"); v == "true" {
		cfg.Cache.EnableTwoPhase = true
	}
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  FARMLINK MONITOR")
	fmt.Println("  Device replica and telemetry ingestion.")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /telemetry              - Ingest a sensor reading")
	fmt.Println("    GET  /devices                - List replicated devices")
	fmt.Println("    GET  /devices/{id}/telemetry - List readings for a device")
	fmt.Println("    GET  /health                 - Health check")
	fmt.Println()
}
