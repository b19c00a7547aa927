// Farmlink manager - the source of truth for farms and devices.
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
	"github.com/agrolink/farmlink/internal/domain"
	"github.com/agrolink/farmlink/internal/manager"
	"github.com/agrolink/farmlink/internal/repository"
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

	slog.Info("starting farmlink manager",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultManagerConfig()
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"repository", cfg.Repository.Driver,
		"broker", cfg.Broker.Type,
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
	db, err := repository.Open(cfg.Repository, repository.ManagerSchemas())
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize event publishers
	var (
		farmPub   domain.Publisher[domain.Farm]
		devicePub domain.Publisher[domain.Device]
	)
	switch cfg.Broker.Type {
	case "memory":
		bus := broker.NewMemory()
		farmPub = broker.NewMemoryPublisher[domain.Farm](bus, cfg.Broker.FarmQueue)
		devicePub = broker.NewMemoryPublisher[domain.Device](bus, cfg.Broker.DeviceQueue)
	case "amqp":
		conn, err := broker.Dial(cfg.Broker)
		if err != nil {
			slog.Error("failed to connect to broker", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		farmPub = broker.NewAMQPPublisher[domain.Farm](conn, cfg.Broker.FarmQueue)
		devicePub = broker.NewAMQPPublisher[domain.Device](conn, cfg.Broker.DeviceQueue)
	default:
		slog.Error("unsupported broker type", "type", cfg.Broker.Type)
		os.Exit(1)
	}
	slog.Info("broker initialized", "type", cfg.Broker.Type)

	// Initialize services
	farmStore := repository.NewFarmStore(db)
	deviceStore := repository.NewDeviceStore(db)
	farms := manager.NewFarmService(farmStore, deviceStore, farmPub, logger)
	devices := manager.NewDeviceService(deviceStore, farmStore, devicePub, logger)

	// Initialize server
	srv := api.NewManagerServer(cfg.Server, farms, devices, db, Version)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("farmlink manager is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("farmlink manager shutdown complete")
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
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  FARMLINK MANAGER")
	fmt.Println("  The source of truth for farms and devices.")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET    /farms           - List farms")
	fmt.Println("    POST   /farms           - Create a farm")
	fmt.Println("    GET    /farms/{id}      - Get farm by ID")
	fmt.Println("    PUT    /farms/{id}      - Update a farm")
	fmt.Println("    DELETE /farms/{id}      - Delete a farm")
	fmt.Println("    GET    /devices         - List devices")
	fmt.Println("    POST   /devices         - Create a device")
	fmt.Println("    GET    /devices/{id}    - Get device by ID")
	fmt.Println("    PUT    /devices/{id}    - Update a device")
	fmt.Println("    DELETE /devices/{id}    - Delete a device")
	fmt.Println("    GET    /health          - Health check")
	fmt.Println()
}
