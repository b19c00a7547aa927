package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agrolink/farmlink/internal/domain"
	"github.com/agrolink/farmlink/internal/monitor"
)

// MonitorServer is the HTTP API of the telemetry service.
type MonitorServer struct {
	router  *chi.Mux
	handler *MonitorHandler
	server  *http.Server
	config  domain.ServerConfig
}

// NewMonitorServer creates the monitor API server.
func NewMonitorServer(
	cfg domain.ServerConfig,
	telemetry *monitor.TelemetryService,
	db Pinger,
	cache domain.Cache,
	version string,
) *MonitorServer {
	handler := NewMonitorHandler(telemetry, db, cache, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// Telemetry ingestion and retrieval
	router.Post("/telemetry", handler.IngestTelemetry)
	router.Get("/devices", handler.ListDevices)
	router.Get("/devices/{id}/telemetry", handler.ListDeviceTelemetry)

	return &MonitorServer{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *MonitorServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *MonitorServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *MonitorServer) Router() *chi.Mux {
	return s.router
}

// MonitorHandler holds dependencies for the monitor API handlers.
type MonitorHandler struct {
	telemetry *monitor.TelemetryService
	db        Pinger
	cache     domain.Cache
	version   string
}

// NewMonitorHandler creates a new monitor API handler.
func NewMonitorHandler(telemetry *monitor.TelemetryService, db Pinger, cache domain.Cache, version string) *MonitorHandler {
	return &MonitorHandler{
		telemetry: telemetry,
		db:        db,
		cache:     cache,
		version:   version,
	}
}

// Health reports service and backend health.
func (h *MonitorHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *MonitorHandler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// IngestTelemetry handles POST /telemetry.
func (h *MonitorHandler) IngestTelemetry(w http.ResponseWriter, r *http.Request) {
	var reading domain.Telemetry
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	stored, err := h.telemetry.Ingest(r.Context(), reading)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// ListDevices handles GET /devices against the replica.
func (h *MonitorHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.telemetry.ListDevices(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// ListDeviceTelemetry handles GET /devices/{id}/telemetry.
func (h *MonitorHandler) ListDeviceTelemetry(w http.ResponseWriter, r *http.Request) {
	readings, err := h.telemetry.ListByDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if readings == nil {
		readings = []domain.Telemetry{}
	}
	writeJSON(w, http.StatusOK, readings)
}
