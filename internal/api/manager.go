// Package api exposes the HTTP surfaces of the manager and monitor
// services.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/agrolink/farmlink/internal/domain"
	"github.com/agrolink/farmlink/internal/manager"
)

// ManagerServer is the HTTP API of the source-of-truth service.
type ManagerServer struct {
	router  *chi.Mux
	handler *ManagerHandler
	server  *http.Server
	config  domain.ServerConfig
}

// NewManagerServer creates the manager API server.
func NewManagerServer(
	cfg domain.ServerConfig,
	farms *manager.FarmService,
	devices *manager.DeviceService,
	db Pinger,
	version string,
) *ManagerServer {
	handler := NewManagerHandler(farms, devices, db, version)
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

	// Farm management
	router.Get("/farms", handler.ListFarms)
	router.Post("/farms", handler.CreateFarm)
	router.Get("/farms/{id}", handler.GetFarm)
	router.Put("/farms/{id}", handler.UpdateFarm)
	router.Delete("/farms/{id}", handler.DeleteFarm)

	// Device management
	router.Get("/devices", handler.ListDevices)
	router.Post("/devices", handler.CreateDevice)
	router.Get("/devices/{id}", handler.GetDevice)
	router.Put("/devices/{id}", handler.UpdateDevice)
	router.Delete("/devices/{id}", handler.DeleteDevice)

	return &ManagerServer{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *ManagerServer) Start() error {
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
func (s *ManagerServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *ManagerServer) Router() *chi.Mux {
	return s.router
}

// ManagerHandler holds dependencies for the manager API handlers.
type ManagerHandler struct {
	farms   *manager.FarmService
	devices *manager.DeviceService
	db      Pinger
	version string
}

// NewManagerHandler creates a new manager API handler.
func NewManagerHandler(farms *manager.FarmService, devices *manager.DeviceService, db Pinger, version string) *ManagerHandler {
	return &ManagerHandler{
		farms:   farms,
		devices: devices,
		db:      db,
		version: version,
	}
}

// Health reports service and backend health.
func (h *ManagerHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *ManagerHandler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// ListFarms handles GET /farms.
func (h *ManagerHandler) ListFarms(w http.ResponseWriter, r *http.Request) {
	farms, err := h.farms.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if farms == nil {
		farms = []domain.Farm{}
	}
	writeJSON(w, http.StatusOK, farms)
}

// CreateFarm handles POST /farms. A missing id is assigned on the way in.
func (h *ManagerHandler) CreateFarm(w http.ResponseWriter, r *http.Request) {
	var farm domain.Farm
	if err := json.NewDecoder(r.Body).Decode(&farm); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if farm.ID == "" {
		farm.ID = uuid.New().String()
	}

	if err := h.farms.Create(r.Context(), farm); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, farm)
}

// GetFarm handles GET /farms/{id}.
func (h *ManagerHandler) GetFarm(w http.ResponseWriter, r *http.Request) {
	farm, err := h.farms.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, farm)
}

// UpdateFarm handles PUT /farms/{id}. The path id wins over the body id.
func (h *ManagerHandler) UpdateFarm(w http.ResponseWriter, r *http.Request) {
	var farm domain.Farm
	if err := json.NewDecoder(r.Body).Decode(&farm); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	farm.ID = chi.URLParam(r, "id")

	if err := h.farms.Update(r.Context(), farm); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, farm)
}

// DeleteFarm handles DELETE /farms/{id}.
func (h *ManagerHandler) DeleteFarm(w http.ResponseWriter, r *http.Request) {
	if err := h.farms.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDevices handles GET /devices, optionally filtered by ?farmId=.
func (h *ManagerHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.List(r.Context(), r.URL.Query().Get("farmId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// CreateDevice handles POST /devices. A missing id is assigned on the way in.
func (h *ManagerHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var device domain.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if device.ID == "" {
		device.ID = uuid.New().String()
	}

	if err := h.devices.Create(r.Context(), device); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, device)
}

// GetDevice handles GET /devices/{id}.
func (h *ManagerHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.devices.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// UpdateDevice handles PUT /devices/{id}. The path id wins over the body id.
func (h *ManagerHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	var device domain.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	device.ID = chi.URLParam(r, "id")

	if err := h.devices.Update(r.Context(), device); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// DeleteDevice handles DELETE /devices/{id}.
func (h *ManagerHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.devices.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
