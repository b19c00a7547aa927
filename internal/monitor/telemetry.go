package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agrolink/farmlink/internal/domain"
)

// deviceCacheTTL bounds how long a device existence check is trusted.
// Deletes invalidate the entry eagerly; the TTL covers missed events.
const deviceCacheTTL = 5 * time.Minute

// TelemetryService ingests sensor readings against the replica device
// store. Readings for unknown devices are rejected.
type TelemetryService struct {
	telemetry domain.Store[domain.Telemetry]
	devices   domain.Store[domain.Device]
	cache     domain.Cache
	logger    *slog.Logger
}

// NewTelemetryService creates a telemetry service. The cache fronts the
// per-reading device existence check.
func NewTelemetryService(
	telemetry domain.Store[domain.Telemetry],
	devices domain.Store[domain.Device],
	cache domain.Cache,
	logger *slog.Logger,
) *TelemetryService {
	return &TelemetryService{
		telemetry: telemetry,
		devices:   devices,
		cache:     cache,
		logger:    logger.With("service", "telemetry"),
	}
}

// Ingest validates and stores one reading. A missing id is assigned on
// the way in; the referenced device must exist in the replica.
func (s *TelemetryService) Ingest(ctx context.Context, reading domain.Telemetry) (domain.Telemetry, error) {
	if err := reading.Validate(); err != nil {
		return domain.Telemetry{}, err
	}

	if err := s.ensureDeviceExists(ctx, reading.DeviceID); err != nil {
		return domain.Telemetry{}, err
	}

	if reading.ID == "" {
		reading.ID = uuid.NewString()
	}

	if err := s.telemetry.Add(ctx, reading); err != nil {
		return domain.Telemetry{}, fmt.Errorf("failed to add telemetry: %w", err)
	}

	s.logger.Info("telemetry ingested", "telemetry_id", reading.ID, "device_id", reading.DeviceID)
	return reading, nil
}

// ListByDevice returns all readings for one device.
func (s *TelemetryService) ListByDevice(ctx context.Context, deviceID string) ([]domain.Telemetry, error) {
	return s.telemetry.Get(ctx, domain.Eq("device_id", deviceID))
}

// ListDevices returns the replica's view of the device inventory.
func (s *TelemetryService) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return s.devices.Get(ctx)
}

// ensureDeviceExists checks the cache first and falls back to the replica
// store, caching a hit for subsequent readings from the same device.
func (s *TelemetryService) ensureDeviceExists(ctx context.Context, deviceID string) error {
	key := deviceCacheKey(deviceID)

	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("device cache read failed", "device_id", deviceID, "error", err)
	}
	if cached != nil {
		return nil
	}

	_, err = s.devices.GetSingle(ctx, domain.Eq("id", deviceID))
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: device %s does not exist", domain.ErrNotFound, deviceID)
	}
	if err != nil {
		return fmt.Errorf("failed to check device: %w", err)
	}

	if err := s.cache.Set(ctx, key, []byte("1"), deviceCacheTTL); err != nil {
		s.logger.Warn("device cache write failed", "device_id", deviceID, "error", err)
	}
	return nil
}
