package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agrolink/farmlink/internal/domain"
)

// DeviceService owns the authoritative device records. Every mutation is
// replicated to the monitor service through the event publisher.
type DeviceService struct {
	devices   domain.Store[domain.Device]
	farms     domain.Store[domain.Farm]
	publisher domain.Publisher[domain.Device]
	logger    *slog.Logger
}

// NewDeviceService creates a device service backed by the given stores and
// event publisher.
func NewDeviceService(
	devices domain.Store[domain.Device],
	farms domain.Store[domain.Farm],
	publisher domain.Publisher[domain.Device],
	logger *slog.Logger,
) *DeviceService {
	return &DeviceService{
		devices:   devices,
		farms:     farms,
		publisher: publisher,
		logger:    logger.With("service", "device"),
	}
}

// Create validates and persists a new device, then publishes a Create
// event. The referenced farm must already exist.
func (s *DeviceService) Create(ctx context.Context, device domain.Device) error {
	if err := device.Validate(); err != nil {
		return err
	}

	if err := s.ensureFarmExists(ctx, device.FarmID); err != nil {
		return err
	}

	if err := s.devices.Add(ctx, device); err != nil {
		return fmt.Errorf("failed to add device: %w", err)
	}

	s.logger.Info("device created", "device_id", device.ID, "farm_id", device.FarmID)
	return s.publish(ctx, device, domain.StatusCreate)
}

// Update replaces an existing device, then publishes an Update event.
// Reassigning a device to a farm that does not exist is rejected.
func (s *DeviceService) Update(ctx context.Context, device domain.Device) error {
	if err := device.Validate(); err != nil {
		return err
	}

	if err := s.ensureFarmExists(ctx, device.FarmID); err != nil {
		return err
	}

	if err := s.devices.Update(ctx, device); err != nil {
		return err
	}

	s.logger.Info("device updated", "device_id", device.ID, "farm_id", device.FarmID)
	return s.publish(ctx, device, domain.StatusUpdate)
}

// Delete removes a device by id and publishes a Delete event carrying only
// the device id. The replica needs nothing else to drop its copy.
func (s *DeviceService) Delete(ctx context.Context, id string) error {
	if _, err := s.devices.GetSingle(ctx, domain.Eq("id", id)); err != nil {
		return err
	}

	if err := s.devices.Remove(ctx, domain.Eq("id", id)); err != nil {
		return fmt.Errorf("failed to remove device: %w", err)
	}

	s.logger.Info("device deleted", "device_id", id)
	return s.publish(ctx, domain.Device{ID: id}, domain.StatusDelete)
}

// GetByID returns a single device.
func (s *DeviceService) GetByID(ctx context.Context, id string) (domain.Device, error) {
	return s.devices.GetSingle(ctx, domain.Eq("id", id))
}

// List returns all devices, optionally narrowed to one farm.
func (s *DeviceService) List(ctx context.Context, farmID string) ([]domain.Device, error) {
	if farmID != "" {
		return s.devices.Get(ctx, domain.Eq("farm_id", farmID))
	}
	return s.devices.Get(ctx)
}

func (s *DeviceService) ensureFarmExists(ctx context.Context, farmID string) error {
	_, err := s.farms.GetSingle(ctx, domain.Eq("id", farmID))
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: farm %s does not exist", domain.ErrNotFound, farmID)
	}
	if err != nil {
		return fmt.Errorf("failed to check farm: %w", err)
	}
	return nil
}

func (s *DeviceService) publish(ctx context.Context, device domain.Device, status domain.Status) error {
	event := domain.Envelope[domain.Device]{Event: device, Status: status}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish device event", "device_id", device.ID, "status", status, "error", err)
		return fmt.Errorf("device saved but event publish failed: %w", err)
	}
	return nil
}
