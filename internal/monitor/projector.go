// Package monitor implements the read-side service: it projects device
// events from the broker into a local replica and ingests telemetry
// readings against that replica.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agrolink/farmlink/internal/domain"
)

// Projector applies device events to the replica store. Applying the same
// event twice converges on the same replica state, so redeliveries from
// the broker are harmless.
type Projector struct {
	devices domain.Store[domain.Device]
	cache   domain.Cache
	logger  *slog.Logger
}

// NewProjector creates a projector over the replica device store. The
// cache is invalidated on delete so telemetry ingestion stops accepting
// readings for removed devices immediately.
func NewProjector(devices domain.Store[domain.Device], cache domain.Cache, logger *slog.Logger) *Projector {
	return &Projector{
		devices: devices,
		cache:   cache,
		logger:  logger.With("service", "projector"),
	}
}

// Apply projects one device event onto the replica.
func (p *Projector) Apply(ctx context.Context, event domain.Envelope[domain.Device]) error {
	device := event.Event

	switch event.Status {
	case domain.StatusCreate:
		if err := p.upsert(ctx, device); err != nil {
			return err
		}

	case domain.StatusUpdate:
		err := p.devices.Update(ctx, device)
		if errors.Is(err, domain.ErrNotFound) {
			// The replica missed the create; treat the update as one.
			err = p.devices.Add(ctx, device)
		}
		if err != nil {
			return fmt.Errorf("failed to apply device update: %w", err)
		}

	case domain.StatusDelete:
		if err := p.devices.Remove(ctx, domain.Eq("id", device.ID)); err != nil {
			return fmt.Errorf("failed to apply device delete: %w", err)
		}
		if err := p.cache.Delete(ctx, deviceCacheKey(device.ID)); err != nil {
			p.logger.Warn("failed to invalidate device cache", "device_id", device.ID, "error", err)
		}

	default:
		return fmt.Errorf("unknown event status %q for device %s", event.Status, device.ID)
	}

	p.logger.Info("device event applied", "device_id", device.ID, "status", event.Status)
	return nil
}

// upsert replays create events safely: a redelivered create overwrites
// the existing row instead of failing on the primary key.
func (p *Projector) upsert(ctx context.Context, device domain.Device) error {
	_, err := p.devices.GetSingle(ctx, domain.Eq("id", device.ID))
	if errors.Is(err, domain.ErrNotFound) {
		if err := p.devices.Add(ctx, device); err != nil {
			return fmt.Errorf("failed to apply device create: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check replica device: %w", err)
	}

	if err := p.devices.Update(ctx, device); err != nil {
		return fmt.Errorf("failed to apply device create: %w", err)
	}
	return nil
}

func deviceCacheKey(id string) string {
	return "device:" + id
}
