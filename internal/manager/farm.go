// Package manager implements the source-of-truth services for farms and
// devices. All writes go through here; the monitor service only ever sees
// the events these services publish.
package manager

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agrolink/farmlink/internal/domain"
)

// FarmService owns the authoritative farm records.
type FarmService struct {
	farms     domain.Store[domain.Farm]
	devices   domain.Store[domain.Device]
	publisher domain.Publisher[domain.Farm]
	logger    *slog.Logger
}

// NewFarmService creates a farm service backed by the given stores and
// event publisher.
func NewFarmService(
	farms domain.Store[domain.Farm],
	devices domain.Store[domain.Device],
	publisher domain.Publisher[domain.Farm],
	logger *slog.Logger,
) *FarmService {
	return &FarmService{
		farms:     farms,
		devices:   devices,
		publisher: publisher,
		logger:    logger.With("service", "farm"),
	}
}

// Create validates and persists a new farm, then publishes a Create event.
func (s *FarmService) Create(ctx context.Context, farm domain.Farm) error {
	if err := farm.Validate(); err != nil {
		return err
	}

	if err := s.farms.Add(ctx, farm); err != nil {
		return fmt.Errorf("failed to add farm: %w", err)
	}

	s.logger.Info("farm created", "farm_id", farm.ID)
	return s.publish(ctx, farm, domain.StatusCreate)
}

// Update replaces an existing farm, then publishes an Update event.
func (s *FarmService) Update(ctx context.Context, farm domain.Farm) error {
	if err := farm.Validate(); err != nil {
		return err
	}

	if err := s.farms.Update(ctx, farm); err != nil {
		return err
	}

	s.logger.Info("farm updated", "farm_id", farm.ID)
	return s.publish(ctx, farm, domain.StatusUpdate)
}

// Delete removes a farm by id. A farm that still has devices attached
// cannot be deleted; the caller must remove the devices first.
func (s *FarmService) Delete(ctx context.Context, id string) error {
	farm, err := s.farms.GetSingle(ctx, domain.Eq("id", id))
	if err != nil {
		return err
	}

	attached, err := s.devices.Get(ctx, domain.Eq("farm_id", id))
	if err != nil {
		return fmt.Errorf("failed to check attached devices: %w", err)
	}
	if len(attached) > 0 {
		return fmt.Errorf("%w: farm %s has %d attached devices", domain.ErrDependency, id, len(attached))
	}

	if err := s.farms.Remove(ctx, domain.Eq("id", id)); err != nil {
		return fmt.Errorf("failed to remove farm: %w", err)
	}

	s.logger.Info("farm deleted", "farm_id", id)
	return s.publish(ctx, farm, domain.StatusDelete)
}

// GetByID returns a single farm.
func (s *FarmService) GetByID(ctx context.Context, id string) (domain.Farm, error) {
	return s.farms.GetSingle(ctx, domain.Eq("id", id))
}

// List returns all farms.
func (s *FarmService) List(ctx context.Context) ([]domain.Farm, error) {
	return s.farms.Get(ctx)
}

func (s *FarmService) publish(ctx context.Context, farm domain.Farm, status domain.Status) error {
	event := domain.Envelope[domain.Farm]{Event: farm, Status: status}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// The write already happened; the caller needs to know the event
		// did not make it out.
		s.logger.Error("failed to publish farm event", "farm_id", farm.ID, "status", status, "error", err)
		return fmt.Errorf("farm saved but event publish failed: %w", err)
	}
	return nil
}
