// Package domain defines the core entities and interfaces for Farmlink.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxFarmNameLen is the longest farm name the manager service accepts.
const MaxFarmNameLen = 50

// Farm is the aggregate root owned exclusively by the manager service.
type Farm struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Validate checks the farm shape before it reaches the store.
func (f Farm) Validate() error {
	if _, err := uuid.Parse(f.ID); err != nil {
		return fmt.Errorf("%w: farm id must be a UUID", ErrInvalidInput)
	}
	if f.Name == "" {
		return fmt.Errorf("%w: farm name is required", ErrInvalidInput)
	}
	if len(f.Name) > MaxFarmNameLen {
		return fmt.Errorf("%w: farm name exceeds %d characters", ErrInvalidInput, MaxFarmNameLen)
	}
	return nil
}

// Device exists in both services' stores: the authoritative copy in the
// manager database and the replicated copy in the monitor database. The
// replicated copy carries the farm id as a flat foreign key only.
type Device struct {
	ID     string `json:"id"`
	FarmID string `json:"farmId"`
}

// Validate checks the device shape before it reaches the store.
func (d Device) Validate() error {
	if _, err := uuid.Parse(d.ID); err != nil {
		return fmt.Errorf("%w: device id must be a UUID", ErrInvalidInput)
	}
	if _, err := uuid.Parse(d.FarmID); err != nil {
		return fmt.Errorf("%w: device farm id must be a UUID", ErrInvalidInput)
	}
	return nil
}

// Telemetry is a single sensor reading. It lives only in the monitor
// database and is ingested directly, never replicated over the broker.
type Telemetry struct {
	ID              string    `json:"id"`
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	MeasurementDate time.Time `json:"measurementDate"`
	DeviceID        string    `json:"deviceId"`
}

// Validate checks the reading shape before it reaches the store.
// The id may be empty; the service assigns one on ingestion.
func (t Telemetry) Validate() error {
	if t.ID != "" {
		if _, err := uuid.Parse(t.ID); err != nil {
			return fmt.Errorf("%w: telemetry id must be a UUID", ErrInvalidInput)
		}
	}
	if _, err := uuid.Parse(t.DeviceID); err != nil {
		return fmt.Errorf("%w: telemetry device id must be a UUID", ErrInvalidInput)
	}
	if t.MeasurementDate.IsZero() {
		return fmt.Errorf("%w: measurement date is required", ErrInvalidInput)
	}
	return nil
}
