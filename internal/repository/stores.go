package repository

import (
	"github.com/agrolink/farmlink/internal/domain"
)

// NewFarmStore creates the farm store over the manager database.
func NewFarmStore(db *DB) domain.Store[domain.Farm] {
	return &table[domain.Farm]{
		db:      db,
		name:    "farms",
		columns: []string{"id", "name"},
		values: func(f domain.Farm) []any {
			return []any{f.ID, f.Name}
		},
		scan: func(r rowScanner) (domain.Farm, error) {
			var f domain.Farm
			err := r.Scan(&f.ID, &f.Name)
			return f, err
		},
	}
}

// NewDeviceStore creates a device store. The same mapping serves both the
// authoritative copy in the manager database and the replicated copy in
// the monitor database; only the schemas differ.
func NewDeviceStore(db *DB) domain.Store[domain.Device] {
	return &table[domain.Device]{
		db:      db,
		name:    "devices",
		columns: []string{"id", "farm_id"},
		values: func(d domain.Device) []any {
			return []any{d.ID, d.FarmID}
		},
		scan: func(r rowScanner) (domain.Device, error) {
			var d domain.Device
			err := r.Scan(&d.ID, &d.FarmID)
			return d, err
		},
	}
}

// NewTelemetryStore creates the telemetry store over the monitor database.
func NewTelemetryStore(db *DB) domain.Store[domain.Telemetry] {
	return &table[domain.Telemetry]{
		db:      db,
		name:    "telemetry",
		columns: []string{"id", "temperature", "humidity", "measurement_date", "device_id"},
		values: func(t domain.Telemetry) []any {
			return []any{t.ID, t.Temperature, t.Humidity, t.MeasurementDate, t.DeviceID}
		},
		scan: func(r rowScanner) (domain.Telemetry, error) {
			var t domain.Telemetry
			err := r.Scan(&t.ID, &t.Temperature, &t.Humidity, &t.MeasurementDate, &t.DeviceID)
			return t, err
		},
	}
}
