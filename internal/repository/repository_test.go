package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/agrolink/farmlink/internal/domain"
)

func newTestDB(t *testing.T, schemas []string) *DB {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "farmlink-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	cfg := domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	}

	db, err := Open(cfg, schemas)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestManagerStores(t *testing.T) {
	db := newTestDB(t, ManagerSchemas())
	farms := NewFarmStore(db)
	devices := NewDeviceStore(db)

	ctx := context.Background()
	farmID := "7f3a2b1c-0000-4000-8000-000000000001"

	t.Run("Ping", func(t *testing.T) {
		if err := db.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("AddAndGetSingleFarm", func(t *testing.T) {
		farm := domain.Farm{ID: farmID, Name: "The Farm"}
		if err := farms.Add(ctx, farm); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		got, err := farms.GetSingle(ctx, domain.Eq("id", farmID))
		if err != nil {
			t.Fatalf("GetSingle failed: %v", err)
		}
		if got != farm {
			t.Errorf("expected %+v, got %+v", farm, got)
		}
	})

	t.Run("GetSingleNotFound", func(t *testing.T) {
		_, err := farms.GetSingle(ctx, domain.Eq("id", "7f3a2b1c-0000-4000-8000-0000000000ff"))
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("UpdateFarm", func(t *testing.T) {
		updated := domain.Farm{ID: farmID, Name: "Renamed Farm"}
		if err := farms.Update(ctx, updated); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, err := farms.GetSingle(ctx, domain.Eq("id", farmID))
		if err != nil {
			t.Fatalf("GetSingle failed: %v", err)
		}
		if got.Name != "Renamed Farm" {
			t.Errorf("expected renamed farm, got %q", got.Name)
		}
	})

	t.Run("UpdateMissingFarm", func(t *testing.T) {
		err := farms.Update(ctx, domain.Farm{ID: "7f3a2b1c-0000-4000-8000-0000000000fe", Name: "Ghost"})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("GetSingleMultipleMatches", func(t *testing.T) {
		d1 := domain.Device{ID: "7f3a2b1c-0000-4000-8000-000000000010", FarmID: farmID}
		d2 := domain.Device{ID: "7f3a2b1c-0000-4000-8000-000000000011", FarmID: farmID}
		if err := devices.Add(ctx, d1); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if err := devices.Add(ctx, d2); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		_, err := devices.GetSingle(ctx, domain.Eq("farm_id", farmID))
		if !errors.Is(err, domain.ErrMultipleMatches) {
			t.Errorf("expected ErrMultipleMatches, got: %v", err)
		}

		all, err := devices.Get(ctx, domain.Eq("farm_id", farmID))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 devices, got %d", len(all))
		}
	})

	t.Run("RemoveAbsentIsNoOp", func(t *testing.T) {
		err := devices.Remove(ctx, domain.Eq("id", "7f3a2b1c-0000-4000-8000-0000000000fd"))
		if err != nil {
			t.Errorf("expected no-op, got: %v", err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := devices.Remove(ctx, domain.Eq("id", "7f3a2b1c-0000-4000-8000-000000000010")); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}

		_, err := devices.GetSingle(ctx, domain.Eq("id", "7f3a2b1c-0000-4000-8000-000000000010"))
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound after removal, got: %v", err)
		}
	})

	t.Run("UnknownFilterField", func(t *testing.T) {
		_, err := farms.Get(ctx, domain.Eq("owner", "nobody"))
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for unknown field, got: %v", err)
		}
	})

	t.Run("UnknownFilterOperator", func(t *testing.T) {
		_, err := farms.Get(ctx, domain.Filter{Field: "id", Op: "LIKE", Value: "%"})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for unknown operator, got: %v", err)
		}
	})
}

func TestMonitorStores(t *testing.T) {
	db := newTestDB(t, MonitorSchemas())
	devices := NewDeviceStore(db)
	telemetry := NewTelemetryStore(db)

	ctx := context.Background()
	deviceID := "9c1d4e2f-0000-4000-8000-000000000001"

	t.Run("ReplicaDeviceHasNoFarmConstraint", func(t *testing.T) {
		// The replica copy is flat: the farm does not exist in this database.
		d := domain.Device{ID: deviceID, FarmID: "9c1d4e2f-0000-4000-8000-000000000002"}
		if err := devices.Add(ctx, d); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	})

	t.Run("AddAndGetTelemetry", func(t *testing.T) {
		reading := domain.Telemetry{
			ID:              "9c1d4e2f-0000-4000-8000-000000000010",
			Temperature:     23.4,
			Humidity:        0.58,
			MeasurementDate: time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC),
			DeviceID:        deviceID,
		}
		if err := telemetry.Add(ctx, reading); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		got, err := telemetry.GetSingle(ctx, domain.Eq("id", reading.ID))
		if err != nil {
			t.Fatalf("GetSingle failed: %v", err)
		}
		if got.Temperature != reading.Temperature || got.Humidity != reading.Humidity {
			t.Errorf("expected %+v, got %+v", reading, got)
		}
		if !got.MeasurementDate.Equal(reading.MeasurementDate) {
			t.Errorf("expected measurement date %v, got %v", reading.MeasurementDate, got.MeasurementDate)
		}
		if got.DeviceID != deviceID {
			t.Errorf("expected device id %s, got %s", deviceID, got.DeviceID)
		}
	})

	t.Run("GetTelemetryByDevice", func(t *testing.T) {
		second := domain.Telemetry{
			ID:              "9c1d4e2f-0000-4000-8000-000000000011",
			Temperature:     24.1,
			Humidity:        0.61,
			MeasurementDate: time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC),
			DeviceID:        deviceID,
		}
		if err := telemetry.Add(ctx, second); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		readings, err := telemetry.Get(ctx, domain.Eq("device_id", deviceID))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(readings) != 2 {
			t.Errorf("expected 2 readings, got %d", len(readings))
		}
	})
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := Open(cfg, ManagerSchemas())
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	db := &DB{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := db.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
