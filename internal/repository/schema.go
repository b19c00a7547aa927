package repository

// Schema definitions for the Farmlink databases.
// Compatible with both SQLite and PostgreSQL.

const schemaFarms = `
CREATE TABLE IF NOT EXISTS farms (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);
`

// The authoritative device table keeps a real foreign key to farms; the
// integrity guard in the service layer runs first, the constraint is the
// backstop.
const schemaManagerDevices = `
CREATE TABLE IF NOT EXISTS devices (
    id TEXT PRIMARY KEY,
    farm_id TEXT NOT NULL REFERENCES farms(id)
);

CREATE INDEX IF NOT EXISTS idx_devices_farm ON devices(farm_id);
`

// The replicated device table is a flat copy: no relation to farms exists
// in the monitor database, only the foreign key value itself.
const schemaReplicaDevices = `
CREATE TABLE IF NOT EXISTS devices (
    id TEXT PRIMARY KEY,
    farm_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_devices_farm ON devices(farm_id);
`

const schemaTelemetry = `
CREATE TABLE IF NOT EXISTS telemetry (
    id TEXT PRIMARY KEY,
    temperature REAL NOT NULL,
    humidity REAL NOT NULL,
    measurement_date TIMESTAMP NOT NULL,
    device_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_telemetry_device ON telemetry(device_id);
CREATE INDEX IF NOT EXISTS idx_telemetry_date ON telemetry(device_id, measurement_date);
`

// ManagerSchemas returns the schema statements for the manager database.
func ManagerSchemas() []string {
	return []string{
		schemaFarms,
		schemaManagerDevices,
	}
}

// MonitorSchemas returns the schema statements for the monitor database.
func MonitorSchemas() []string {
	return []string{
		schemaReplicaDevices,
		schemaTelemetry,
	}
}
