package domain

import "time"

// Config holds the complete configuration for one Farmlink service.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Broker     BrokerConfig     `json:"broker"`
	Cache      CacheConfig      `json:"cache"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
}

// DefaultManagerConfig returns the default configuration for the manager
// service: SQLite storage and the in-process broker, suitable for local
// development without external infrastructure.
func DefaultManagerConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./farmlink-manager.db",
		},
		Broker: BrokerConfig{
			Type:        "memory",
			FarmQueue:   "farm_events",
			DeviceQueue: "device_events",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "farmlink-manager",
		},
	}
}

// DefaultMonitorConfig returns the default configuration for the monitor
// service. The monitor additionally carries a device-existence cache for
// the telemetry ingestion path.
func DefaultMonitorConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8081,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./farmlink-monitor.db",
		},
		Broker: BrokerConfig{
			Type:        "memory",
			FarmQueue:   "farm_events",
			DeviceQueue: "device_events",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "farmlink-monitor",
		},
	}
}
