package domain

import (
	"context"
	"time"
)

// Op is a comparison operator in a query filter.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "<>"
	OpGt Op = ">"
	OpLt Op = "<"
)

// Filter is an explicit query specification: field, operator, value.
// Fields name table columns; stores reject fields they do not know.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq builds an equality filter, the common case.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Store is the generic persistence contract consumed by both services.
// Operations are atomic with respect to the underlying store's single-row
// transactions; composing them (check farm, then write device) is the
// service layer's responsibility.
type Store[T any] interface {
	// Add inserts a new entity.
	Add(ctx context.Context, entity T) error

	// Get returns all entities matching the filters, unordered.
	Get(ctx context.Context, filters ...Filter) ([]T, error)

	// GetSingle returns the one entity matching the filters.
	// It fails with ErrNotFound on zero matches and ErrMultipleMatches
	// when the filters select more than one row.
	GetSingle(ctx context.Context, filters ...Filter) (T, error)

	// Remove deletes the entities matching the filters.
	// Removing nothing is a no-op, not an error.
	Remove(ctx context.Context, filters ...Filter) error

	// Update fully replaces the entity with the same identity.
	// It fails with ErrNotFound when no such row exists.
	Update(ctx context.Context, entity T) error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string `json:"driver"`

	// SQLite specific
	SQLitePath string `json:"sqlitePath"`

	// PostgreSQL specific
	PostgresHost     string `json:"postgresHost"`
	PostgresPort     int    `json:"postgresPort"`
	PostgresUser     string `json:"postgresUser"`
	PostgresPassword string `json:"postgresPassword"`
	PostgresDB       string `json:"postgresDb"`
	PostgresSSLMode  string `json:"postgresSslMode"`

	// Connection pool settings
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
}
