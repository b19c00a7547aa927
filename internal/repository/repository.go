// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/agrolink/farmlink/internal/domain"
)

// DB wraps an open database handle shared by the typed stores of one
// service. Works with both SQLite and PostgreSQL drivers.
type DB struct {
	db     *sql.DB
	driver string
}

// Open creates a database handle based on configuration and applies the
// given schema statements. Schemas are idempotent, so reopening an
// existing database is safe.
func Open(cfg domain.RepositoryConfig, schemas []string) (*DB, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	d := &DB{db: db, driver: cfg.Driver}

	if err := d.migrate(schemas); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return d, nil
}

func (d *DB) migrate(schemas []string) error {
	for _, schema := range schemas {
		if _, err := d.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (d *DB) rebind(query string) string {
	if d.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// table implements domain.Store for one entity type over database/sql.
// The first column is the identity; values and scan translate between
// the entity and its column order.
type table[T any] struct {
	db      *DB
	name    string
	columns []string
	values  func(T) []any
	scan    func(rowScanner) (T, error)
}

// Add inserts a new entity.
func (t *table[T]) Add(ctx context.Context, entity T) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(t.columns, ", "), placeholders(len(t.columns)),
	)
	_, err := t.db.db.ExecContext(ctx, t.db.rebind(query), t.values(entity)...)
	return err
}

// Get returns all entities matching the filters, unordered.
func (t *table[T]) Get(ctx context.Context, filters ...domain.Filter) ([]T, error) {
	where, args, err := t.where(filters)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(t.columns, ", "), t.name, where)

	rows, err := t.db.db.QueryContext(ctx, t.db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []T
	for rows.Next() {
		entity, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	return entities, rows.Err()
}

// GetSingle returns the one entity matching the filters. More than one
// match is an error condition, not silently resolved.
func (t *table[T]) GetSingle(ctx context.Context, filters ...domain.Filter) (T, error) {
	var zero T

	entities, err := t.Get(ctx, filters...)
	if err != nil {
		return zero, err
	}

	switch len(entities) {
	case 0:
		return zero, domain.ErrNotFound
	case 1:
		return entities[0], nil
	}
	return zero, fmt.Errorf("%w: %d rows in %s", domain.ErrMultipleMatches, len(entities), t.name)
}

// Remove deletes the matching entities. Removing nothing is a no-op.
func (t *table[T]) Remove(ctx context.Context, filters ...domain.Filter) error {
	where, args, err := t.where(filters)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s%s", t.name, where)
	_, err = t.db.db.ExecContext(ctx, t.db.rebind(query), args...)
	return err
}

// Update fully replaces the row sharing the entity's identity.
func (t *table[T]) Update(ctx context.Context, entity T) error {
	vals := t.values(entity)

	sets := make([]string, 0, len(t.columns)-1)
	args := make([]any, 0, len(t.columns))
	for i, col := range t.columns[1:] {
		sets = append(sets, col+" = ?")
		args = append(args, vals[i+1])
	}
	args = append(args, vals[0])

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", t.name, strings.Join(sets, ", "), t.columns[0])

	result, err := t.db.db.ExecContext(ctx, t.db.rebind(query), args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// where translates filters into a WHERE clause. Filter fields must name
// known columns; anything else is rejected before it reaches the query.
func (t *table[T]) where(filters []domain.Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))

	for _, f := range filters {
		if !t.knownColumn(f.Field) {
			return "", nil, fmt.Errorf("%w: unknown filter field %q", domain.ErrInvalidInput, f.Field)
		}
		switch f.Op {
		case domain.OpEq, domain.OpNe, domain.OpGt, domain.OpLt:
		default:
			return "", nil, fmt.Errorf("%w: unknown filter operator %q", domain.ErrInvalidInput, f.Op)
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", f.Field, f.Op))
		args = append(args, f.Value)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (t *table[T]) knownColumn(field string) bool {
	for _, col := range t.columns {
		if col == field {
			return true
		}
	}
	return false
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
