package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmbarbier/blueprint/internal/models"
)

// Store executes generic record operations against Postgres for the models
// in the registry.
type Store struct {
	pool     *pgxpool.Pool
	registry *models.Registry
}

func NewStore(pool *pgxpool.Pool, registry *models.Registry) *Store {
	return &Store{
		pool:     pool,
		registry: registry,
	}
}

// Model resolves a model by name, ignoring case.
func (s *Store) Model(name string) (*models.Model, bool) {
	return s.registry.Lookup(name)
}

// Insert creates a record and returns it as scanned from RETURNING *.
func (s *Store) Insert(ctx context.Context, m *models.Model, data map[string]interface{}) (map[string]interface{}, error) {
	sql, args := buildInsert(m, data)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", m.Name, err)
	}
	record, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", m.Name, err)
	}
	return record, nil
}

// SelectOne returns the first record matching filter, or nil when none does.
func (s *Store) SelectOne(ctx context.Context, m *models.Model, filter map[string]interface{}) (map[string]interface{}, error) {
	sql, args := buildSelect(m, filter, 1)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", m.Name, err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s record: %w", m.Name, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// SelectAll returns every record matching filter, primary-key ordered.
func (s *Store) SelectAll(ctx context.Context, m *models.Model, filter map[string]interface{}) ([]map[string]interface{}, error) {
	sql, args := buildSelect(m, filter, 0)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", m.Name, err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s records: %w", m.Name, err)
	}
	return records, nil
}

// Update applies changes to the record identified by keys and returns the
// updated record, or nil when no record matched.
func (s *Store) Update(ctx context.Context, m *models.Model, keys, changes map[string]interface{}) (map[string]interface{}, error) {
	sql, args := buildUpdate(m, keys, changes)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", m.Name, err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to scan updated %s record: %w", m.Name, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Delete removes records matching keys and reports how many were deleted.
func (s *Store) Delete(ctx context.Context, m *models.Model, keys map[string]interface{}) (int64, error) {
	sql, args := buildDelete(m, keys)

	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", m.Name, err)
	}
	return tag.RowsAffected(), nil
}

// Exists reports whether any row of table has column = value. Used for
// foreign key validation before inserts and updates.
func (s *Store) Exists(ctx context.Context, table, column string, value interface{}) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, buildExists(table, column), value).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s.%s reference: %w", table, column, err)
	}
	return exists, nil
}
