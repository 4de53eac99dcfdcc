package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmbarbier/blueprint/internal/models"
)

var (
	ErrModelNotFound  = errors.New("model not found")
	ErrRecordNotFound = errors.New("record not found")
	ErrValidation     = errors.New("validation failed")
	ErrDuplicate      = errors.New("record already exists")
)

// RecordStore is the database surface the record service depends on.
type RecordStore interface {
	Model(name string) (*models.Model, bool)
	Insert(ctx context.Context, m *models.Model, data map[string]interface{}) (map[string]interface{}, error)
	SelectOne(ctx context.Context, m *models.Model, filter map[string]interface{}) (map[string]interface{}, error)
	SelectAll(ctx context.Context, m *models.Model, filter map[string]interface{}) ([]map[string]interface{}, error)
	Update(ctx context.Context, m *models.Model, keys, changes map[string]interface{}) (map[string]interface{}, error)
	Delete(ctx context.Context, m *models.Model, keys map[string]interface{}) (int64, error)
	Exists(ctx context.Context, table, column string, value interface{}) (bool, error)
}

// RecordServiceInterface defines the generic record operations exposed over
// the API.
type RecordServiceInterface interface {
	Create(ctx context.Context, model string, data map[string]interface{}) (map[string]interface{}, error)
	Get(ctx context.Context, model string, filter map[string]interface{}) (map[string]interface{}, error)
	List(ctx context.Context, model string, filter map[string]interface{}) ([]map[string]interface{}, error)
	Update(ctx context.Context, model string, data map[string]interface{}) (map[string]interface{}, error)
	Delete(ctx context.Context, model string, keys map[string]interface{}) error
	Schema(model string) ([]models.Column, error)
}

// RecordService implements generic CRUD over the registered models with
// primary key and foreign key validation.
type RecordService struct {
	store  RecordStore
	logger *slog.Logger
}

func NewRecordService(store RecordStore, logger *slog.Logger) *RecordService {
	return &RecordService{
		store:  store,
		logger: logger,
	}
}

// Create inserts a new record. The data must carry every primary key column
// of the model, all foreign key references must resolve, and a record with
// the same primary key must not already exist.
func (s *RecordService) Create(ctx context.Context, model string, data map[string]interface{}) (map[string]interface{}, error) {
	m, ok := s.store.Model(model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}

	if err := s.validateColumns(m, data); err != nil {
		return nil, err
	}

	keys, err := s.primaryKeyValues(m, data)
	if err != nil {
		s.logger.Warn("no primary key provided", "model", m.Name)
		return nil, err
	}

	if err := s.validateForeignKeys(ctx, m, data); err != nil {
		return nil, err
	}

	existing, err := s.store.SelectOne(ctx, m, keys)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s with primary key %v", ErrDuplicate, m.Name, keys)
	}

	record, err := s.store.Insert(ctx, m, data)
	if err != nil {
		return nil, err
	}

	s.logger.Info("record created", "model", m.Name, "keys", keys)
	return record, nil
}

// Get returns the first record matching the column filters.
func (s *RecordService) Get(ctx context.Context, model string, filter map[string]interface{}) (map[string]interface{}, error) {
	m, ok := s.store.Model(model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}

	if err := s.validateColumns(m, filter); err != nil {
		return nil, err
	}

	record, err := s.store.SelectOne(ctx, m, filter)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: no %s record matching %v", ErrRecordNotFound, m.Name, filter)
	}
	return record, nil
}

// List returns every record matching the column filters.
func (s *RecordService) List(ctx context.Context, model string, filter map[string]interface{}) ([]map[string]interface{}, error) {
	m, ok := s.store.Model(model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}

	if err := s.validateColumns(m, filter); err != nil {
		return nil, err
	}

	records, err := s.store.SelectAll(ctx, m, filter)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []map[string]interface{}{}
	}
	return records, nil
}

// Update locates a record by the primary key values carried in data and
// applies the remaining fields to it.
func (s *RecordService) Update(ctx context.Context, model string, data map[string]interface{}) (map[string]interface{}, error) {
	m, ok := s.store.Model(model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}

	if err := s.validateColumns(m, data); err != nil {
		return nil, err
	}

	keys, err := s.primaryKeyValues(m, data)
	if err != nil {
		s.logger.Warn("no primary key provided", "model", m.Name)
		return nil, err
	}

	changes := make(map[string]interface{})
	for k, v := range data {
		if !m.IsPrimaryKey(k) {
			changes[k] = v
		}
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	if err := s.validateForeignKeys(ctx, m, changes); err != nil {
		return nil, err
	}

	record, err := s.store.Update(ctx, m, keys, changes)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: no %s record with primary key %v", ErrRecordNotFound, m.Name, keys)
	}

	s.logger.Info("record updated", "model", m.Name, "keys", keys)
	return record, nil
}

// Delete removes the record identified by its primary key values.
func (s *RecordService) Delete(ctx context.Context, model string, keys map[string]interface{}) error {
	m, ok := s.store.Model(model)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}

	if err := s.validateColumns(m, keys); err != nil {
		return err
	}

	pks, err := s.primaryKeyValues(m, keys)
	if err != nil {
		s.logger.Warn("no primary key provided", "model", m.Name)
		return err
	}

	deleted, err := s.store.Delete(ctx, m, pks)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return fmt.Errorf("%w: no %s record with primary key %v", ErrRecordNotFound, m.Name, pks)
	}

	s.logger.Info("record deleted", "model", m.Name, "keys", pks)
	return nil
}

// Schema returns the column schema of a model.
func (s *RecordService) Schema(model string) ([]models.Column, error) {
	m, ok := s.store.Model(model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	return m.Columns, nil
}

func (s *RecordService) validateColumns(m *models.Model, data map[string]interface{}) error {
	for k := range data {
		if !m.HasColumn(k) {
			return fmt.Errorf("%w: unknown column %s for model %s", ErrValidation, k, m.Name)
		}
	}
	return nil
}

// primaryKeyValues extracts the full primary key from data; every key
// column must be present.
func (s *RecordService) primaryKeyValues(m *models.Model, data map[string]interface{}) (map[string]interface{}, error) {
	if len(m.PrimaryKeys) == 0 {
		return nil, fmt.Errorf("%w: model %s has no primary key", ErrValidation, m.Name)
	}

	keys := make(map[string]interface{}, len(m.PrimaryKeys))
	for _, pk := range m.PrimaryKeys {
		v, ok := data[pk]
		if !ok {
			return nil, fmt.Errorf("%w: missing primary key %s for model %s", ErrValidation, pk, m.Name)
		}
		keys[pk] = v
	}
	return keys, nil
}

// validateForeignKeys checks that every referenced row exists for the
// foreign key columns present in data.
func (s *RecordService) validateForeignKeys(ctx context.Context, m *models.Model, data map[string]interface{}) error {
	for _, fk := range m.ForeignKeys {
		v, ok := data[fk.Column]
		if !ok || v == nil {
			continue
		}

		exists, err := s.store.Exists(ctx, fk.RefTable, fk.RefColumn, v)
		if err != nil {
			return err
		}
		if !exists {
			s.logger.Warn("foreign key validation failed",
				"model", m.Name, "column", fk.Column, "value", v)
			return fmt.Errorf("%w: could not find %s value %v in %s",
				ErrValidation, fk.Column, v, fk.RefTable)
		}
	}
	return nil
}
