package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/jmbarbier/blueprint/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testModel() *models.Model {
	return &models.Model{
		Name: "items",
		Columns: []models.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "name", Type: "TEXT"},
			{Name: "group_id", Type: "INTEGER"},
		},
		PrimaryKeys: []string{"id"},
		ForeignKeys: []models.ForeignKey{
			{Column: "group_id", RefTable: "groups", RefColumn: "id"},
		},
	}
}

// fakeStore is a configurable in-memory RecordStore.
type fakeStore struct {
	model     *models.Model
	selectOne map[string]interface{}
	selectAll []map[string]interface{}
	updated   map[string]interface{}
	deleted   int64
	exists    bool

	inserted map[string]interface{}
}

func (f *fakeStore) Model(name string) (*models.Model, bool) {
	if f.model != nil && name == f.model.Name {
		return f.model, true
	}
	return nil, false
}

func (f *fakeStore) Insert(_ context.Context, _ *models.Model, data map[string]interface{}) (map[string]interface{}, error) {
	f.inserted = data
	return data, nil
}

func (f *fakeStore) SelectOne(_ context.Context, _ *models.Model, _ map[string]interface{}) (map[string]interface{}, error) {
	return f.selectOne, nil
}

func (f *fakeStore) SelectAll(_ context.Context, _ *models.Model, _ map[string]interface{}) ([]map[string]interface{}, error) {
	return f.selectAll, nil
}

func (f *fakeStore) Update(_ context.Context, _ *models.Model, _, _ map[string]interface{}) (map[string]interface{}, error) {
	return f.updated, nil
}

func (f *fakeStore) Delete(_ context.Context, _ *models.Model, _ map[string]interface{}) (int64, error) {
	return f.deleted, nil
}

func (f *fakeStore) Exists(_ context.Context, _, _ string, _ interface{}) (bool, error) {
	return f.exists, nil
}

func TestRecordService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		store   *fakeStore
		model   string
		data    map[string]interface{}
		wantErr error
	}{
		{
			name:  "creates record",
			store: &fakeStore{model: testModel(), exists: true},
			model: "items",
			data:  map[string]interface{}{"id": 1, "name": "first", "group_id": 2},
		},
		{
			name:    "unknown model",
			store:   &fakeStore{model: testModel()},
			model:   "books",
			data:    map[string]interface{}{"id": 1},
			wantErr: ErrModelNotFound,
		},
		{
			name:    "missing primary key",
			store:   &fakeStore{model: testModel()},
			model:   "items",
			data:    map[string]interface{}{"name": "first"},
			wantErr: ErrValidation,
		},
		{
			name:    "unknown column",
			store:   &fakeStore{model: testModel()},
			model:   "items",
			data:    map[string]interface{}{"id": 1, "color": "red"},
			wantErr: ErrValidation,
		},
		{
			name:    "broken foreign key reference",
			store:   &fakeStore{model: testModel(), exists: false},
			model:   "items",
			data:    map[string]interface{}{"id": 1, "group_id": 99},
			wantErr: ErrValidation,
		},
		{
			name: "duplicate primary key",
			store: &fakeStore{
				model:     testModel(),
				selectOne: map[string]interface{}{"id": 1},
			},
			model:   "items",
			data:    map[string]interface{}{"id": 1, "name": "again"},
			wantErr: ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewRecordService(tt.store, testLogger())

			record, err := svc.Create(ctx, tt.model, tt.data)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.data, record)
			assert.Equal(t, tt.data, tt.store.inserted)
		})
	}
}

func TestRecordService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		store := &fakeStore{
			model:     testModel(),
			selectOne: map[string]interface{}{"id": 1, "name": "first"},
		}
		svc := NewRecordService(store, testLogger())

		record, err := svc.Get(ctx, "items", map[string]interface{}{"id": 1})
		require.NoError(t, err)
		assert.Equal(t, "first", record["name"])
	})

	t.Run("not found", func(t *testing.T) {
		store := &fakeStore{model: testModel()}
		svc := NewRecordService(store, testLogger())

		_, err := svc.Get(ctx, "items", map[string]interface{}{"id": 42})
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("unknown filter column", func(t *testing.T) {
		store := &fakeStore{model: testModel()}
		svc := NewRecordService(store, testLogger())

		_, err := svc.Get(ctx, "items", map[string]interface{}{"color": "red"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestRecordService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("returns records", func(t *testing.T) {
		store := &fakeStore{
			model: testModel(),
			selectAll: []map[string]interface{}{
				{"id": 1},
				{"id": 2},
			},
		}
		svc := NewRecordService(store, testLogger())

		records, err := svc.List(ctx, "items", nil)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("empty table yields empty slice", func(t *testing.T) {
		store := &fakeStore{model: testModel()}
		svc := NewRecordService(store, testLogger())

		records, err := svc.List(ctx, "items", nil)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})
}

func TestRecordService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates record", func(t *testing.T) {
		store := &fakeStore{
			model:   testModel(),
			exists:  true,
			updated: map[string]interface{}{"id": 1, "name": "renamed"},
		}
		svc := NewRecordService(store, testLogger())

		record, err := svc.Update(ctx, "items", map[string]interface{}{"id": 1, "name": "renamed"})
		require.NoError(t, err)
		assert.Equal(t, "renamed", record["name"])
	})

	t.Run("record not found", func(t *testing.T) {
		store := &fakeStore{model: testModel(), exists: true}
		svc := NewRecordService(store, testLogger())

		_, err := svc.Update(ctx, "items", map[string]interface{}{"id": 42, "name": "x"})
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("nothing to update", func(t *testing.T) {
		store := &fakeStore{model: testModel()}
		svc := NewRecordService(store, testLogger())

		_, err := svc.Update(ctx, "items", map[string]interface{}{"id": 1})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestRecordService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes record", func(t *testing.T) {
		store := &fakeStore{model: testModel(), deleted: 1}
		svc := NewRecordService(store, testLogger())

		err := svc.Delete(ctx, "items", map[string]interface{}{"id": 1})
		assert.NoError(t, err)
	})

	t.Run("record not found", func(t *testing.T) {
		store := &fakeStore{model: testModel(), deleted: 0}
		svc := NewRecordService(store, testLogger())

		err := svc.Delete(ctx, "items", map[string]interface{}{"id": 42})
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("missing primary key", func(t *testing.T) {
		store := &fakeStore{model: testModel()}
		svc := NewRecordService(store, testLogger())

		err := svc.Delete(ctx, "items", map[string]interface{}{"name": "first"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestRecordService_Schema(t *testing.T) {
	store := &fakeStore{model: testModel()}
	svc := NewRecordService(store, testLogger())

	schema, err := svc.Schema("items")
	require.NoError(t, err)
	require.Len(t, schema, 3)
	assert.Equal(t, "id", schema[0].Name)
	assert.True(t, schema[0].PrimaryKey)

	_, err = svc.Schema("books")
	assert.ErrorIs(t, err, ErrModelNotFound)
}
