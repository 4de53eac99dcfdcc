package database

import (
	"testing"

	"github.com/jmbarbier/blueprint/internal/models"
	"github.com/stretchr/testify/assert"
)

func testModel() *models.Model {
	return &models.Model{
		Name: "items",
		Columns: []models.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "name", Type: "TEXT"},
			{Name: "group_id", Type: "INTEGER"},
		},
		PrimaryKeys: []string{"id"},
	}
}

func TestBuildInsert(t *testing.T) {
	m := testModel()

	sql, args := buildInsert(m, map[string]interface{}{
		"id":   1,
		"name": "first",
	})

	assert.Equal(t, `INSERT INTO "items" ("id", "name") VALUES ($1, $2) RETURNING *`, sql)
	assert.Equal(t, []interface{}{1, "first"}, args)
}

func TestBuildInsert_ColumnOrderIsDeterministic(t *testing.T) {
	m := testModel()
	data := map[string]interface{}{
		"group_id": 7,
		"id":       1,
		"name":     "first",
	}

	// Arguments follow the model's column order, not map iteration order
	for i := 0; i < 10; i++ {
		sql, args := buildInsert(m, data)
		assert.Equal(t, `INSERT INTO "items" ("id", "name", "group_id") VALUES ($1, $2, $3) RETURNING *`, sql)
		assert.Equal(t, []interface{}{1, "first", 7}, args)
	}
}

func TestBuildSelect(t *testing.T) {
	m := testModel()

	tests := []struct {
		name     string
		filter   map[string]interface{}
		limit    int
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "no filter",
			filter:   map[string]interface{}{},
			limit:    0,
			wantSQL:  `SELECT * FROM "items" ORDER BY "id"`,
			wantArgs: nil,
		},
		{
			name:     "single filter with limit",
			filter:   map[string]interface{}{"id": 3},
			limit:    1,
			wantSQL:  `SELECT * FROM "items" WHERE "id" = $1 ORDER BY "id" LIMIT 1`,
			wantArgs: []interface{}{3},
		},
		{
			name:     "multiple filters",
			filter:   map[string]interface{}{"name": "x", "group_id": 2},
			limit:    0,
			wantSQL:  `SELECT * FROM "items" WHERE "name" = $1 AND "group_id" = $2 ORDER BY "id"`,
			wantArgs: []interface{}{"x", 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildSelect(m, tt.filter, tt.limit)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildUpdate(t *testing.T) {
	m := testModel()

	sql, args := buildUpdate(m,
		map[string]interface{}{"id": 5},
		map[string]interface{}{"name": "renamed", "group_id": 9},
	)

	assert.Equal(t, `UPDATE "items" SET "name" = $1, "group_id" = $2 WHERE "id" = $3 RETURNING *`, sql)
	assert.Equal(t, []interface{}{"renamed", 9, 5}, args)
}

func TestBuildDelete(t *testing.T) {
	m := testModel()

	sql, args := buildDelete(m, map[string]interface{}{"id": 5})

	assert.Equal(t, `DELETE FROM "items" WHERE "id" = $1`, sql)
	assert.Equal(t, []interface{}{5}, args)
}

func TestBuildExists(t *testing.T) {
	sql := buildExists("groups", "id")
	assert.Equal(t, `SELECT EXISTS (SELECT 1 FROM "groups" WHERE "id" = $1)`, sql)
}

func TestIdentQuotesEmbeddedQuotes(t *testing.T) {
	assert.Equal(t, `"bad""name"`, ident(`bad"name`))
}
