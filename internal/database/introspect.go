package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmbarbier/blueprint/internal/models"
)

const columnsQuery = `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`

const primaryKeysQuery = `
SELECT tc.table_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
WHERE tc.table_schema = 'public'
  AND tc.constraint_type = 'PRIMARY KEY'
ORDER BY tc.table_name, kcu.ordinal_position`

const foreignKeysQuery = `
SELECT tc.table_name, kcu.column_name, ccu.table_name AS ref_table, ccu.column_name AS ref_column
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON tc.constraint_name = ccu.constraint_name
 AND tc.table_schema = ccu.table_schema
WHERE tc.table_schema = 'public'
  AND tc.constraint_type = 'FOREIGN KEY'`

// LoadModels introspects the public schema and builds the model set exposed
// by the generic record API. Tables listed in exclude are skipped.
func LoadModels(ctx context.Context, pool *pgxpool.Pool, exclude []string) ([]*models.Model, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[strings.ToLower(name)] = true
	}

	byTable := make(map[string]*models.Model)

	rows, err := pool.Query(ctx, columnsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan column row: %w", err)
		}
		if excluded[strings.ToLower(table)] {
			continue
		}
		m, ok := byTable[table]
		if !ok {
			m = &models.Model{Name: table}
			byTable[table] = m
		}
		m.Columns = append(m.Columns, models.Column{
			Name:        column,
			Type:        strings.ToUpper(dataType),
			ForeignKeys: []string{},
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	rows, err = pool.Query(ctx, primaryKeysQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary keys: %w", err)
	}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan primary key row: %w", err)
		}
		m, ok := byTable[table]
		if !ok {
			continue
		}
		m.PrimaryKeys = append(m.PrimaryKeys, column)
		for i := range m.Columns {
			if m.Columns[i].Name == column {
				m.Columns[i].PrimaryKey = true
			}
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read primary keys: %w", err)
	}

	rows, err = pool.Query(ctx, foreignKeysQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	for rows.Next() {
		var table, column, refTable, refColumn string
		if err := rows.Scan(&table, &column, &refTable, &refColumn); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan foreign key row: %w", err)
		}
		m, ok := byTable[table]
		if !ok {
			continue
		}
		m.ForeignKeys = append(m.ForeignKeys, models.ForeignKey{
			Column:    column,
			RefTable:  refTable,
			RefColumn: refColumn,
		})
		for i := range m.Columns {
			if m.Columns[i].Name == column {
				m.Columns[i].ForeignKeys = append(m.Columns[i].ForeignKeys,
					fmt.Sprintf("%s.%s", refTable, refColumn))
			}
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}

	result := make([]*models.Model, 0, len(byTable))
	for _, m := range byTable {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}
