package database

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jmbarbier/blueprint/internal/models"
)

// Column and table names are always quoted through pgx.Identifier, and only
// names known to the introspected model ever reach these builders.
func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// buildInsert produces an INSERT for the columns of data, in the model's
// column order so generated SQL is deterministic.
func buildInsert(m *models.Model, data map[string]interface{}) (string, []interface{}) {
	var cols, params []string
	var args []interface{}

	for _, c := range m.Columns {
		v, ok := data[c.Name]
		if !ok {
			continue
		}
		args = append(args, v)
		cols = append(cols, ident(c.Name))
		params = append(params, fmt.Sprintf("$%d", len(args)))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		ident(m.Name), strings.Join(cols, ", "), strings.Join(params, ", "))
	return sql, args
}

// buildWhere appends equality conditions for the filter columns, again in
// model column order. An empty filter yields an empty clause.
func buildWhere(m *models.Model, filter map[string]interface{}, args *[]interface{}) string {
	var conds []string
	for _, c := range m.Columns {
		v, ok := filter[c.Name]
		if !ok {
			continue
		}
		*args = append(*args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", ident(c.Name), len(*args)))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func buildSelect(m *models.Model, filter map[string]interface{}, limit int) (string, []interface{}) {
	var args []interface{}

	sql := "SELECT * FROM " + ident(m.Name)
	sql += buildWhere(m, filter, &args)

	if len(m.PrimaryKeys) > 0 {
		ordered := make([]string, 0, len(m.PrimaryKeys))
		for _, pk := range m.PrimaryKeys {
			ordered = append(ordered, ident(pk))
		}
		sql += " ORDER BY " + strings.Join(ordered, ", ")
	}
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}
	return sql, args
}

func buildUpdate(m *models.Model, keys, changes map[string]interface{}) (string, []interface{}) {
	var sets []string
	var args []interface{}

	for _, c := range m.Columns {
		v, ok := changes[c.Name]
		if !ok {
			continue
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", ident(c.Name), len(args)))
	}

	sql := fmt.Sprintf("UPDATE %s SET %s", ident(m.Name), strings.Join(sets, ", "))
	sql += buildWhere(m, keys, &args)
	sql += " RETURNING *"
	return sql, args
}

func buildDelete(m *models.Model, keys map[string]interface{}) (string, []interface{}) {
	var args []interface{}

	sql := "DELETE FROM " + ident(m.Name)
	sql += buildWhere(m, keys, &args)
	return sql, args
}

func buildExists(table, column string) string {
	return fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)",
		ident(table), ident(column))
}
