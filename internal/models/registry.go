package models

import (
	"sort"
	"strings"
	"sync"
)

// Column describes one column of an exposed model, in the shape returned by
// the schema endpoint.
type Column struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	PrimaryKey  bool     `json:"primary_key"`
	ForeignKeys []string `json:"foreign_keys"`
}

// ForeignKey links a column of the model to the table.column it references.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Model is a database table exposed through the generic record API.
type Model struct {
	Name        string
	Columns     []Column
	PrimaryKeys []string
	ForeignKeys []ForeignKey
}

// HasColumn reports whether name is a column of the model.
func (m *Model) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// IsPrimaryKey reports whether name is one of the model's primary key columns.
func (m *Model) IsPrimaryKey(name string) bool {
	for _, pk := range m.PrimaryKeys {
		if pk == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the model's column names in declaration order.
func (m *Model) ColumnNames() []string {
	names := make([]string, 0, len(m.Columns))
	for _, c := range m.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Registry holds the models currently exposed by the API. Lookups are
// case-insensitive. The whole set can be swapped atomically so a background
// refresh never leaves readers with a partial view.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
}

func NewRegistry(models []*Model) *Registry {
	r := &Registry{}
	r.Replace(models)
	return r
}

// Replace swaps the registered model set.
func (r *Registry) Replace(models []*Model) {
	byName := make(map[string]*Model, len(models))
	for _, m := range models {
		byName[strings.ToLower(m.Name)] = m
	}

	r.mu.Lock()
	r.models = byName
	r.mu.Unlock()
}

// Lookup returns the model matching name, ignoring case.
func (r *Registry) Lookup(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[strings.ToLower(name)]
	return m, ok
}

// Names returns the registered model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for _, m := range r.models {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
