// Package schema holds the static description of the domain tables.
// The registry grounds statement synthesis and lets the validator check
// that generated statements reference real tables and columns.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Column describes one column of a domain table.
type Column struct {
	Name string
	Type string
}

// Table describes one domain table.
type Table struct {
	Name    string
	Columns []Column
}

// HasColumn reports whether the table declares the named column.
func (t Table) HasColumn(name string) bool {
	name = strings.ToLower(name)
	for _, c := range t.Columns {
		if strings.ToLower(c.Name) == name {
			return true
		}
	}
	return false
}

// Registry is an immutable set of tables keyed by lowercase name.
type Registry struct {
	tables map[string]Table
	order  []string
}

// New builds a registry from the given tables.
func New(tables ...Table) *Registry {
	r := &Registry{tables: make(map[string]Table, len(tables))}
	for _, t := range tables {
		key := strings.ToLower(t.Name)
		if _, exists := r.tables[key]; !exists {
			r.order = append(r.order, key)
		}
		r.tables[key] = t
	}
	return r
}

// Table returns the named table, if declared.
func (r *Registry) Table(name string) (Table, bool) {
	t, ok := r.tables[strings.ToLower(name)]
	return t, ok
}

// Has reports whether the named table is declared.
func (r *Registry) Has(name string) bool {
	_, ok := r.tables[strings.ToLower(name)]
	return ok
}

// TableNames returns the declared table names in registration order.
func (r *Registry) TableNames() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Describe renders the registry as prompt-ready schema text:
// one line per table with typed columns.
func (r *Registry) Describe() string {
	var b strings.Builder
	for _, name := range r.order {
		t := r.tables[name]
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = fmt.Sprintf("%s %s", c.Name, c.Type)
		}
		fmt.Fprintf(&b, "- %s (%s)\n", t.Name, strings.Join(cols, ", "))
	}
	return b.String()
}

// Columns returns the sorted column names of the named table.
func (r *Registry) Columns(table string) []string {
	t, ok := r.Table(table)
	if !ok {
		return nil
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	sort.Strings(names)
	return names
}

// Default returns the medical records registry.
func Default() *Registry {
	return New(
		Table{Name: "patients", Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "name", Type: "TEXT"},
			{Name: "age", Type: "INTEGER"},
			{Name: "gender", Type: "TEXT"},
			{Name: "address", Type: "TEXT"},
			{Name: "phone", Type: "TEXT"},
			{Name: "notes", Type: "TEXT"},
		}},
		Table{Name: "visits", Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "patient_id", Type: "INTEGER"},
			{Name: "date", Type: "TEXT"},
			{Name: "diagnosis", Type: "TEXT"},
			{Name: "doctor", Type: "TEXT"},
		}},
		Table{Name: "prescriptions", Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "visit_id", Type: "INTEGER"},
			{Name: "medication", Type: "TEXT"},
			{Name: "dosage", Type: "TEXT"},
		}},
		Table{Name: "billing", Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "patient_id", Type: "INTEGER"},
			{Name: "amount", Type: "REAL"},
			{Name: "status", Type: "TEXT"},
			{Name: "date", Type: "TEXT"},
		}},
	)
}
