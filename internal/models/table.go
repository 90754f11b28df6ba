// Package models defines the core data structures shared across the pipeline:
// the flattened record table, per-row annotations and ranking/term results.
package models

import (
	"sort"

	"github.com/hyperjump/textlens/internal/apperr"
)

// Row is one flattened record. Index is the row's position in the source file
// and is the key that every derived structure keeps.
type Row struct {
	Index  int            `json:"index"`
	Values map[string]any `json:"values"`
}

// Cell is a single value of a column, tagged with its row index.
type Cell struct {
	Index int
	Value any
}

// Table is an ordered set of rows with named columns.
// Missing values are stored as nil.
type Table struct {
	columns []string
	rows    []Row
	byIndex map[int]int
}

// NewTable builds a table. Rows keep their given order; duplicate indices keep the last row.
func NewTable(columns []string, rows []Row) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		rows:    rows,
		byIndex: make(map[int]int, len(rows)),
	}
	for i, r := range rows {
		t.byIndex[r.Index] = i
	}
	return t
}

// Columns returns the column names in first-appearance order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the rows in order. Callers must not mutate the returned values.
func (t *Table) Rows() []Row {
	return t.rows
}

// Row returns the row with the given index.
func (t *Table) Row(index int) (Row, bool) {
	i, ok := t.byIndex[index]
	if !ok {
		return Row{}, false
	}
	return t.rows[i], true
}

// Value returns the cell at (index, column). ok is false when the row does not exist;
// a missing column yields (nil, true).
func (t *Table) Value(index int, column string) (any, bool) {
	r, ok := t.Row(index)
	if !ok {
		return nil, false
	}
	return r.Values[column], true
}

// Column returns the index-aligned values of a column, including nil cells.
func (t *Table) Column(name string) ([]Cell, error) {
	if !t.HasColumn(name) {
		return nil, apperr.NotFound("column %q", name)
	}
	cells := make([]Cell, len(t.rows))
	for i, r := range t.rows {
		cells[i] = Cell{Index: r.Index, Value: r.Values[name]}
	}
	return cells, nil
}

// Select returns a new table restricted to the given columns, in the given order.
// Row indices are preserved.
func (t *Table) Select(columns ...string) (*Table, error) {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return nil, apperr.NotFound("column %q", c)
		}
	}
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		values := make(map[string]any, len(columns))
		for _, c := range columns {
			values[c] = r.Values[c]
		}
		rows[i] = Row{Index: r.Index, Values: values}
	}
	return NewTable(columns, rows), nil
}

// Indices returns all row indices in ascending order.
func (t *Table) Indices() []int {
	out := make([]int, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, r.Index)
	}
	sort.Ints(out)
	return out
}
