package models

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hyperjump/textlens/internal/apperr"
)

func sampleTable() *Table {
	return NewTable([]string{"name", "description"}, []Row{
		{Index: 0, Values: map[string]any{"name": "A", "description": "hello"}},
		{Index: 1, Values: map[string]any{"name": "B", "description": nil}},
		{Index: 2, Values: map[string]any{"name": "C"}},
	})
}

func TestTable_RowAndValue(t *testing.T) {
	tbl := sampleTable()
	if tbl.Len() != 3 {
		t.Fatalf("Len = %d", tbl.Len())
	}
	r, ok := tbl.Row(1)
	if !ok || r.Values["name"] != "B" {
		t.Errorf("Row(1) = %+v, %v", r, ok)
	}
	if _, ok := tbl.Row(9); ok {
		t.Error("Row(9) should not exist")
	}
	v, ok := tbl.Value(2, "description")
	if !ok || v != nil {
		t.Errorf("missing cell should be nil, got %v (%v)", v, ok)
	}
}

func TestTable_Column(t *testing.T) {
	tbl := sampleTable()
	cells, err := tbl.Column("description")
	if err != nil {
		t.Fatal(err)
	}
	want := []Cell{{0, "hello"}, {1, nil}, {2, nil}}
	if !reflect.DeepEqual(cells, want) {
		t.Errorf("Column = %v, want %v", cells, want)
	}
	if _, err := tbl.Column("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown column error = %v", err)
	}
}

func TestTable_Select(t *testing.T) {
	tbl := sampleTable()
	sel, err := tbl.Select("description")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sel.Columns(), []string{"description"}) {
		t.Errorf("Columns = %v", sel.Columns())
	}
	r, _ := sel.Row(0)
	if _, ok := r.Values["name"]; ok {
		t.Error("selected table should not carry name")
	}
	if _, ok := tbl.Row(0); !ok {
		t.Error("source table must be untouched")
	}
	if _, err := tbl.Select("nope"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestAnnotation_Similarity(t *testing.T) {
	a := &Annotation{Vector: []float32{1, 0}}
	b := &Annotation{Vector: []float32{1, 0}}
	c := &Annotation{Vector: []float32{0, 1}}
	empty := &Annotation{}
	if got := a.Similarity(b); got < 0.999 {
		t.Errorf("identical vectors: %f", got)
	}
	if got := a.Similarity(c); got != 0 {
		t.Errorf("orthogonal vectors: %f", got)
	}
	if got := a.Similarity(empty); got != 0 {
		t.Errorf("empty vector should score 0, got %f", got)
	}
}
