package storage

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/textlens/internal/models"
)

// Sheet names used by Workbook.
const (
	SheetRecords   = "records"
	SheetNeighbors = "neighbors"
	SheetTerms     = "top_terms"
)

// Workbook collects pipeline output into an .xlsx file.
type Workbook struct {
	f      *excelize.File
	sheets int
}

// NewWorkbook returns an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{f: excelize.NewFile()}
}

// sheet returns a new sheet named name. The first call renames the default sheet.
func (w *Workbook) sheet(name string) (string, error) {
	if w.sheets == 0 {
		if err := w.f.SetSheetName(w.f.GetSheetName(0), name); err != nil {
			return "", err
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return "", err
	}
	w.sheets++
	return name, nil
}

func (w *Workbook) writeRow(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

// AddTable writes the selected columns of table, or every column when columns is
// empty, under a header row. The first column holds the row index.
func (w *Workbook) AddTable(table *models.Table, columns ...string) error {
	if len(columns) == 0 {
		columns = table.Columns()
	} else {
		selected, err := table.Select(columns...)
		if err != nil {
			return err
		}
		table = selected
	}
	sheet, err := w.sheet(SheetRecords)
	if err != nil {
		return err
	}
	header := make([]any, 0, len(columns)+1)
	header = append(header, "index")
	for _, c := range columns {
		header = append(header, c)
	}
	if err := w.writeRow(sheet, 1, header); err != nil {
		return err
	}
	for i, row := range table.Rows() {
		values := make([]any, 0, len(columns)+1)
		values = append(values, row.Index)
		for _, c := range columns {
			values = append(values, cellValue(row.Values[c]))
		}
		if err := w.writeRow(sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

// AddNeighbors writes a similarity ranking for refIndex. fields lists the display
// fields to include as columns.
func (w *Workbook) AddNeighbors(refIndex int, neighbors []models.Neighbor, fields ...string) error {
	sheet, err := w.sheet(SheetNeighbors)
	if err != nil {
		return err
	}
	header := []any{"reference", "rank", "index", "score"}
	for _, f := range fields {
		header = append(header, f)
	}
	if err := w.writeRow(sheet, 1, header); err != nil {
		return err
	}
	for i, n := range neighbors {
		values := []any{refIndex, n.Rank, n.Index, n.Score}
		for _, f := range fields {
			values = append(values, cellValue(n.Fields[f]))
		}
		if err := w.writeRow(sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

// AddTopTerms writes the top terms of each row, rows in ascending index order.
func (w *Workbook) AddTopTerms(terms map[int][]models.TermWeight) error {
	sheet, err := w.sheet(SheetTerms)
	if err != nil {
		return err
	}
	if err := w.writeRow(sheet, 1, []any{"index", "rank", "term", "weight"}); err != nil {
		return err
	}
	indices := make([]int, 0, len(terms))
	for idx := range terms {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	line := 2
	for _, idx := range indices {
		for rank, tw := range terms[idx] {
			if err := w.writeRow(sheet, line, []any{idx, rank + 1, tw.Term, tw.Weight}); err != nil {
				return err
			}
			line++
		}
	}
	return nil
}

// Save writes the workbook to path and releases it.
func (w *Workbook) Save(path string) error {
	if w.sheets == 0 {
		_ = w.f.Close()
		return fmt.Errorf("workbook has no sheets")
	}
	if err := w.f.SaveAs(path); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return w.f.Close()
}

// WriteXLSX writes the selected columns of table to a single-sheet workbook at path.
func WriteXLSX(path string, table *models.Table, columns ...string) error {
	w := NewWorkbook()
	if err := w.AddTable(table, columns...); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.Save(path)
}

// cellValue converts a flattened JSON value to something excelize can store.
// Arrays stay JSON text; numbers become floats when they fit.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case string, bool, int, int64, float64:
		return x
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}
