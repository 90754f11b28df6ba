package tfidf

import (
	"github.com/hyperjump/textlens/internal/apperr"
)

// SparseRow holds the non-zero weights of one document. Cols is ascending and
// indexes the vocabulary; Vals[i] is the weight of Cols[i].
type SparseRow struct {
	Cols []int
	Vals []float64
}

// Matrix is a document-by-term weight matrix keyed by source row index.
// It is read-only once built.
type Matrix struct {
	vocabulary []string
	columns    map[string]int
	df         []int
	indices    []int
	rowPos     map[int]int
	rows       []SparseRow
}

func newMatrix(vocabulary []string, capacity int) *Matrix {
	m := &Matrix{
		vocabulary: vocabulary,
		columns:    make(map[string]int, len(vocabulary)),
		df:         make([]int, len(vocabulary)),
		indices:    make([]int, 0, capacity),
		rowPos:     make(map[int]int, capacity),
		rows:       make([]SparseRow, 0, capacity),
	}
	for i, term := range vocabulary {
		m.columns[term] = i
	}
	return m
}

func (m *Matrix) addRow(index int, row SparseRow) {
	m.rowPos[index] = len(m.rows)
	m.indices = append(m.indices, index)
	m.rows = append(m.rows, row)
}

// Vocabulary returns the terms in column order.
func (m *Matrix) Vocabulary() []string {
	return append([]string(nil), m.vocabulary...)
}

// Indices returns the row indices in the order the documents were given.
func (m *Matrix) Indices() []int {
	return append([]int(nil), m.indices...)
}

// Rows returns the number of documents in the matrix.
func (m *Matrix) Rows() int {
	return len(m.rows)
}

// Shape returns (rows, columns).
func (m *Matrix) Shape() (int, int) {
	return len(m.rows), len(m.vocabulary)
}

// Row returns the sparse weights of a row index.
func (m *Matrix) Row(index int) (SparseRow, error) {
	pos, ok := m.rowPos[index]
	if !ok {
		return SparseRow{}, apperr.NotFound("row %d is not in the term-weight matrix", index)
	}
	return m.rows[pos], nil
}

// At returns the weight of term in row index; 0 when the term is absent from the
// row or the vocabulary.
func (m *Matrix) At(index int, term string) (float64, error) {
	row, err := m.Row(index)
	if err != nil {
		return 0, err
	}
	col, ok := m.columns[term]
	if !ok {
		return 0, nil
	}
	for k, c := range row.Cols {
		if c == col {
			return row.Vals[k], nil
		}
	}
	return 0, nil
}

// DocumentFrequency returns the number of documents containing term at fit time.
func (m *Matrix) DocumentFrequency(term string) (int, bool) {
	col, ok := m.columns[term]
	if !ok {
		return 0, false
	}
	return m.df[col], true
}
