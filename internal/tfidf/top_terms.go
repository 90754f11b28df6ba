package tfidf

import (
	"sort"

	"github.com/hyperjump/textlens/internal/models"
)

// DefaultMaxTokens is the number of terms TopTerms returns when maxTokens is not positive.
const DefaultMaxTokens = 10

// TopTerms returns up to maxTokens terms of row index with the highest weights,
// heaviest first. Terms with zero weight are never returned; equal weights are
// ordered alphabetically.
func (m *Matrix) TopTerms(index, maxTokens int) ([]models.TermWeight, error) {
	row, err := m.Row(index)
	if err != nil {
		return nil, err
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	terms := make([]models.TermWeight, 0, len(row.Cols))
	for k, col := range row.Cols {
		if row.Vals[k] > 0 {
			terms = append(terms, models.TermWeight{Term: m.vocabulary[col], Weight: row.Vals[k]})
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Weight != terms[j].Weight {
			return terms[i].Weight > terms[j].Weight
		}
		return terms[i].Term < terms[j].Term
	})
	if len(terms) > maxTokens {
		terms = terms[:maxTokens]
	}
	return terms, nil
}
