// Package tfidf builds a sparse TF-IDF term-weight matrix over normalized documents
// and extracts the top descriptive terms per document.
package tfidf

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/normalize"
	"github.com/hyperjump/textlens/internal/stopwords"
)

// Defaults for Builder fields.
const (
	DefaultMaxDF       = 0.9
	DefaultMinDF       = 10
	DefaultMaxFeatures = 1000
)

// Builder fits the vocabulary and weights. The zero value keeps every term.
type Builder struct {
	// MaxDF drops terms found in more documents than this. Values up to 1 are a
	// fraction of the corpus; larger values are an absolute document count.
	MaxDF float64
	// MinDF drops terms found in fewer documents than this.
	MinDF int
	// MaxFeatures caps the vocabulary at the terms with the highest corpus counts. 0 means no cap.
	MaxFeatures int
	// StopWords are removed before counting. May be nil.
	StopWords stopwords.Set
	Logger    *zap.Logger
}

// NewBuilder returns a Builder with the default bounds (0.9, 10, 1000).
func NewBuilder() Builder {
	return Builder{MaxDF: DefaultMaxDF, MinDF: DefaultMinDF, MaxFeatures: DefaultMaxFeatures}
}

// Validate checks the bounds against a corpus of n documents.
func (b Builder) Validate(n int) error {
	if math.IsNaN(b.MaxDF) || b.MaxDF < 0 {
		return apperr.Configuration("max_df must be non-negative, got %v", b.MaxDF)
	}
	if b.MinDF < 0 {
		return apperr.Configuration("min_df must be non-negative, got %d", b.MinDF)
	}
	if b.MaxFeatures < 0 {
		return apperr.Configuration("max_features must be non-negative, got %d", b.MaxFeatures)
	}
	if n == 0 {
		return apperr.Configuration("no documents to weight")
	}
	if b.MinDF > n {
		return apperr.Configuration("min_df %d exceeds the corpus size %d", b.MinDF, n)
	}
	if maxDocs := b.maxDocCount(n); maxDocs < float64(b.MinDF) {
		return apperr.Configuration("max_df %v allows at most %.1f documents, fewer than min_df %d",
			b.MaxDF, maxDocs, b.MinDF)
	}
	return nil
}

func (b Builder) maxDocCount(n int) float64 {
	if b.MaxDF <= 1 {
		return b.MaxDF * float64(n)
	}
	return b.MaxDF
}

func (b Builder) analyze(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	if b.StopWords == nil {
		return fields
	}
	out := fields[:0]
	for _, f := range fields {
		if !b.StopWords.Contains(f) {
			out = append(out, f)
		}
	}
	return out
}

// Build fits the vocabulary on docs and returns their weight matrix. Every document
// gets a row, including documents whose text is empty (an all-zero row).
func (b Builder) Build(docs []normalize.Document) (*Matrix, error) {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	n := len(docs)
	if err := b.Validate(n); err != nil {
		return nil, err
	}

	counts := make([]map[string]int, n)
	df := make(map[string]int)
	total := make(map[string]int)
	for i, d := range docs {
		tf := make(map[string]int)
		for _, term := range b.analyze(d.Text) {
			tf[term]++
			total[term]++
		}
		for term := range tf {
			df[term]++
		}
		counts[i] = tf
	}

	maxDocs := b.maxDocCount(n)
	kept := make([]string, 0, len(df))
	pruned := 0
	for term, c := range df {
		if float64(c) > maxDocs || c < b.MinDF {
			pruned++
			continue
		}
		kept = append(kept, term)
	}
	if len(kept) == 0 {
		return nil, apperr.Configuration("no terms remain after pruning %d terms; lower min_df or raise max_df", pruned)
	}
	if b.MaxFeatures > 0 && len(kept) > b.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if total[kept[i]] != total[kept[j]] {
				return total[kept[i]] > total[kept[j]]
			}
			return kept[i] < kept[j]
		})
		pruned += len(kept) - b.MaxFeatures
		kept = kept[:b.MaxFeatures]
	}
	sort.Strings(kept)

	m := newMatrix(kept, n)
	idf := make([]float64, len(kept))
	for col, term := range kept {
		m.df[col] = df[term]
		idf[col] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}
	for i, d := range docs {
		row := SparseRow{}
		for term := range counts[i] {
			col, ok := m.columns[term]
			if !ok {
				continue
			}
			row.Cols = append(row.Cols, col)
		}
		sort.Ints(row.Cols)
		row.Vals = make([]float64, len(row.Cols))
		for k, col := range row.Cols {
			row.Vals[k] = float64(counts[i][kept[col]]) * idf[col]
		}
		if norm := floats.Norm(row.Vals, 2); norm > 0 {
			floats.Scale(1/norm, row.Vals)
		}
		m.addRow(d.Index, row)
	}

	logger.Info("term weights built",
		zap.Int("documents", n),
		zap.Int("vocabulary", len(kept)),
		zap.Int("pruned_terms", pruned),
	)
	return m, nil
}
