// Package similarity ranks annotated documents by vector similarity to a reference document.
package similarity

import (
	"sort"

	"github.com/hyperjump/textlens/internal/annotate"
	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/models"
)

// DefaultLimit is the number of neighbors returned when Options.Limit is not positive.
const DefaultLimit = 10

// Options controls a ranking.
type Options struct {
	Limit int
	// LeastSimilar returns the lowest-scoring documents first.
	LeastSimilar bool
}

// Ranker scores a pool of annotations against a reference and attaches display
// fields (e.g. name and text) from the source table.
type Ranker struct {
	table  *models.Table
	fields []string
}

// NewRanker returns a ranker that copies fields from table into every neighbor.
// table may be nil, in which case neighbors carry no fields.
func NewRanker(table *models.Table, fields ...string) *Ranker {
	return &Ranker{table: table, fields: fields}
}

type scored struct {
	index int
	score float64
}

// Rank scores every annotation in pool against ref and returns up to opts.Limit
// neighbors in rank order. The row that ref was annotated from is never returned;
// when ref is not part of pool nothing is skipped. Equal scores are ordered by row index.
// A nil ref or pool ranks nothing.
func (r *Ranker) Rank(ref *models.Annotation, pool *annotate.Series, opts Options) []models.Neighbor {
	if ref == nil || pool == nil {
		return nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates := make([]scored, 0, pool.Len())
	for _, ann := range pool.All() {
		if ann == ref || ann.Index == ref.Index {
			continue
		}
		candidates = append(candidates, scored{index: ann.Index, score: ref.Similarity(ann)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			if opts.LeastSimilar {
				return a.score < b.score
			}
			return a.score > b.score
		}
		return a.index < b.index
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]models.Neighbor, len(candidates))
	for i, c := range candidates {
		out[i] = models.Neighbor{
			Rank:   i + 1,
			Index:  c.index,
			Score:  c.score,
			Fields: r.fieldsFor(c.index),
		}
	}
	return out
}

// RankIndex ranks pool against the annotation of row refIndex.
func (r *Ranker) RankIndex(refIndex int, pool *annotate.Series, opts Options) ([]models.Neighbor, error) {
	ref, ok := pool.Get(refIndex)
	if !ok {
		return nil, apperr.NotFound("row %d has no annotation in %q", refIndex, pool.Name())
	}
	return r.Rank(ref, pool, opts), nil
}

func (r *Ranker) fieldsFor(index int) map[string]any {
	if r.table == nil || len(r.fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		v, _ := r.table.Value(index, f)
		out[f] = v
	}
	return out
}
