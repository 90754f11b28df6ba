package annotate

import (
	"sort"

	"github.com/hyperjump/textlens/internal/models"
)

// Series holds the annotations of one text column, keyed by row index.
// Rows whose text was missing have no entry.
type Series struct {
	name    string
	indices []int
	byIndex map[int]*models.Annotation
}

// NewSeries builds a series from annotations; each annotation's Index is its key.
func NewSeries(name string, anns []*models.Annotation) *Series {
	s := &Series{
		name:    name,
		indices: make([]int, 0, len(anns)),
		byIndex: make(map[int]*models.Annotation, len(anns)),
	}
	for _, a := range anns {
		if a == nil {
			continue
		}
		if _, dup := s.byIndex[a.Index]; !dup {
			s.indices = append(s.indices, a.Index)
		}
		s.byIndex[a.Index] = a
	}
	sort.Ints(s.indices)
	return s
}

// Name returns the series name, conventionally "<text column>_nlp".
func (s *Series) Name() string {
	return s.name
}

// Len returns the number of annotated rows.
func (s *Series) Len() int {
	return len(s.indices)
}

// Indices returns the annotated row indices in ascending order.
func (s *Series) Indices() []int {
	return append([]int(nil), s.indices...)
}

// Get returns the annotation for a row index.
func (s *Series) Get(index int) (*models.Annotation, bool) {
	a, ok := s.byIndex[index]
	return a, ok
}

// All returns the annotations in ascending row-index order.
func (s *Series) All() []*models.Annotation {
	out := make([]*models.Annotation, len(s.indices))
	for i, idx := range s.indices {
		out[i] = s.byIndex[idx]
	}
	return out
}

// Each calls fn for every annotation in ascending row-index order and stops at
// the first error.
func (s *Series) Each(fn func(index int, ann *models.Annotation) error) error {
	for _, idx := range s.indices {
		if err := fn(idx, s.byIndex[idx]); err != nil {
			return err
		}
	}
	return nil
}
