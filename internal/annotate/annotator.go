// Package annotate runs a language model over a text column of a record table.
package annotate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/language"
	"github.com/hyperjump/textlens/internal/models"
)

// DefaultWorkers bounds concurrent Annotate calls when no WithWorkers option is given.
const DefaultWorkers = 4

// Annotator annotates table columns with a model using a bounded worker pool.
type Annotator struct {
	model   language.Model
	workers int
	logger  *zap.Logger
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithWorkers sets the maximum number of concurrent Annotate calls.
func WithWorkers(n int) Option {
	return func(a *Annotator) { a.workers = n }
}

// WithLogger sets a logger for batch progress.
func WithLogger(l *zap.Logger) Option {
	return func(a *Annotator) { a.logger = l }
}

// NewAnnotator returns an annotator for model. The worker count must be positive:
// an unbounded pool over a large corpus exhausts memory.
func NewAnnotator(model language.Model, opts ...Option) (*Annotator, error) {
	a := &Annotator{model: model, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(a)
	}
	if model == nil {
		return nil, apperr.Configuration("annotator needs a language model")
	}
	if a.workers <= 0 {
		return nil, apperr.Configuration("annotate workers must be positive, got %d", a.workers)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a, nil
}

type job struct {
	index int
	text  string
}

// Annotate annotates every non-null value of column and returns the series under name.
// Non-string values are annotated in their printed form. The first model error
// cancels the batch and is returned; no partial series is produced.
func (a *Annotator) Annotate(ctx context.Context, table *models.Table, column, name string) (*Series, error) {
	cells, err := table.Column(column)
	if err != nil {
		return nil, err
	}
	jobs := make([]job, 0, len(cells))
	for _, c := range cells {
		if c.Value == nil {
			continue
		}
		text, ok := c.Value.(string)
		if !ok {
			text = fmt.Sprint(c.Value)
		}
		jobs = append(jobs, job{index: c.Index, text: norm.NFC.String(text)})
	}

	start := time.Now()
	a.logger.Info("annotation started",
		zap.String("column", column),
		zap.String("model", a.model.Name()),
		zap.Int("rows", len(jobs)),
		zap.Int("skipped_null", len(cells)-len(jobs)),
		zap.Int("workers", a.workers),
	)

	results := make([]*models.Annotation, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, j := range jobs {
		g.Go(func() error {
			ann, err := a.model.Annotate(gctx, j.text)
			if err != nil {
				return fmt.Errorf("row %d: %w", j.index, err)
			}
			ann.Index = j.index
			results[i] = ann
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("annotation failed: %w", err)
	}

	a.logger.Info("annotation finished",
		zap.String("column", column),
		zap.Int("annotated", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return NewSeries(name, results), nil
}

// AnnotateText annotates a single free text, e.g. an ad-hoc reference document.
// The result carries index -1.
func (a *Annotator) AnnotateText(ctx context.Context, text string) (*models.Annotation, error) {
	ann, err := a.model.Annotate(ctx, norm.NFC.String(text))
	if err != nil {
		return nil, err
	}
	ann.Index = -1
	return ann, nil
}
