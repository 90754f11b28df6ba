// Package pipeline wires the record loader, annotator, ranker, normalizer and
// term-weight builder into one run driven by a config.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/textlens/internal/annotate"
	"github.com/hyperjump/textlens/internal/config"
	"github.com/hyperjump/textlens/internal/embedding"
	"github.com/hyperjump/textlens/internal/language"
	"github.com/hyperjump/textlens/internal/models"
	"github.com/hyperjump/textlens/internal/normalize"
	"github.com/hyperjump/textlens/internal/records"
	"github.com/hyperjump/textlens/internal/similarity"
	"github.com/hyperjump/textlens/internal/stopwords"
	"github.com/hyperjump/textlens/internal/tfidf"
)

var (
	errNoTable      = errors.New("no records loaded")
	errNotAnnotated = errors.New("text column not annotated")
)

// Pipeline holds the components of one run and the data produced so far.
// Stages run in order: Load, Annotate, then Similar or BuildTerms/TopTerms.
// A Pipeline is not safe for concurrent use.
type Pipeline struct {
	cfg        *config.Config
	logger     *zap.Logger
	model      language.Model
	ownsModel  bool
	annotator  *annotate.Annotator
	normalizer *normalize.Normalizer
	stops      stopwords.Set

	table  *models.Table
	series *annotate.Series
	matrix *tfidf.Matrix
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger shared by every stage.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithModel replaces the configured language model. The caller keeps ownership:
// the Pipeline never closes m.
func WithModel(m language.Model) Option {
	return func(p *Pipeline) {
		p.model = m
	}
}

// New builds the components described by cfg.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	stops, err := stopwords.Load(cfg.Normalize.StopWords...)
	if err != nil {
		return nil, err
	}
	if cfg.Normalize.StopWordsFile != "" {
		if err := stopwords.LoadFile(stops, cfg.Normalize.StopWordsFile); err != nil {
			return nil, err
		}
	}
	p.stops = stops

	if p.model == nil {
		embedder, err := NewEmbedder(cfg.Annotate)
		if err != nil {
			return nil, err
		}
		model, err := language.New(cfg.Annotate.Model, language.Options{
			Language: cfg.Annotate.Language,
			Embedder: embedder,
		})
		if err != nil {
			_ = embedder.Close()
			return nil, err
		}
		p.model = model
		p.ownsModel = true
	}

	p.annotator, err = annotate.NewAnnotator(p.model,
		annotate.WithWorkers(cfg.Annotate.Workers),
		annotate.WithLogger(p.logger),
	)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.normalizer, err = normalize.New(normalize.Policy(cfg.Normalize.Policy), cfg.Normalize.MinTokenLength, stops)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// NewEmbedder returns the document-vector backend named by cfg.Vector, wrapped in
// an LRU cache when cfg.CacheSize is positive.
func NewEmbedder(cfg config.AnnotateConfig) (embedding.Embedder, error) {
	var inner embedding.Embedder
	switch cfg.Vector {
	case config.VectorONNX:
		onnx, err := embedding.NewONNXEmbedder(embedding.ONNXOptions{
			ModelPath:  cfg.ONNXModelPath,
			Dimensions: cfg.Dimensions,
			MaxTokens:  cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize onnx embedder: %w", err)
		}
		inner = onnx
	default:
		inner = embedding.NewBagOfWordsEmbedder(cfg.Dimensions)
	}
	cached, err := embedding.NewCachedEmbedder(inner, cfg.CacheSize)
	if err != nil {
		_ = inner.Close()
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return cached, nil
}

// Close releases the language model and its embedder when New built them.
func (p *Pipeline) Close() error {
	if !p.ownsModel {
		return nil
	}
	return p.model.Close()
}

// Config returns the effective config.
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

func (p *Pipeline) recordOptions() records.Options {
	return records.Options{Separator: p.cfg.Input.Separator, Logger: p.logger}
}

// Load reads the NDJSON file at path, or input.path when path is empty, and
// resets every later stage.
func (p *Pipeline) Load(path string) (*models.Table, error) {
	if path == "" {
		path = p.cfg.Input.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no input file: set input.path or pass a path")
	}
	table, err := records.Load(path, p.recordOptions())
	if err != nil {
		return nil, err
	}
	p.setTable(table)
	return table, nil
}

// LoadReader is Load for an already open stream.
func (p *Pipeline) LoadReader(r io.Reader) (*models.Table, error) {
	table, err := records.Read(r, p.recordOptions())
	if err != nil {
		return nil, err
	}
	p.setTable(table)
	return table, nil
}

func (p *Pipeline) setTable(t *models.Table) {
	p.table = t
	p.series = nil
	p.matrix = nil
}

// Table returns the loaded table, or nil.
func (p *Pipeline) Table() *models.Table {
	return p.table
}

// Annotate annotates the configured text column of the loaded table. The result
// is kept for Similar and BuildTerms.
func (p *Pipeline) Annotate(ctx context.Context) (*annotate.Series, error) {
	if p.table == nil {
		return nil, errNoTable
	}
	series, err := p.annotator.Annotate(ctx, p.table, p.cfg.Columns.Text, p.cfg.Columns.Compare)
	if err != nil {
		return nil, err
	}
	p.series = series
	p.matrix = nil
	return series, nil
}

// Series returns the annotations from the last Annotate, or nil.
func (p *Pipeline) Series() *annotate.Series {
	return p.series
}

// Similar ranks every other annotated row against refIndex using the similarity
// section of the config.
func (p *Pipeline) Similar(refIndex int) ([]models.Neighbor, error) {
	return p.SimilarWith(refIndex, similarity.Options{
		Limit:        p.cfg.Similarity.Limit,
		LeastSimilar: p.cfg.Similarity.LeastSimilar,
	})
}

// SimilarWith is Similar with explicit ranking options.
func (p *Pipeline) SimilarWith(refIndex int, opts similarity.Options) ([]models.Neighbor, error) {
	if p.series == nil {
		return nil, errNotAnnotated
	}
	ranker := similarity.NewRanker(p.table, p.displayFields()...)
	return ranker.RankIndex(refIndex, p.series, opts)
}

func (p *Pipeline) displayFields() []string {
	var fields []string
	for _, col := range []string{p.cfg.Columns.Title, p.cfg.Columns.Text} {
		if col != "" && p.table.HasColumn(col) {
			fields = append(fields, col)
		}
	}
	return fields
}

// Documents returns the normalized text of every annotated row.
func (p *Pipeline) Documents() ([]normalize.Document, error) {
	if p.series == nil {
		return nil, errNotAnnotated
	}
	return p.normalizer.Series(p.series), nil
}

// Builder returns the term-weight builder described by the terms section.
func (p *Pipeline) Builder() tfidf.Builder {
	b := tfidf.Builder{
		MaxDF:       p.cfg.Terms.MaxDF,
		MinDF:       p.cfg.Terms.MinDF,
		MaxFeatures: p.cfg.Terms.MaxFeatures,
		Logger:      p.logger,
	}
	if p.cfg.Terms.FilterStopWords {
		b.StopWords = p.stops
	}
	return b
}

// BuildTerms normalizes the annotations and fits the term-weight matrix.
func (p *Pipeline) BuildTerms() (*tfidf.Matrix, error) {
	docs, err := p.Documents()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	m, err := p.Builder().Build(docs)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("term matrix ready", zap.Int("documents", len(docs)), zap.Duration("elapsed", time.Since(start)))
	p.matrix = m
	return m, nil
}

// TopTerms returns the heaviest terms of a row, building the matrix on first use.
func (p *Pipeline) TopTerms(index int) ([]models.TermWeight, error) {
	if p.matrix == nil {
		if _, err := p.BuildTerms(); err != nil {
			return nil, err
		}
	}
	return p.matrix.TopTerms(index, p.cfg.Terms.MaxTokens)
}
